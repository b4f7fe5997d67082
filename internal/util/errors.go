package util

import "errors"

var (
	// lifecycle
	ErrAlreadyCheckedIn = errors.New("anda sudah melakukan check-in hari ini")
	ErrNoActiveCheckIn  = errors.New("tidak ditemukan catatan check-in yang aktif")
	ErrPresensiNotFound = errors.New("catatan presensi tidak ditemukan")
	ErrNotRecordOwner   = errors.New("anda bukan pemilik catatan ini")

	// validation
	ErrEmptyUpdate      = errors.New("request body harus berisi checkIn, checkOut, latitude, atau longitude")
	ErrInvalidTimestamp = errors.New("checkIn/checkOut harus berupa format tanggal yang valid (ISO 8601)")

	// attachments
	ErrNotAnImage    = errors.New("file bukti harus berupa gambar")
	ErrImageTooLarge = errors.New("ukuran file bukti melebihi batas maksimum")

	// storage
	ErrStorage = errors.New("gagal menyimpan file bukti")

	// auth
	ErrEmailRegistered    = errors.New("email sudah terdaftar")
	ErrInvalidCredentials = errors.New("email atau password salah")
	ErrUserNotFound       = errors.New("pengguna tidak ditemukan")
)
