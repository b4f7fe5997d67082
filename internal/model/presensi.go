package model

import (
	"time"
)

// Presensi is one attendance event. A row with CheckOut = NULL is an open
// session: the user has checked in and not yet checked out.
//
// OpenFlag backs the one-open-session-per-user guarantee. It is set while
// the session is open and NULLed on check-out; together with the composite
// unique index this rejects a second open row for the same user at the
// database, since MySQL treats NULLs in a unique index as distinct.
// swagger:model Presensi
type Presensi struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint       `gorm:"not null;index;uniqueIndex:idx_presensi_open" json:"userId"`
	CheckIn   time.Time  `gorm:"not null;index" json:"checkIn"`
	CheckOut  *time.Time `json:"checkOut"`
	Latitude  *float64   `json:"latitude"`
	Longitude *float64   `json:"longitude"`
	BuktiFoto *string    `gorm:"size:255" json:"buktiFoto"`
	OpenFlag  *bool      `gorm:"uniqueIndex:idx_presensi_open" json:"-"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (Presensi) TableName() string {
	return "presensi"
}

// Open reports whether the record is still an open session.
func (p *Presensi) Open() bool {
	return p.CheckOut == nil
}
