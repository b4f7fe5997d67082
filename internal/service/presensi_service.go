package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"presensi_backend/internal/config"
	"presensi_backend/internal/model"
	"presensi_backend/internal/util"
	"presensi_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PresensiStore is the persistence surface the lifecycle needs.
type PresensiStore interface {
	CreateOpen(p *model.Presensi) error
	FindOpenByUser(userID uint) (*model.Presensi, error)
	FindByID(id uint) (*model.Presensi, error)
	Close(p *model.Presensi, at time.Time) error
	UpdateFields(id uint, fields map[string]interface{}) error
	Delete(id uint) error
}

type UserStore interface {
	FindByID(id uint) (*model.User, error)
}

// Actor is the decoded identity acting on a record.
type Actor struct {
	ID   uint
	Nama string
}

type CheckInInput struct {
	Latitude  *float64
	Longitude *float64
	Photo     io.Reader
	PhotoSize int64
}

// PresensiData is the formatted record returned to clients. Timestamps are
// rendered in the configured attendance zone.
type PresensiData struct {
	ID        uint     `json:"id"`
	UserID    uint     `json:"userId"`
	UserName  string   `json:"userName"`
	CheckIn   string   `json:"checkIn"`
	CheckOut  *string  `json:"checkOut"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	BuktiFoto *string  `json:"buktiFoto,omitempty"`
}

type PresensiResult struct {
	Message string
	Data    PresensiData
}

type UpdateInput struct {
	CheckIn   *string
	CheckOut  *string
	Latitude  *float64
	Longitude *float64
}

// PresensiService owns the check-in/check-out state machine:
// NoOpenSession -> CheckIn -> OpenSession -> CheckOut -> NoOpenSession.
type PresensiService struct {
	Presensi    PresensiStore
	Users       UserStore
	Attachments *AttachmentService
	Loc         *time.Location
	TZLabel     string

	// now is swappable in tests
	now func() time.Time
}

func NewPresensiService(presensi PresensiStore, users UserStore, attachments *AttachmentService, cfg *config.Config) *PresensiService {
	return &PresensiService{
		Presensi:    presensi,
		Users:       users,
		Attachments: attachments,
		Loc:         cfg.Presensi.Location,
		TZLabel:     cfg.Presensi.TimezoneLabel,
		now:         time.Now,
	}
}

// CheckIn opens a new session. The photo, if any, is staged durably before
// the record references it; if the insert then fails for any reason the
// staged file is released, so no error path leaves an orphan. A concurrent
// or repeated check-in surfaces as util.ErrAlreadyCheckedIn from the store's
// uniqueness guarantee.
func (s *PresensiService) CheckIn(ctx context.Context, actor Actor, in CheckInInput) (*PresensiResult, error) {
	staged := ""
	if in.Photo != nil {
		path, err := s.Attachments.Stage(ctx, actor.ID, in.Photo, in.PhotoSize)
		if err != nil {
			return nil, err
		}
		staged = path
	}

	now := s.now().In(s.Loc)
	rec := &model.Presensi{
		UserID:    actor.ID,
		CheckIn:   now,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
	}
	if staged != "" {
		rec.BuktiFoto = &staged
	}

	if err := s.Presensi.CreateOpen(rec); err != nil {
		if staged != "" {
			s.Attachments.Release(staged)
		}
		return nil, err
	}

	name := s.displayName(actor)
	return &PresensiResult{
		Message: fmt.Sprintf("Halo %s, check-in Anda berhasil pada pukul %s %s",
			name, util.FormatClock(now, s.Loc), s.TZLabel),
		Data: s.format(rec, name),
	}, nil
}

// CheckOut closes the caller's open session. No new record is created.
func (s *PresensiService) CheckOut(actor Actor) (*PresensiResult, error) {
	rec, err := s.Presensi.FindOpenByUser(actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNoActiveCheckIn
		}
		return nil, err
	}

	now := s.now().In(s.Loc)
	if err := s.Presensi.Close(rec, now); err != nil {
		return nil, err
	}

	name := s.displayName(actor)
	return &PresensiResult{
		Message: fmt.Sprintf("Selamat jalan %s, check-out Anda berhasil pada pukul %s %s",
			name, util.FormatClock(now, s.Loc), s.TZLabel),
		Data: s.format(rec, name),
	}, nil
}

// Delete removes a record the actor owns. The associated photo is released
// best-effort: a failed file delete is logged but never blocks the record
// deletion.
func (s *PresensiService) Delete(actor Actor, id uint) (*PresensiResult, error) {
	rec, err := s.findOwned(actor, id)
	if err != nil {
		return nil, err
	}

	if err := s.Presensi.Delete(rec.ID); err != nil {
		return nil, err
	}

	if rec.BuktiFoto != nil {
		s.Attachments.Release(*rec.BuktiFoto)
	}

	name := s.displayName(actor)
	return &PresensiResult{
		Message: "Catatan presensi berhasil dihapus.",
		Data:    s.format(rec, name),
	}, nil
}

// Update overwrites only the supplied fields of a record the actor owns.
//
// Deliberately permissive: the one-open-session invariant is NOT re-checked
// here, so a correction can legally produce a second open record. Supplying
// CheckOut closes the session, so the open marker is cleared along with it;
// otherwise it would keep occupying the per-user uniqueness slot and block
// the next check-in. Update cannot null CheckOut, so it never re-opens a
// session.
func (s *PresensiService) Update(actor Actor, id uint, in UpdateInput) (*PresensiResult, error) {
	if in.CheckIn == nil && in.CheckOut == nil && in.Latitude == nil && in.Longitude == nil {
		return nil, util.ErrEmptyUpdate
	}

	fields := map[string]interface{}{}
	if in.CheckIn != nil {
		t, err := time.Parse(time.RFC3339, *in.CheckIn)
		if err != nil {
			return nil, util.ErrInvalidTimestamp
		}
		fields["check_in"] = t
	}
	if in.CheckOut != nil {
		t, err := time.Parse(time.RFC3339, *in.CheckOut)
		if err != nil {
			return nil, util.ErrInvalidTimestamp
		}
		fields["check_out"] = t
		fields["open_flag"] = nil
	}
	if in.Latitude != nil {
		fields["latitude"] = *in.Latitude
	}
	if in.Longitude != nil {
		fields["longitude"] = *in.Longitude
	}

	if _, err := s.findOwned(actor, id); err != nil {
		return nil, err
	}

	if err := s.Presensi.UpdateFields(id, fields); err != nil {
		return nil, err
	}

	rec, err := s.Presensi.FindByID(id)
	if err != nil {
		return nil, err
	}

	name := s.displayName(actor)
	return &PresensiResult{
		Message: "Data presensi berhasil diperbarui.",
		Data:    s.format(rec, name),
	}, nil
}

func (s *PresensiService) findOwned(actor Actor, id uint) (*model.Presensi, error) {
	rec, err := s.Presensi.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrPresensiNotFound
		}
		return nil, err
	}
	if rec.UserID != actor.ID {
		return nil, util.ErrNotRecordOwner
	}
	return rec, nil
}

func (s *PresensiService) displayName(actor Actor) string {
	user, err := s.Users.FindByID(actor.ID)
	if err == nil && user.Nama != "" {
		return user.Nama
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) && err != nil {
		logger.Log.Warn("failed to load user for greeting", zap.Uint("user_id", actor.ID), zap.Error(err))
	}
	if actor.Nama != "" {
		return actor.Nama
	}
	return "User"
}

func (s *PresensiService) format(rec *model.Presensi, name string) PresensiData {
	return PresensiData{
		ID:        rec.ID,
		UserID:    rec.UserID,
		UserName:  name,
		CheckIn:   util.FormatPresensiTime(rec.CheckIn, s.Loc),
		CheckOut:  util.FormatPresensiTimePtr(rec.CheckOut, s.Loc),
		Latitude:  rec.Latitude,
		Longitude: rec.Longitude,
		BuktiFoto: rec.BuktiFoto,
	}
}
