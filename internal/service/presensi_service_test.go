package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"presensi_backend/internal/config"
	"presensi_backend/internal/model"
	"presensi_backend/internal/util"
	"presensi_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

// --- mocks ---

type mockPresensiStore struct {
	createOpenFn     func(p *model.Presensi) error
	findOpenByUserFn func(userID uint) (*model.Presensi, error)
	findByIDFn       func(id uint) (*model.Presensi, error)
	closeFn          func(p *model.Presensi, at time.Time) error
	updateFieldsFn   func(id uint, fields map[string]interface{}) error
	deleteFn         func(id uint) error
}

func (m *mockPresensiStore) CreateOpen(p *model.Presensi) error {
	if m.createOpenFn != nil {
		return m.createOpenFn(p)
	}
	p.ID = 1
	return nil
}

func (m *mockPresensiStore) FindOpenByUser(userID uint) (*model.Presensi, error) {
	if m.findOpenByUserFn != nil {
		return m.findOpenByUserFn(userID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPresensiStore) FindByID(id uint) (*model.Presensi, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPresensiStore) Close(p *model.Presensi, at time.Time) error {
	if m.closeFn != nil {
		return m.closeFn(p, at)
	}
	p.CheckOut = &at
	p.OpenFlag = nil
	return nil
}

func (m *mockPresensiStore) UpdateFields(id uint, fields map[string]interface{}) error {
	if m.updateFieldsFn != nil {
		return m.updateFieldsFn(id, fields)
	}
	return nil
}

func (m *mockPresensiStore) Delete(id uint) error {
	if m.deleteFn != nil {
		return m.deleteFn(id)
	}
	return nil
}

type mockUserStore struct {
	findByIDFn func(id uint) (*model.User, error)
}

func (m *mockUserStore) FindByID(id uint) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(id)
	}
	user := &model.User{Nama: "Budi"}
	user.ID = id
	return user, nil
}

// pngBytes is a minimal payload http.DetectContentType reports as image/png.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Storage.LocalPath = t.TempDir()
	cfg.Presensi.Timezone = "Asia/Jakarta"
	cfg.Presensi.TimezoneLabel = "WIB"
	cfg.Presensi.MaxPhotoMB = 5
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	cfg.Presensi.Location = loc
	return cfg
}

func newTestService(t *testing.T, store PresensiStore, users UserStore) (*PresensiService, *config.Config) {
	t.Helper()
	cfg := testConfig(t)
	storage := NewStorageService(cfg)
	attachments := NewAttachmentService(storage, cfg)
	if users == nil {
		users = &mockUserStore{}
	}
	return NewPresensiService(store, users, attachments, cfg), cfg
}

func fixedNow(svc *PresensiService, t time.Time) {
	svc.now = func() time.Time { return t }
}

func uploadedFiles(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err == nil && info != nil && !info.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	return files
}

// --- tests ---

func TestCheckIn_Success(t *testing.T) {
	var created *model.Presensi
	store := &mockPresensiStore{
		createOpenFn: func(p *model.Presensi) error {
			p.ID = 7
			created = p
			return nil
		},
	}
	svc, _ := newTestService(t, store, nil)

	loc := svc.Loc
	fixedNow(svc, time.Date(2024, 1, 1, 8, 0, 0, 0, loc))

	lat, lng := -7.0, 110.0
	res, err := svc.CheckIn(context.Background(), Actor{ID: 3, Nama: "Budi"}, CheckInInput{
		Latitude:  &lat,
		Longitude: &lng,
	})
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}

	if created == nil {
		t.Fatal("expected record to be created")
	}
	if created.CheckOut != nil {
		t.Error("new record must be an open session")
	}
	if created.Latitude == nil || *created.Latitude != -7.0 {
		t.Errorf("latitude not stored: %v", created.Latitude)
	}

	if !strings.Contains(res.Message, "Halo Budi") {
		t.Errorf("greeting missing name: %q", res.Message)
	}
	if !strings.Contains(res.Message, "08:00:00 WIB") {
		t.Errorf("greeting missing local clock: %q", res.Message)
	}
	if res.Data.CheckIn != "2024-01-01 08:00:00+07:00" {
		t.Errorf("checkIn not rendered in configured zone: %q", res.Data.CheckIn)
	}
	if res.Data.CheckOut != nil {
		t.Errorf("checkOut should be null, got %v", *res.Data.CheckOut)
	}
}

func TestCheckIn_WithPhoto(t *testing.T) {
	store := &mockPresensiStore{}
	svc, cfg := newTestService(t, store, nil)

	res, err := svc.CheckIn(context.Background(), Actor{ID: 3, Nama: "Budi"}, CheckInInput{
		Photo:     bytes.NewReader(pngBytes),
		PhotoSize: int64(len(pngBytes)),
	})
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}

	if res.Data.BuktiFoto == nil {
		t.Fatal("expected buktiFoto to be set")
	}
	if !strings.HasPrefix(*res.Data.BuktiFoto, "uploads/presensi/") {
		t.Errorf("photo path not under public root: %q", *res.Data.BuktiFoto)
	}
	if files := uploadedFiles(t, cfg.Storage.LocalPath); len(files) != 1 {
		t.Errorf("expected exactly one stored file, got %d", len(files))
	}
}

func TestCheckIn_Conflict_ReleasesPhoto(t *testing.T) {
	store := &mockPresensiStore{
		createOpenFn: func(p *model.Presensi) error {
			return util.ErrAlreadyCheckedIn
		},
	}
	svc, cfg := newTestService(t, store, nil)

	_, err := svc.CheckIn(context.Background(), Actor{ID: 3, Nama: "Budi"}, CheckInInput{
		Photo:     bytes.NewReader(pngBytes),
		PhotoSize: int64(len(pngBytes)),
	})
	if err != util.ErrAlreadyCheckedIn {
		t.Fatalf("expected ErrAlreadyCheckedIn, got %v", err)
	}

	if files := uploadedFiles(t, cfg.Storage.LocalPath); len(files) != 0 {
		t.Errorf("staged photo must be released on conflict, found %v", files)
	}
}

func TestCheckOut_NoActiveSession(t *testing.T) {
	svc, _ := newTestService(t, &mockPresensiStore{}, nil)

	_, err := svc.CheckOut(Actor{ID: 3, Nama: "Budi"})
	if err != util.ErrNoActiveCheckIn {
		t.Fatalf("expected ErrNoActiveCheckIn, got %v", err)
	}
}

func TestCheckIn_Then_CheckOut_RoundTrip(t *testing.T) {
	// stateful store: the open session created by CheckIn is what CheckOut
	// finds
	var open *model.Presensi
	store := &mockPresensiStore{
		createOpenFn: func(p *model.Presensi) error {
			if open != nil && open.CheckOut == nil {
				return util.ErrAlreadyCheckedIn
			}
			p.ID = 1
			open = p
			return nil
		},
		findOpenByUserFn: func(userID uint) (*model.Presensi, error) {
			if open == nil || open.CheckOut != nil {
				return nil, gorm.ErrRecordNotFound
			}
			return open, nil
		},
	}
	svc, _ := newTestService(t, store, nil)

	loc := svc.Loc
	fixedNow(svc, time.Date(2024, 1, 1, 8, 0, 0, 0, loc))
	if _, err := svc.CheckIn(context.Background(), Actor{ID: 3, Nama: "Budi"}, CheckInInput{}); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}

	// another check-in without an intervening check-out must conflict
	if _, err := svc.CheckIn(context.Background(), Actor{ID: 3, Nama: "Budi"}, CheckInInput{}); err != util.ErrAlreadyCheckedIn {
		t.Fatalf("expected conflict on second check-in, got %v", err)
	}

	fixedNow(svc, time.Date(2024, 1, 1, 17, 30, 0, 0, loc))
	res, err := svc.CheckOut(Actor{ID: 3, Nama: "Budi"})
	if err != nil {
		t.Fatalf("CheckOut: %v", err)
	}

	if open.CheckOut == nil {
		t.Fatal("session not closed")
	}
	if !open.CheckIn.Before(*open.CheckOut) {
		t.Errorf("expected checkIn (%v) < checkOut (%v)", open.CheckIn, *open.CheckOut)
	}
	if !strings.Contains(res.Message, "Selamat jalan Budi") {
		t.Errorf("farewell missing name: %q", res.Message)
	}
	if res.Data.CheckOut == nil || *res.Data.CheckOut != "2024-01-01 17:30:00+07:00" {
		t.Errorf("checkOut not rendered in configured zone: %v", res.Data.CheckOut)
	}
}

func TestDelete_NotOwner(t *testing.T) {
	deleted := false
	store := &mockPresensiStore{
		findByIDFn: func(id uint) (*model.Presensi, error) {
			return &model.Presensi{ID: id, UserID: 99}, nil
		},
		deleteFn: func(id uint) error {
			deleted = true
			return nil
		},
	}
	svc, _ := newTestService(t, store, nil)

	_, err := svc.Delete(Actor{ID: 3, Nama: "Budi"}, 10)
	if err != util.ErrNotRecordOwner {
		t.Fatalf("expected ErrNotRecordOwner, got %v", err)
	}
	if deleted {
		t.Error("record must not be deleted by a non-owner")
	}
}

func TestDelete_NotFound(t *testing.T) {
	svc, _ := newTestService(t, &mockPresensiStore{}, nil)

	_, err := svc.Delete(Actor{ID: 3, Nama: "Budi"}, 10)
	if err != util.ErrPresensiNotFound {
		t.Fatalf("expected ErrPresensiNotFound, got %v", err)
	}
}

func TestDelete_ReleasesPhoto(t *testing.T) {
	store := &mockPresensiStore{}
	svc, cfg := newTestService(t, store, nil)

	// stage a real file so Delete has something to release
	path, err := svc.Attachments.Stage(context.Background(), 3, bytes.NewReader(pngBytes), int64(len(pngBytes)))
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}

	store.findByIDFn = func(id uint) (*model.Presensi, error) {
		return &model.Presensi{ID: id, UserID: 3, BuktiFoto: &path}, nil
	}

	if _, err := svc.Delete(Actor{ID: 3, Nama: "Budi"}, 10); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if files := uploadedFiles(t, cfg.Storage.LocalPath); len(files) != 0 {
		t.Errorf("photo not released on delete, found %v", files)
	}
}

func TestUpdate_EmptyBody(t *testing.T) {
	touched := false
	store := &mockPresensiStore{
		updateFieldsFn: func(id uint, fields map[string]interface{}) error {
			touched = true
			return nil
		},
	}
	svc, _ := newTestService(t, store, nil)

	_, err := svc.Update(Actor{ID: 3, Nama: "Budi"}, 10, UpdateInput{})
	if err != util.ErrEmptyUpdate {
		t.Fatalf("expected ErrEmptyUpdate, got %v", err)
	}
	if touched {
		t.Error("store must not be mutated on validation failure")
	}
}

func TestUpdate_InvalidTimestamp(t *testing.T) {
	svc, _ := newTestService(t, &mockPresensiStore{}, nil)

	bad := "not-a-date"
	_, err := svc.Update(Actor{ID: 3, Nama: "Budi"}, 10, UpdateInput{CheckIn: &bad})
	if err != util.ErrInvalidTimestamp {
		t.Fatalf("expected ErrInvalidTimestamp, got %v", err)
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	rec := &model.Presensi{ID: 10, UserID: 3, CheckIn: time.Now()}
	var gotFields map[string]interface{}
	store := &mockPresensiStore{
		findByIDFn: func(id uint) (*model.Presensi, error) {
			return rec, nil
		},
		updateFieldsFn: func(id uint, fields map[string]interface{}) error {
			gotFields = fields
			return nil
		},
	}
	svc, _ := newTestService(t, store, nil)

	in := "2024-01-02T09:00:00+07:00"
	if _, err := svc.Update(Actor{ID: 3, Nama: "Budi"}, 10, UpdateInput{CheckIn: &in}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if len(gotFields) != 1 {
		t.Fatalf("expected only the supplied field, got %v", gotFields)
	}
	if _, ok := gotFields["check_in"]; !ok {
		t.Errorf("check_in missing from update fields: %v", gotFields)
	}
}

func TestUpdate_CheckOutClearsOpenMarker(t *testing.T) {
	rec := &model.Presensi{ID: 10, UserID: 3, CheckIn: time.Now()}
	var gotFields map[string]interface{}
	store := &mockPresensiStore{
		findByIDFn: func(id uint) (*model.Presensi, error) {
			return rec, nil
		},
		updateFieldsFn: func(id uint, fields map[string]interface{}) error {
			gotFields = fields
			return nil
		},
	}
	svc, _ := newTestService(t, store, nil)

	out := "2024-01-01T17:00:00+07:00"
	if _, err := svc.Update(Actor{ID: 3, Nama: "Budi"}, 10, UpdateInput{CheckOut: &out}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	v, ok := gotFields["open_flag"]
	if !ok {
		t.Fatalf("closing a session via update must clear the open marker, got %v", gotFields)
	}
	if v != nil {
		t.Errorf("open_flag = %v, want nil", v)
	}
	if _, ok := gotFields["check_out"]; !ok {
		t.Errorf("check_out missing from update fields: %v", gotFields)
	}
}

func TestCheckIn_AfterUpdateClosedSession(t *testing.T) {
	// stateful store mirroring the UNIQUE(user_id, open_flag) index: only a
	// row whose marker is still set occupies the per-user slot
	var rows []*model.Presensi
	store := &mockPresensiStore{
		createOpenFn: func(p *model.Presensi) error {
			for _, r := range rows {
				if r.UserID == p.UserID && r.OpenFlag != nil {
					return util.ErrAlreadyCheckedIn
				}
			}
			open := true
			p.OpenFlag = &open
			p.ID = uint(len(rows) + 1)
			rows = append(rows, p)
			return nil
		},
		findByIDFn: func(id uint) (*model.Presensi, error) {
			for _, r := range rows {
				if r.ID == id {
					return r, nil
				}
			}
			return nil, gorm.ErrRecordNotFound
		},
		updateFieldsFn: func(id uint, fields map[string]interface{}) error {
			for _, r := range rows {
				if r.ID != id {
					continue
				}
				if v, ok := fields["check_out"]; ok {
					at := v.(time.Time)
					r.CheckOut = &at
				}
				if v, ok := fields["open_flag"]; ok && v == nil {
					r.OpenFlag = nil
				}
			}
			return nil
		},
	}
	svc, _ := newTestService(t, store, nil)
	fixedNow(svc, time.Date(2024, 1, 1, 8, 0, 0, 0, svc.Loc))

	actor := Actor{ID: 3, Nama: "Budi"}
	if _, err := svc.CheckIn(context.Background(), actor, CheckInInput{}); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}

	// forgot to check out; the session is closed through the correction
	// endpoint instead
	out := "2024-01-01T17:00:00+07:00"
	if _, err := svc.Update(actor, rows[0].ID, UpdateInput{CheckOut: &out}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	fixedNow(svc, time.Date(2024, 1, 2, 8, 0, 0, 0, svc.Loc))
	if _, err := svc.CheckIn(context.Background(), actor, CheckInInput{}); err != nil {
		t.Fatalf("check-in after an update-closed session must succeed, got %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected a second session, got %d rows", len(rows))
	}
}
