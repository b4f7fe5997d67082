package service

import (
	"testing"
	"time"

	"presensi_backend/internal/repository"
)

type mockReportStore struct {
	queryReportFn func(f repository.ReportFilter) ([]repository.ReportRow, error)
}

func (m *mockReportStore) QueryReport(f repository.ReportFilter) ([]repository.ReportRow, error) {
	return m.queryReportFn(f)
}

func strPtr(s string) *string { return &s }

func TestDaily_PassesFilterThrough(t *testing.T) {
	var gotFilter repository.ReportFilter
	store := &mockReportStore{
		queryReportFn: func(f repository.ReportFilter) ([]repository.ReportRow, error) {
			gotFilter = f
			return nil, nil
		},
	}
	svc := NewReportService(store, testConfig(t))

	mulai := time.Date(2024, 1, 1, 0, 0, 0, 0, svc.Loc)
	filter := repository.ReportFilter{Nama: "ali", TanggalMulai: &mulai}
	if _, err := svc.Daily(filter); err != nil {
		t.Fatalf("Daily: %v", err)
	}

	if gotFilter.Nama != "ali" {
		t.Errorf("nama filter not passed through: %q", gotFilter.Nama)
	}
	if gotFilter.TanggalMulai == nil || !gotFilter.TanggalMulai.Equal(mulai) {
		t.Errorf("tanggalMulai not passed through: %v", gotFilter.TanggalMulai)
	}
	if gotFilter.TanggalSelesai != nil {
		t.Errorf("open-ended range must keep the other bound nil: %v", gotFilter.TanggalSelesai)
	}
}

func TestDaily_FlattensRows(t *testing.T) {
	loc, _ := time.LoadLocation("Asia/Jakarta")
	checkIn := time.Date(2024, 1, 2, 9, 0, 0, 0, loc)
	checkOut := checkIn.Add(8 * time.Hour)
	foto := "uploads/presensi/3_x.jpg"

	store := &mockReportStore{
		queryReportFn: func(f repository.ReportFilter) ([]repository.ReportRow, error) {
			return []repository.ReportRow{
				{ID: 2, UserID: 3, Nama: strPtr("Alice"), CheckIn: checkIn, CheckOut: &checkOut, BuktiFoto: &foto},
				{ID: 1, UserID: 4, Nama: nil, CheckIn: checkIn.Add(-24 * time.Hour)},
			}, nil
		},
	}
	svc := NewReportService(store, testConfig(t))

	rows, err := svc.Daily(repository.ReportFilter{})
	if err != nil {
		t.Fatalf("Daily: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	if rows[0].Nama != "Alice" {
		t.Errorf("display name not flattened: %q", rows[0].Nama)
	}
	if rows[0].CheckIn != "2024-01-02 09:00:00+07:00" {
		t.Errorf("checkIn not rendered in configured zone: %q", rows[0].CheckIn)
	}
	if rows[0].CheckOut == nil || *rows[0].CheckOut != "2024-01-02 17:00:00+07:00" {
		t.Errorf("checkOut not rendered: %v", rows[0].CheckOut)
	}
	if rows[0].BuktiFoto == nil || *rows[0].BuktiFoto != foto {
		t.Errorf("photo path not surfaced: %v", rows[0].BuktiFoto)
	}

	// rows whose owner no longer exists fall back to the sentinel
	if rows[1].Nama != DeletedUserName {
		t.Errorf("expected sentinel for deleted user, got %q", rows[1].Nama)
	}
	if rows[1].CheckOut != nil {
		t.Errorf("open session must have null checkOut, got %v", *rows[1].CheckOut)
	}

	// store ordering (check_in DESC) is preserved as-is
	if rows[0].ID != 2 || rows[1].ID != 1 {
		t.Errorf("row order changed: %d, %d", rows[0].ID, rows[1].ID)
	}
}
