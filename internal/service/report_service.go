package service

import (
	"time"

	"presensi_backend/internal/config"
	"presensi_backend/internal/repository"
	"presensi_backend/internal/util"
)

// DeletedUserName is shown when a record's owning user no longer exists.
const DeletedUserName = "pengguna terhapus"

// ReportStore is the read side the report needs; satisfied by
// repository.PresensiRepository.
type ReportStore interface {
	QueryReport(f repository.ReportFilter) ([]repository.ReportRow, error)
}

// ReportRow is the flattened row handed to clients: the joined display name
// sits directly on the row and timestamps are rendered in the configured
// zone.
type ReportRow struct {
	ID        uint     `json:"id"`
	UserID    uint     `json:"userId"`
	Nama      string   `json:"nama"`
	CheckIn   string   `json:"checkIn"`
	CheckOut  *string  `json:"checkOut"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	BuktiFoto *string  `json:"buktiFoto,omitempty"`
}

type ReportService struct {
	Store ReportStore
	Loc   *time.Location
}

func NewReportService(store ReportStore, cfg *config.Config) *ReportService {
	return &ReportService{
		Store: store,
		Loc:   cfg.Presensi.Location,
	}
}

// Daily re-executes the filtered, joined report query on every call and
// returns rows most-recent-first.
func (s *ReportService) Daily(f repository.ReportFilter) ([]ReportRow, error) {
	rows, err := s.Store.QueryReport(f)
	if err != nil {
		return nil, err
	}

	out := make([]ReportRow, 0, len(rows))
	for _, r := range rows {
		nama := DeletedUserName
		if r.Nama != nil && *r.Nama != "" {
			nama = *r.Nama
		}
		out = append(out, ReportRow{
			ID:        r.ID,
			UserID:    r.UserID,
			Nama:      nama,
			CheckIn:   util.FormatPresensiTime(r.CheckIn, s.Loc),
			CheckOut:  util.FormatPresensiTimePtr(r.CheckOut, s.Loc),
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
			BuktiFoto: r.BuktiFoto,
		})
	}
	return out, nil
}
