package repository

import (
	"errors"
	"strings"
	"time"

	"presensi_backend/internal/model"
	"presensi_backend/internal/util"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// ReportFilter narrows the daily report. Nama matches the joined user's
// display name case-insensitively; nil bounds leave that side of the check-in
// range open.
type ReportFilter struct {
	Nama           string
	TanggalMulai   *time.Time
	TanggalSelesai *time.Time
}

// ReportRow is the read-side projection of a presensi record joined with its
// owner, kept separate from the persisted entity. Nama is nil when the owning
// user no longer exists.
type ReportRow struct {
	ID        uint
	UserID    uint
	Nama      *string
	CheckIn   time.Time
	CheckOut  *time.Time
	Latitude  *float64
	Longitude *float64
	BuktiFoto *string
}

type PresensiRepository struct {
	DB *gorm.DB
}

func NewPresensiRepository(db *gorm.DB) *PresensiRepository {
	return &PresensiRepository{DB: db}
}

const mysqlDupEntry = 1062

// CreateOpen inserts a new open session. The unique index on
// (user_id, open_flag) rejects a second open row for the same user; that
// violation surfaces as util.ErrAlreadyCheckedIn, which closes the
// find-then-create race at the store rather than in application code.
func (r *PresensiRepository) CreateOpen(p *model.Presensi) error {
	open := true
	p.OpenFlag = &open
	p.CheckOut = nil

	err := r.DB.Create(p).Error
	if err == nil {
		return nil
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDupEntry {
		return util.ErrAlreadyCheckedIn
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return util.ErrAlreadyCheckedIn
	}
	return err
}

func (r *PresensiRepository) FindOpenByUser(userID uint) (*model.Presensi, error) {
	var p model.Presensi
	err := r.DB.Where("user_id = ? AND check_out IS NULL", userID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PresensiRepository) FindByID(id uint) (*model.Presensi, error) {
	var p model.Presensi
	err := r.DB.First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Close stamps the check-out time and clears the open marker in one update.
func (r *PresensiRepository) Close(p *model.Presensi, at time.Time) error {
	err := r.DB.Model(p).
		Select("check_out", "open_flag").
		Updates(map[string]interface{}{"check_out": at, "open_flag": nil}).Error
	if err != nil {
		return err
	}
	p.CheckOut = &at
	p.OpenFlag = nil
	return nil
}

// UpdateFields overwrites only the given columns; the caller controls the
// open marker through the map (a nil value writes NULL).
func (r *PresensiRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	return r.DB.Model(&model.Presensi{}).Where("id = ?", id).Updates(fields).Error
}

func (r *PresensiRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Presensi{}, id).Error
}

// QueryReport runs the joined, filtered, check-in-descending report query.
// Each call re-executes from scratch; no cursor state is kept.
func (r *PresensiRepository) QueryReport(f ReportFilter) ([]ReportRow, error) {
	q := r.DB.Table("presensi").
		Select("presensi.id, presensi.user_id, users.nama AS nama, presensi.check_in, presensi.check_out, presensi.latitude, presensi.longitude, presensi.bukti_foto").
		Joins("LEFT JOIN users ON users.id = presensi.user_id AND users.deleted_at IS NULL")

	if f.Nama != "" {
		q = q.Where("LOWER(users.nama) LIKE ?", "%"+strings.ToLower(f.Nama)+"%")
	}

	switch {
	case f.TanggalMulai != nil && f.TanggalSelesai != nil:
		q = q.Where("presensi.check_in BETWEEN ? AND ?", *f.TanggalMulai, *f.TanggalSelesai)
	case f.TanggalMulai != nil:
		q = q.Where("presensi.check_in >= ?", *f.TanggalMulai)
	case f.TanggalSelesai != nil:
		q = q.Where("presensi.check_in <= ?", *f.TanggalSelesai)
	}

	var rows []ReportRow
	err := q.Order("presensi.check_in DESC").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
