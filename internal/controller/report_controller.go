package controller

import (
	"time"

	"presensi_backend/internal/repository"
	"presensi_backend/internal/service"
	"presensi_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ReportController struct {
	ReportService *service.ReportService
	Loc           *time.Location
}

func NewReportController(reportService *service.ReportService) *ReportController {
	return &ReportController{
		ReportService: reportService,
		Loc:           reportService.Loc,
	}
}

// GetDailyReport godoc
// @Summary Daily attendance report
// @Description Filtered, joined attendance rows for administrative review, most recent check-in first
// @Tags reports
// @Produce json
// @Security ApiKeyAuth
// @Param nama query string false "Case-insensitive substring of the user's display name"
// @Param tanggalMulai query string false "Range start (YYYY-MM-DD or RFC 3339)"
// @Param tanggalSelesai query string false "Range end (YYYY-MM-DD or RFC 3339)"
// @Success 200 {object} util.Response{data=object}
// @Failure 400 {object} util.Response "Invalid date filter"
// @Failure 401 {object} util.Response
// @Failure 403 {object} util.Response "Admin only"
// @Failure 500 {object} util.Response
// @Router /api/reports/daily [get]
func (c *ReportController) GetDailyReport(ctx *gin.Context) {
	nama := ctx.Query("nama")
	mulaiStr := ctx.Query("tanggalMulai")
	selesaiStr := ctx.Query("tanggalSelesai")

	filter := repository.ReportFilter{Nama: nama}

	if mulaiStr != "" {
		t, err := c.parseDate(mulaiStr, false)
		if err != nil {
			util.BadRequest(ctx, "tanggalMulai tidak valid")
			return
		}
		filter.TanggalMulai = &t
	}
	if selesaiStr != "" {
		t, err := c.parseDate(selesaiStr, true)
		if err != nil {
			util.BadRequest(ctx, "tanggalSelesai tidak valid")
			return
		}
		filter.TanggalSelesai = &t
	}

	rows, err := c.ReportService.Daily(filter)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"reportDate": time.Now().In(c.Loc).Format("2006-01-02"),
		"filter": gin.H{
			"nama":           nama,
			"tanggalMulai":   mulaiStr,
			"tanggalSelesai": selesaiStr,
		},
		"data": rows,
	})
}

// parseDate accepts either a bare date or a full RFC 3339 timestamp. A bare
// end-of-range date is widened to the end of that day so the range stays
// inclusive.
func (c *ReportController) parseDate(s string, endOfDay bool) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", s, c.Loc); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
