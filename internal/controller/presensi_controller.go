package controller

import (
	"errors"
	"net/http"
	"strconv"

	"presensi_backend/internal/service"
	"presensi_backend/internal/util"
	"presensi_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

// PresensiController handles the attendance lifecycle endpoints.
type PresensiController struct {
	PresensiService *service.PresensiService
}

func NewPresensiController(presensiService *service.PresensiService) *PresensiController {
	return &PresensiController{
		PresensiService: presensiService,
	}
}

// UpdatePresensiRequest is the correction payload; every field is optional
// but at least one must be present.
// swagger:model UpdatePresensiRequest
type UpdatePresensiRequest struct {
	CheckIn   *string  `json:"checkIn"`
	CheckOut  *string  `json:"checkOut"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// CheckIn godoc
// @Summary Check in
// @Description Opens a new attendance session for the authenticated user, optionally with coordinates and an evidence photo
// @Tags presensi
// @Accept mpfd
// @Produce json
// @Security ApiKeyAuth
// @Param latitude formData number false "Latitude at check-in"
// @Param longitude formData number false "Longitude at check-in"
// @Param image formData file false "Evidence photo (image, max 5 MiB)"
// @Success 201 {object} util.Response{data=service.PresensiData}
// @Failure 400 {object} util.Response "Already checked in or invalid input"
// @Failure 401 {object} util.Response
// @Failure 500 {object} util.Response
// @Router /api/presensi/check-in [post]
func (c *PresensiController) CheckIn(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx, "Token tidak ditemukan")
		return
	}

	in := service.CheckInInput{}

	if v := ctx.PostForm("latitude"); v != "" {
		lat, err := strconv.ParseFloat(v, 64)
		if err != nil {
			util.BadRequest(ctx, "latitude tidak valid")
			return
		}
		in.Latitude = &lat
	}
	if v := ctx.PostForm("longitude"); v != "" {
		lng, err := strconv.ParseFloat(v, 64)
		if err != nil {
			util.BadRequest(ctx, "longitude tidak valid")
			return
		}
		in.Longitude = &lng
	}

	fileHeader, err := ctx.FormFile("image")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		util.BadRequest(ctx, "file bukti tidak dapat dibaca")
		return
	}
	if fileHeader != nil {
		file, err := fileHeader.Open()
		if err != nil {
			util.LogInternalError(ctx, err)
			return
		}
		defer file.Close()
		in.Photo = file
		in.PhotoSize = fileHeader.Size
	}

	result, err := c.PresensiService.CheckIn(ctx.Request.Context(), actorFromClaims(claims), in)
	if err != nil {
		monitoring.CheckInCounter.WithLabelValues("failure").Inc()
		switch {
		case errors.Is(err, util.ErrAlreadyCheckedIn):
			util.BadRequest(ctx, "Anda sudah melakukan check-in hari ini.")
		case errors.Is(err, util.ErrNotAnImage), errors.Is(err, util.ErrImageTooLarge):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	monitoring.CheckInCounter.WithLabelValues("success").Inc()
	util.CreatedMsg(ctx, result.Message, result.Data)
}

// CheckOut godoc
// @Summary Check out
// @Description Closes the authenticated user's open attendance session
// @Tags presensi
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.PresensiData}
// @Failure 401 {object} util.Response
// @Failure 404 {object} util.Response "No active check-in"
// @Failure 500 {object} util.Response
// @Router /api/presensi/check-out [post]
func (c *PresensiController) CheckOut(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx, "Token tidak ditemukan")
		return
	}

	result, err := c.PresensiService.CheckOut(actorFromClaims(claims))
	if err != nil {
		if errors.Is(err, util.ErrNoActiveCheckIn) {
			util.NotFound(ctx, "Tidak ditemukan catatan check-in yang aktif untuk Anda.")
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.SuccessMsg(ctx, result.Message, result.Data)
}

// DeletePresensi godoc
// @Summary Delete an attendance record
// @Description Deletes a record owned by the authenticated user; the evidence photo is removed best-effort
// @Tags presensi
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Record ID"
// @Success 200 {object} util.Response{data=service.PresensiData}
// @Failure 401 {object} util.Response
// @Failure 403 {object} util.Response "Not the record owner"
// @Failure 404 {object} util.Response
// @Failure 500 {object} util.Response
// @Router /api/presensi/{id} [delete]
func (c *PresensiController) DeletePresensi(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx, "Token tidak ditemukan")
		return
	}

	id := util.ParseUintOrZero(ctx.Param("id"))
	result, err := c.PresensiService.Delete(actorFromClaims(claims), id)
	if err != nil {
		c.mapOwnershipError(ctx, err)
		return
	}

	util.SuccessMsg(ctx, result.Message, result.Data)
}

// UpdatePresensi godoc
// @Summary Correct an attendance record
// @Description Overwrites only the supplied fields of a record owned by the authenticated user
// @Tags presensi
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Record ID"
// @Param body body UpdatePresensiRequest true "Fields to correct"
// @Success 200 {object} util.Response{data=service.PresensiData}
// @Failure 400 {object} util.Response "Empty body or invalid timestamp"
// @Failure 401 {object} util.Response
// @Failure 403 {object} util.Response "Not the record owner"
// @Failure 404 {object} util.Response
// @Failure 500 {object} util.Response
// @Router /api/presensi/{id} [put]
func (c *PresensiController) UpdatePresensi(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx, "Token tidak ditemukan")
		return
	}

	var req UpdatePresensiRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Request body tidak valid")
		return
	}

	id := util.ParseUintOrZero(ctx.Param("id"))
	result, err := c.PresensiService.Update(actorFromClaims(claims), id, service.UpdateInput{
		CheckIn:   req.CheckIn,
		CheckOut:  req.CheckOut,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		switch {
		case errors.Is(err, util.ErrEmptyUpdate), errors.Is(err, util.ErrInvalidTimestamp):
			util.BadRequest(ctx, err.Error())
		default:
			c.mapOwnershipError(ctx, err)
		}
		return
	}

	util.SuccessMsg(ctx, result.Message, result.Data)
}

func (c *PresensiController) mapOwnershipError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrPresensiNotFound):
		util.NotFound(ctx, "Catatan presensi tidak ditemukan.")
	case errors.Is(err, util.ErrNotRecordOwner):
		util.Forbidden(ctx, "Akses ditolak: Anda bukan pemilik catatan ini.")
	default:
		util.LogInternalError(ctx, err)
	}
}

func actorFromClaims(claims *util.Claims) service.Actor {
	return service.Actor{ID: claims.UserID, Nama: claims.Nama}
}
