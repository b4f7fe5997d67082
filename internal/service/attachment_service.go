package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"presensi_backend/internal/config"
	"presensi_backend/internal/util"
	"presensi_backend/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AttachmentService implements the staged-attachment protocol for evidence
// photos: Stage writes the file durably before any record references it, and
// Release is the compensating action for every failure branch (and for record
// deletion).
type AttachmentService struct {
	Storage  *StorageService
	MaxBytes int64
}

func NewAttachmentService(storage *StorageService, cfg *config.Config) *AttachmentService {
	return &AttachmentService{
		Storage:  storage,
		MaxBytes: cfg.Presensi.MaxPhotoMB << 20,
	}
}

// Stage validates and stores an uploaded photo, returning its path relative
// to the public static root (e.g. "uploads/presensi/12_<uuid>.jpg"). Nothing
// is retained when validation fails.
func (s *AttachmentService) Stage(ctx context.Context, ownerID uint, reader io.Reader, size int64) (string, error) {
	if size > s.MaxBytes {
		return "", util.ErrImageTooLarge
	}

	mimeType, replay, err := util.SniffMimeType(reader)
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrStorage, err)
	}
	if !util.IsImage(mimeType) {
		return "", util.ErrNotAnImage
	}

	filename := fmt.Sprintf("presensi/%d_%s%s", ownerID, uuid.New().String(), util.ImageExtension(mimeType))

	url, err := s.Storage.Upload(ctx, filename, replay, size, mimeType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrStorage, err)
	}

	return strings.TrimPrefix(url, "/"), nil
}

// Release deletes a staged or committed photo. It is idempotent and
// best-effort: a missing file is fine and I/O failures are logged, never
// returned.
func (s *AttachmentService) Release(path string) {
	if path == "" {
		return
	}

	// strip the public prefix ("uploads" or the bucket name) added by Stage
	filename := path
	if parts := strings.SplitN(path, "/", 2); len(parts) == 2 {
		filename = parts[1]
	}

	if err := s.Storage.Delete(context.Background(), filename); err != nil {
		logger.Log.Warn("failed to release attachment",
			zap.String("path", path),
			zap.Error(err),
		)
	}
}
