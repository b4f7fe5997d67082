package service

import (
	"testing"

	"presensi_backend/internal/config"
	"presensi_backend/pkg/logger"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewStorageService_MinioInitFailureLogsAndFallsBack(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	prev := logger.Log
	logger.Log = zap.New(core)
	defer func() { logger.Log = prev }()

	cfg := &config.Config{}
	cfg.Storage.Type = "minio"
	cfg.Storage.MinioEndpoint = "://not-an-endpoint"
	cfg.Storage.LocalPath = t.TempDir()

	svc := NewStorageService(cfg)

	if _, ok := svc.Provider.(*LocalStorageProvider); !ok {
		t.Fatalf("expected local fallback provider, got %T", svc.Provider)
	}
	if logs.FilterMessage("minio init failed, falling back to local storage").Len() != 1 {
		t.Errorf("fallback not logged; entries: %v", logs.All())
	}
}

func TestNewStorageService_DefaultsToLocal(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.LocalPath = t.TempDir()

	svc := NewStorageService(cfg)
	if _, ok := svc.Provider.(*LocalStorageProvider); !ok {
		t.Fatalf("expected local provider, got %T", svc.Provider)
	}
}
