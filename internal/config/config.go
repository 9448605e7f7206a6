// Package config manages the singleton system configuration document and
// the first-run bootstrap sequence.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vianovi/Mart-Bank-Project/pkg/ledger"
)

// ConfigKey is the fixed document key. Using a constant key guarantees
// repeated boots find the same document instead of creating duplicates.
const ConfigKey = "system_main_config"

// DefaultStoreName is the display name used until an admin changes it.
const DefaultStoreName = "Novi Mart"

// DefaultCategories seeds the category list on first boot.
var DefaultCategories = []string{
	"Snacks",
	"Beverages",
	"Staples",
	"Toiletries",
	"Fresh Produce",
	"Home Electronics",
	"Other",
}

// Document is the singleton system configuration.
type Document struct {
	ConfigID          string
	StoreName         string
	Categories        []string
	AdminBootstrapped bool
	SetupComplete     bool
	MaintenanceActive bool
	MaintenanceUntil  *time.Time
}

// Repository persists the singleton document under the fixed key.
type Repository interface {
	Load(ctx context.Context) (Document, bool, error)
	Save(ctx context.Context, document Document) error
}

// Defaults returns the hard-coded default shape.
func Defaults() Document {
	return Document{
		ConfigID:   ConfigKey,
		StoreName:  DefaultStoreName,
		Categories: append([]string(nil), DefaultCategories...),
	}
}

// mergeDefaults lays persisted fields over the default shape so documents
// written by older builds never surface as missing fields.
func mergeDefaults(persisted Document) Document {
	merged := Defaults()
	if strings.TrimSpace(persisted.StoreName) != "" {
		merged.StoreName = persisted.StoreName
	}
	if persisted.Categories != nil {
		merged.Categories = append([]string(nil), persisted.Categories...)
	}
	merged.AdminBootstrapped = persisted.AdminBootstrapped
	merged.SetupComplete = persisted.SetupComplete
	merged.MaintenanceActive = persisted.MaintenanceActive
	merged.MaintenanceUntil = persisted.MaintenanceUntil
	return merged
}

// Service reads and writes the configuration document.
type Service struct {
	repository Repository
	nowFn      func() time.Time
	logger     *zap.Logger
}

// NewService wires a config Service.
func NewService(repository Repository, now func() time.Time, logger *zap.Logger) (*Service, error) {
	if repository == nil || now == nil {
		return nil, fmt.Errorf("%w: missing config dependency", ledger.ErrInvalidServiceConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repository: repository, nowFn: now, logger: logger}, nil
}

// Load returns the configuration, creating the default document on first
// access and falling back to in-memory defaults when the store is
// unreadable rather than failing the whole program.
func (service *Service) Load(ctx context.Context) Document {
	persisted, found, err := service.repository.Load(ctx)
	if err != nil {
		service.logger.Error("config read failed, using defaults", zap.Error(err))
		return Defaults()
	}
	if !found {
		defaults := Defaults()
		if err := service.repository.Save(ctx, defaults); err != nil {
			service.logger.Error("default config write failed", zap.Error(err))
		} else {
			service.logger.Info("default configuration created", zap.String("config_id", ConfigKey))
		}
		return defaults
	}
	return mergeDefaults(persisted)
}

// Save upserts the document under the fixed key.
func (service *Service) Save(ctx context.Context, document Document) error {
	document.ConfigID = ConfigKey
	return service.repository.Save(ctx, document)
}

// MaintenanceActive reports whether a maintenance window currently blocks
// customers. An expired window is deactivated in place and persisted.
func (service *Service) MaintenanceActive(ctx context.Context) (bool, time.Time) {
	document := service.Load(ctx)
	if !document.MaintenanceActive || document.MaintenanceUntil == nil {
		return false, time.Time{}
	}
	now := service.nowFn()
	if now.After(*document.MaintenanceUntil) {
		document.MaintenanceActive = false
		document.MaintenanceUntil = nil
		if err := service.Save(ctx, document); err != nil {
			service.logger.Error("maintenance auto-deactivation failed", zap.Error(err))
		} else {
			service.logger.Info("maintenance window expired, deactivated")
		}
		return false, time.Time{}
	}
	return true, *document.MaintenanceUntil
}

// StartMaintenance opens a maintenance window for the given duration.
func (service *Service) StartMaintenance(ctx context.Context, duration time.Duration) (time.Time, error) {
	if duration <= 0 {
		return time.Time{}, fmt.Errorf("%w: duration must be positive", ledger.ErrInvalidAmount)
	}
	document := service.Load(ctx)
	until := service.nowFn().Add(duration)
	document.MaintenanceActive = true
	document.MaintenanceUntil = &until
	if err := service.Save(ctx, document); err != nil {
		return time.Time{}, err
	}
	service.logger.Info("maintenance window activated", zap.Time("until", until))
	return until, nil
}

// StopMaintenance closes the maintenance window.
func (service *Service) StopMaintenance(ctx context.Context) error {
	document := service.Load(ctx)
	document.MaintenanceActive = false
	document.MaintenanceUntil = nil
	if err := service.Save(ctx, document); err != nil {
		return err
	}
	service.logger.Info("maintenance window deactivated")
	return nil
}
