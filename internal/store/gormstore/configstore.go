package gormstore

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vianovi/Mart-Bank-Project/internal/config"
)

const errorSubjectConfig = "config"

// ConfigRepository persists the singleton configuration document.
type ConfigRepository struct {
	db *gorm.DB
}

// NewConfigRepository returns a repository backed by gorm.DB.
func NewConfigRepository(db *gorm.DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

// Load implements config.Repository.
func (repository *ConfigRepository) Load(ctx context.Context) (config.Document, bool, error) {
	var model SystemConfig
	err := repository.db.WithContext(ctx).Where("config_id = ?", config.ConfigKey).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return config.Document{}, false, nil
	}
	if err != nil {
		return config.Document{}, false, wrapStoreError(errorSubjectConfig, errorCodeLookup, err)
	}
	var categories []string
	if len(model.Categories) > 0 {
		if decodeErr := json.Unmarshal(model.Categories, &categories); decodeErr != nil {
			return config.Document{}, false, wrapStoreError(errorSubjectConfig, errorCodeDecode, decodeErr)
		}
	}
	return config.Document{
		ConfigID:          model.ConfigID,
		StoreName:         model.StoreName,
		Categories:        categories,
		AdminBootstrapped: model.AdminBootstrapped,
		SetupComplete:     model.SetupComplete,
		MaintenanceActive: model.MaintenanceActive,
		MaintenanceUntil:  model.MaintenanceUntil,
	}, true, nil
}

// Save implements config.Repository with an upsert on the fixed key.
func (repository *ConfigRepository) Save(ctx context.Context, document config.Document) error {
	categories := document.Categories
	if categories == nil {
		categories = []string{}
	}
	encoded, err := json.Marshal(categories)
	if err != nil {
		return wrapStoreError(errorSubjectConfig, errorCodeEncode, err)
	}
	model := SystemConfig{
		ConfigID:          config.ConfigKey,
		StoreName:         document.StoreName,
		Categories:        datatypes.JSON(encoded),
		AdminBootstrapped: document.AdminBootstrapped,
		SetupComplete:     document.SetupComplete,
		MaintenanceActive: document.MaintenanceActive,
		MaintenanceUntil:  document.MaintenanceUntil,
	}
	saveErr := repository.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "config_id"}},
			UpdateAll: true,
		}).
		Create(&model).Error
	if saveErr != nil {
		return wrapStoreError(errorSubjectConfig, errorCodeUpdate, saveErr)
	}
	return nil
}
