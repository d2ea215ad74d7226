package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"droscher.com/SipGargoyle/pkg/model"
)

// SettingsRepository is the settings provider the BAC estimator's
// callers consume. A missing key is nil, not an error.
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (*string, error)
	SetSetting(ctx context.Context, key string, value string) error
}

func (r *Repository) GetSetting(ctx context.Context, key string) (*string, error) {
	var setting model.Setting

	result := r.DB.WithContext(ctx).Where("key = ?", key).First(&setting)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, result.Error
	}

	return &setting.Value, nil
}

func (r *Repository) SetSetting(ctx context.Context, key string, value string) error {
	setting := model.Setting{Key: key, Value: value}

	result := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(&setting)

	return result.Error
}
