package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"droscher.com/SipGargoyle/pkg/model"
)

var ErrDrinkNotFound = errors.New("drink not found")

// DrinkRepository is the event store contract the servers consume: range
// queries by date, equality lookups, and the post-hoc patches the data
// model allows.
type DrinkRepository interface {
	AddDrink(ctx context.Context, entry model.DrinkEntry) (*model.DrinkEntry, error)
	GetDrinkByUUID(ctx context.Context, id uuid.UUID) (*model.DrinkEntry, error)
	GetDrinksInRange(ctx context.Context, start time.Time, end time.Time) ([]model.DrinkEntry, error)
	GetAllDrinks(ctx context.Context) ([]model.DrinkEntry, error)
	UpdateDrink(ctx context.Context, entry *model.DrinkEntry) (*model.DrinkEntry, error)
	UpdateDrinkAddress(ctx context.Context, id uuid.UUID, address string) error
	DeleteDrink(ctx context.Context, id uuid.UUID) error
}

func (r *Repository) AddDrink(ctx context.Context, entry model.DrinkEntry) (*model.DrinkEntry, error) {
	if entry.UUID == uuid.Nil {
		entry.UUID = uuid.New()
	}

	if result := r.DB.WithContext(ctx).Create(&entry); result.Error != nil {
		return nil, result.Error
	}

	return &entry, nil
}

func (r *Repository) GetDrinkByUUID(ctx context.Context, id uuid.UUID) (*model.DrinkEntry, error) {
	var entry model.DrinkEntry

	result := r.DB.WithContext(ctx).
		Joins("Category").
		Where("drink_entries.uuid = ?", id).
		First(&entry)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrDrinkNotFound
		}

		return nil, result.Error
	}

	return &entry, nil
}

func (r *Repository) GetDrinksInRange(ctx context.Context, start time.Time, end time.Time) ([]model.DrinkEntry, error) {
	var entries []model.DrinkEntry

	// ISO dates order lexicographically, so BETWEEN on the stored
	// strings is a correct date-range query.
	result := r.DB.WithContext(ctx).
		Joins("Category").
		Where("drink_entries.date BETWEEN ? AND ?", start.Format(model.DateLayout), end.Format(model.DateLayout)).
		Order("drink_entries.date, drink_entries.time").
		Find(&entries)
	if result.Error != nil {
		r.Logger.Error("error getting drinks in range",
			zap.Time("start", start), zap.Time("end", end), zap.Error(result.Error))

		return nil, result.Error
	}

	return entries, nil
}

func (r *Repository) GetAllDrinks(ctx context.Context) ([]model.DrinkEntry, error) {
	var entries []model.DrinkEntry

	result := r.DB.WithContext(ctx).
		Joins("Category").
		Order("drink_entries.date, drink_entries.time").
		Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}

	return entries, nil
}

func (r *Repository) UpdateDrink(ctx context.Context, entry *model.DrinkEntry) (*model.DrinkEntry, error) {
	if result := r.DB.WithContext(ctx).Save(entry); result.Error != nil {
		return nil, result.Error
	}

	return entry, nil
}

// UpdateDrinkAddress patches only the address column, the one field the
// asynchronous geocoding enrichment is allowed to touch.
func (r *Repository) UpdateDrinkAddress(ctx context.Context, id uuid.UUID, address string) error {
	result := r.DB.WithContext(ctx).
		Model(&model.DrinkEntry{}).
		Where("uuid = ?", id).
		Update("address", address)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrDrinkNotFound
	}

	return nil
}

func (r *Repository) DeleteDrink(ctx context.Context, id uuid.UUID) error {
	result := r.DB.WithContext(ctx).Where("uuid = ?", id).Delete(&model.DrinkEntry{})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrDrinkNotFound
	}

	return nil
}
