package repository

import (
	"context"
	"errors"

	"gorm.io/gorm/clause"

	"droscher.com/SipGargoyle/pkg/model"
)

var ErrCategoryInUse = errors.New("category still referenced by drinks")

// CategoryRepository covers the category list with its derived drink
// counts plus the explicit and implicit (barcode flow) creation paths.
type CategoryRepository interface {
	GetCategories(ctx context.Context) ([]*model.Category, error)
	AddCategory(ctx context.Context, name string) (*model.Category, error)
	DeleteCategory(ctx context.Context, categoryID uint) error
}

func (r *Repository) GetCategories(ctx context.Context) ([]*model.Category, error) {
	var categories []*model.Category

	result := r.DB.WithContext(ctx).Table("categories").
		Select("categories.*, count(de.id) as drink_count").
		Joins("LEFT JOIN drink_entries de ON de.category_id = categories.id AND de.deleted_at IS NULL").
		Where("categories.deleted_at IS NULL").
		Group("categories.id").
		Order("categories.name asc").
		Scan(&categories)
	if result.Error != nil {
		return nil, result.Error
	}

	return categories, nil
}

// AddCategory is idempotent: creating an existing name returns the
// stored row, which is what the implicit barcode-driven creation needs.
func (r *Repository) AddCategory(ctx context.Context, name string) (*model.Category, error) {
	category := model.Category{Name: name}
	if result := r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&category); result.Error != nil {
		return nil, result.Error
	}

	if category.ID == 0 {
		if result := r.DB.WithContext(ctx).Where("name = ?", name).First(&category); result.Error != nil {
			return nil, result.Error
		}
	}

	return &category, nil
}

// DeleteCategory refuses to remove a category while any drink still
// references it.
func (r *Repository) DeleteCategory(ctx context.Context, categoryID uint) error {
	var count int64

	result := r.DB.WithContext(ctx).
		Model(&model.DrinkEntry{}).
		Where("category_id = ?", categoryID).
		Count(&count)
	if result.Error != nil {
		return result.Error
	}

	if count > 0 {
		return ErrCategoryInUse
	}

	return r.DB.WithContext(ctx).Delete(&model.Category{}, categoryID).Error
}
