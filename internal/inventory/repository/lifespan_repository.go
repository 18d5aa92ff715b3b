package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/eam/internal/inventory/entity"
	"gorm.io/gorm"
)

// LifespanRepository 旧版耐用年数规则（编码对检索）
type LifespanRepository struct {
	db *gorm.DB
}

func NewLifespanRepository(db *gorm.DB) *LifespanRepository {
	return &LifespanRepository{db: db}
}

func (r *LifespanRepository) FindByCategoryAndItem(ctx context.Context, categoryCode, itemCode string) (*entity.EquipmentLifespan, error) {
	var rule entity.EquipmentLifespan
	err := r.db.WithContext(ctx).
		First(&rule, "category_code = ? AND item_code = ?", categoryCode, itemCode).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rule, nil
}

// UsefulLifeRepository 新版耐用年数规则（小类ID检索）
type UsefulLifeRepository struct {
	db *gorm.DB
}

func NewUsefulLifeRepository(db *gorm.DB) *UsefulLifeRepository {
	return &UsefulLifeRepository{db: db}
}

func (r *UsefulLifeRepository) FindBySubcategoryID(ctx context.Context, subcategoryID int) (*entity.UsefulLife, error) {
	var ul entity.UsefulLife
	err := r.db.WithContext(ctx).First(&ul, "subcategory_id = ?", subcategoryID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ul, nil
}
