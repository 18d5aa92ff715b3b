package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/eam/internal/inventory/entity"
	"gorm.io/gorm"
)

// 基础参照数据仓库：大类 / 小类 / 位置。
// 这些表只通过后台维护流程变更，业务侧按只读处理。

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) ListAll(ctx context.Context) ([]entity.Category, error) {
	var items []entity.Category
	err := r.db.WithContext(ctx).Order("id ASC").Find(&items).Error
	return items, err
}

func (r *CategoryRepository) FindByID(ctx context.Context, id int) (*entity.Category, error) {
	var c entity.Category
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

type SubcategoryRepository struct {
	db *gorm.DB
}

func NewSubcategoryRepository(db *gorm.DB) *SubcategoryRepository {
	return &SubcategoryRepository{db: db}
}

func (r *SubcategoryRepository) ListAll(ctx context.Context) ([]entity.Subcategory, error) {
	var items []entity.Subcategory
	err := r.db.WithContext(ctx).Order("id ASC").Find(&items).Error
	return items, err
}

func (r *SubcategoryRepository) ListByCategoryID(ctx context.Context, categoryID int) ([]entity.Subcategory, error) {
	var items []entity.Subcategory
	err := r.db.WithContext(ctx).
		Where("category_id = ?", categoryID).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

type LocationRepository struct {
	db *gorm.DB
}

func NewLocationRepository(db *gorm.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

func (r *LocationRepository) ListAll(ctx context.Context) ([]entity.Location, error) {
	var items []entity.Location
	err := r.db.WithContext(ctx).Order("code ASC").Find(&items).Error
	return items, err
}

func (r *LocationRepository) FindByCode(ctx context.Context, code string) (*entity.Location, error) {
	var loc entity.Location
	err := r.db.WithContext(ctx).First(&loc, "code = ?", code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &loc, nil
}
