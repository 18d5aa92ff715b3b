package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/eam/internal/inventory/entity"
	"gorm.io/gorm"
)

type EquipmentRepository struct {
	db *gorm.DB
}

func NewEquipmentRepository(db *gorm.DB) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

func (r *EquipmentRepository) Create(ctx context.Context, eq *entity.Equipment) error {
	err := r.db.WithContext(ctx).Create(eq).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateNumber
	}
	return err
}

func (r *EquipmentRepository) FindByID(ctx context.Context, id int) (*entity.Equipment, error) {
	var eq entity.Equipment
	err := r.db.WithContext(ctx).First(&eq, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &eq, nil
}

func (r *EquipmentRepository) ListAll(ctx context.Context) ([]entity.Equipment, error) {
	var items []entity.Equipment
	err := r.db.WithContext(ctx).Order("id ASC").Find(&items).Error
	return items, err
}

// ListPaged 分页列表，返回当前页与总条数
func (r *EquipmentRepository) ListPaged(ctx context.Context, page, pageSize int) ([]entity.Equipment, int64, error) {
	var items []entity.Equipment
	var total int64
	if err := r.db.WithContext(ctx).Model(&entity.Equipment{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.WithContext(ctx).
		Order("id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&items).Error
	return items, total, err
}

func (r *EquipmentRepository) FindByLocationCode(ctx context.Context, code string) ([]entity.Equipment, error) {
	var items []entity.Equipment
	err := r.db.WithContext(ctx).
		Where("location_code = ?", code).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

func (r *EquipmentRepository) FindByNameContains(ctx context.Context, name string) ([]entity.Equipment, error) {
	var items []entity.Equipment
	err := r.db.WithContext(ctx).
		Where("name ILIKE ?", "%"+name+"%").
		Order("id ASC").
		Find(&items).Error
	return items, err
}

func (r *EquipmentRepository) FindByLocationAndNameContains(ctx context.Context, code, name string) ([]entity.Equipment, error) {
	var items []entity.Equipment
	err := r.db.WithContext(ctx).
		Where("location_code = ? AND name ILIKE ?", code, "%"+name+"%").
		Order("id ASC").
		Find(&items).Error
	return items, err
}

func (r *EquipmentRepository) Update(ctx context.Context, eq *entity.Equipment) error {
	err := r.db.WithContext(ctx).Save(eq).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateNumber
	}
	return err
}

func (r *EquipmentRepository) DeleteByID(ctx context.Context, id int) error {
	return r.db.WithContext(ctx).Delete(&entity.Equipment{}, "id = ?", id).Error
}

func (r *EquipmentRepository) DeleteByIDs(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Delete(&entity.Equipment{}, "id IN ?", ids).Error
}

func (r *EquipmentRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.Equipment{}).Count(&total).Error
	return total, err
}
