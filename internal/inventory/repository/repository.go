package repository

import (
	"errors"

	"gorm.io/gorm"
)

// 错误定义
var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateNumber 管理编号唯一索引冲突，调用方可重试创建
	ErrDuplicateNumber = errors.New("duplicate management number")
)

// Repositories 仓库集合
type Repositories struct {
	Equipment   *EquipmentRepository
	Category    *CategoryRepository
	Subcategory *SubcategoryRepository
	Location    *LocationRepository
	Lifespan    *LifespanRepository
	UsefulLife  *UsefulLifeRepository
	Sequence    *SequenceRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Equipment:   NewEquipmentRepository(db),
		Category:    NewCategoryRepository(db),
		Subcategory: NewSubcategoryRepository(db),
		Location:    NewLocationRepository(db),
		Lifespan:    NewLifespanRepository(db),
		UsefulLife:  NewUsefulLifeRepository(db),
		Sequence:    NewSequenceRepository(db),
	}
}
