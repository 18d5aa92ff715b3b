package service

import (
	"github.com/bitfantasy/eam/internal/inventory/repository"
	"github.com/redis/go-redis/v9"
)

// Services 服务集合
type Services struct {
	Depreciation *DepreciationService
	Equipment    *EquipmentService
}

// NewServices 创建服务集合，rdb 可为 nil（不启用参照数据缓存）
func NewServices(repos *repository.Repositories, rdb *redis.Client) *Services {
	depreciation := NewDepreciationService(repos.UsefulLife, repos.Lifespan)
	return &Services{
		Depreciation: depreciation,
		Equipment:    NewEquipmentService(repos, depreciation, rdb),
	}
}
