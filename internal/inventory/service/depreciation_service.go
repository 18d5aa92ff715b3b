package service

import (
	"context"
	"strconv"

	"github.com/bitfantasy/eam/internal/inventory/repository"
)

// lifespanResolver 单级耐用年数解析，未命中时 ok 为 false
type lifespanResolver func(ctx context.Context, categoryCode, itemCode string) (years int, ok bool)

// DepreciationService 耐用年数解析 + 折旧计算
//
// 分类体系从（大类编码, 品目编码）对演进到了小类ID引用，两套规则表
// 并存且都有存量数据。解析器按声明顺序逐级尝试，先命中先返回；
// 两级都未命中返回0，由折旧计算的兜底路径消化。
type DepreciationService struct {
	resolvers []lifespanResolver
}

func NewDepreciationService(usefulLifeRepo *repository.UsefulLifeRepository, lifespanRepo *repository.LifespanRepository) *DepreciationService {
	s := &DepreciationService{}
	s.resolvers = []lifespanResolver{
		s.bySubcategoryID(usefulLifeRepo),
		s.byCodePair(lifespanRepo),
	}
	return s
}

// LifespanYears 解析设备的耐用年数，未知时返回0
func (s *DepreciationService) LifespanYears(ctx context.Context, categoryCode, itemCode string) int {
	for _, resolve := range s.resolvers {
		if years, ok := resolve(ctx, categoryCode, itemCode); ok {
			return years
		}
	}
	return 0
}

// bySubcategoryID 第一级：品目编码是数字时按小类ID查新版规则表
func (s *DepreciationService) bySubcategoryID(repo *repository.UsefulLifeRepository) lifespanResolver {
	return func(ctx context.Context, _, itemCode string) (int, bool) {
		if itemCode == "" {
			return 0, false
		}
		subcategoryID, err := strconv.Atoi(itemCode)
		if err != nil {
			// 非数字编码属于旧版数据，交给下一级
			return 0, false
		}
		ul, err := repo.FindBySubcategoryID(ctx, subcategoryID)
		if err != nil || ul.UsefulYears == nil {
			return 0, false
		}
		return *ul.UsefulYears, true
	}
}

// byCodePair 第二级：按（大类编码, 品目编码）查旧版规则表
func (s *DepreciationService) byCodePair(repo *repository.LifespanRepository) lifespanResolver {
	return func(ctx context.Context, categoryCode, itemCode string) (int, bool) {
		rule, err := repo.FindByCategoryAndItem(ctx, categoryCode, itemCode)
		if err != nil {
			return 0, false
		}
		return rule.LifespanYears, true
	}
}
