package service

import (
	"fmt"
	"time"
)

// 折旧状态标记。正常折旧中的设备该字段显示年折旧额（两位小数）。
const (
	DepreciationStatusUnknown   = "-"
	DepreciationStatusCompleted = "completed"
)

// AnnualDepreciation 年折旧额（直线法：取得价额 ÷ 耐用年数）
//
// 耐用年数不足1年时视为无法计算，返回0。
func AnnualDepreciation(cost float64, lifespanYears int) float64 {
	if lifespanYears <= 0 {
		return 0
	}
	return cost / float64(lifespanYears)
}

// WholeYearsBetween 两个日期间的整年数，按年/月/日逐级比较，
// 不是天数除以365的近似值。to 早于 from 时结果为负。
func WholeYearsBetween(from, to time.Time) int {
	years := to.Year() - from.Year()
	if to.Month() < from.Month() || (to.Month() == from.Month() && to.Day() < from.Day()) {
		years--
	}
	return years
}

// AccumulatedDepreciation 截至基准日的累计折旧额
//
// 经过年数限制在 [0, 耐用年数] 区间内：购入日在未来按0年计，
// 超过耐用年数后不再继续折旧。
func AccumulatedDepreciation(cost float64, purchaseDate *time.Time, lifespanYears int, referenceDate time.Time) float64 {
	if lifespanYears <= 0 || purchaseDate == nil {
		return 0
	}
	elapsed := WholeYearsBetween(*purchaseDate, referenceDate)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > lifespanYears {
		elapsed = lifespanYears
	}
	return AnnualDepreciation(cost, lifespanYears) * float64(elapsed)
}

// BookValue 帐面价额（取得价额 - 累计折旧，下限0）
func BookValue(cost float64, purchaseDate *time.Time, lifespanYears int, referenceDate time.Time) float64 {
	v := cost - AccumulatedDepreciation(cost, purchaseDate, lifespanYears, referenceDate)
	if v < 0 {
		return 0
	}
	return v
}

// Valuation 一台设备在基准日的折旧视图
type Valuation struct {
	LifespanYears      int     `json:"lifespan_years"`
	ElapsedYears       int     `json:"elapsed_years"`
	AnnualDepreciation float64 `json:"annual_depreciation"`
	BookValue          float64 `json:"book_value"`
	Status             string  `json:"depreciation_status"`
}

// Valuate 计算设备在基准日的完整折旧视图
//
// 购入日或耐用年数缺失时状态为"-"且帐面价额保持取得价额；
// 未截断的经过年数达到耐用年数即视为折旧完成。
func Valuate(cost float64, purchaseDate *time.Time, lifespanYears int, referenceDate time.Time) Valuation {
	if purchaseDate == nil || lifespanYears <= 0 {
		return Valuation{
			LifespanYears: lifespanYears,
			BookValue:     cost,
			Status:        DepreciationStatusUnknown,
		}
	}

	elapsed := WholeYearsBetween(*purchaseDate, referenceDate)
	if elapsed < 0 {
		elapsed = 0
	}

	if elapsed >= lifespanYears {
		return Valuation{
			LifespanYears: lifespanYears,
			ElapsedYears:  lifespanYears,
			Status:        DepreciationStatusCompleted,
		}
	}

	annual := AnnualDepreciation(cost, lifespanYears)
	return Valuation{
		LifespanYears:      lifespanYears,
		ElapsedYears:       elapsed,
		AnnualDepreciation: annual,
		BookValue:          BookValue(cost, purchaseDate, lifespanYears, referenceDate),
		Status:             fmt.Sprintf("%.2f", annual),
	}
}
