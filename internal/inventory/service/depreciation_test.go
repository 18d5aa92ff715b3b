package service

import (
	"math"
	"testing"
	"time"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func datePtr(year int, month time.Month, day int) *time.Time {
	d := date(year, month, day)
	return &d
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestAnnualDepreciation(t *testing.T) {
	tests := []struct {
		name     string
		cost     float64
		lifespan int
		want     float64
	}{
		{"normal", 150000, 4, 37500},
		{"zero lifespan never divides", 150000, 0, 0},
		{"negative lifespan", 150000, -3, 0},
		{"zero cost", 0, 5, 0},
		{"one year", 9999.99, 1, 9999.99},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnnualDepreciation(tt.cost, tt.lifespan)
			if !almostEqual(got, tt.want) {
				t.Errorf("AnnualDepreciation(%v, %d) = %v, want %v", tt.cost, tt.lifespan, got, tt.want)
			}
		})
	}
}

func TestWholeYearsBetween(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		to   time.Time
		want int
	}{
		{"exact anniversary", date(2023, 4, 1), date(2024, 4, 1), 1},
		{"one day before anniversary", date(2023, 4, 1), date(2024, 3, 31), 0},
		{"one day after anniversary", date(2022, 7, 15), date(2030, 7, 16), 8},
		{"same day", date(2023, 4, 1), date(2023, 4, 1), 0},
		{"future purchase is negative", date(2025, 1, 1), date(2024, 1, 1), -1},
		{"month earlier same year count", date(2020, 6, 10), date(2024, 5, 10), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WholeYearsBetween(tt.from, tt.to); got != tt.want {
				t.Errorf("WholeYearsBetween(%v, %v) = %d, want %d", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestAccumulatedDepreciation(t *testing.T) {
	purchase := datePtr(2023, 4, 1)

	if got := AccumulatedDepreciation(150000, purchase, 4, date(2024, 4, 1)); !almostEqual(got, 37500) {
		t.Errorf("one elapsed year: got %v, want 37500", got)
	}
	// Elapsed clamps at the useful life: never depreciate past the cost
	if got := AccumulatedDepreciation(150000, purchase, 4, date(2040, 1, 1)); !almostEqual(got, 150000) {
		t.Errorf("clamped at lifespan: got %v, want 150000", got)
	}
	// Future purchase date counts as zero elapsed years
	if got := AccumulatedDepreciation(150000, datePtr(2099, 1, 1), 4, date(2024, 1, 1)); !almostEqual(got, 0) {
		t.Errorf("future purchase: got %v, want 0", got)
	}
	if got := AccumulatedDepreciation(150000, nil, 4, date(2024, 1, 1)); !almostEqual(got, 0) {
		t.Errorf("nil purchase date: got %v, want 0", got)
	}
	if got := AccumulatedDepreciation(150000, purchase, 0, date(2024, 1, 1)); !almostEqual(got, 0) {
		t.Errorf("zero lifespan: got %v, want 0", got)
	}
}

func TestBookValueFloorsAtZero(t *testing.T) {
	purchase := datePtr(2010, 1, 1)
	if got := BookValue(45000, purchase, 8, date(2030, 1, 1)); got != 0 {
		t.Errorf("fully depreciated book value = %v, want 0", got)
	}
}

func TestBookValueMonotonicNonIncreasing(t *testing.T) {
	purchase := datePtr(2020, 3, 1)
	prev := math.Inf(1)
	for year := 2020; year <= 2040; year++ {
		v := BookValue(80000, purchase, 6, date(year, 6, 1))
		if v > prev {
			t.Fatalf("book value increased from %v to %v at year %d", prev, v, year)
		}
		if v < 0 {
			t.Fatalf("book value went negative: %v", v)
		}
		prev = v
	}
}

func TestAccumulatedPlusBookEqualsCost(t *testing.T) {
	purchase := datePtr(2020, 3, 1)
	cost := 123456.78
	for year := 2020; year <= 2026; year++ {
		ref := date(year, 6, 1)
		sum := AccumulatedDepreciation(cost, purchase, 6, ref) + BookValue(cost, purchase, 6, ref)
		if !almostEqual(sum, cost) {
			t.Errorf("accumulated + book = %v at %v, want %v", sum, ref, cost)
		}
	}
}

func TestValuateOngoingDepreciation(t *testing.T) {
	// cost=150000, purchase=2023-04-01, lifespan=4, reference=2024-04-01
	v := Valuate(150000, datePtr(2023, 4, 1), 4, date(2024, 4, 1))
	if v.ElapsedYears != 1 {
		t.Errorf("elapsed = %d, want 1", v.ElapsedYears)
	}
	if !almostEqual(v.AnnualDepreciation, 37500) {
		t.Errorf("annual = %v, want 37500", v.AnnualDepreciation)
	}
	if !almostEqual(v.BookValue, 112500) {
		t.Errorf("book = %v, want 112500", v.BookValue)
	}
	if v.Status != "37500.00" {
		t.Errorf("status = %q, want %q", v.Status, "37500.00")
	}
}

func TestValuateCompleted(t *testing.T) {
	// cost=45000, purchase=2022-07-15, lifespan=8, reference=2030-07-16
	v := Valuate(45000, datePtr(2022, 7, 15), 8, date(2030, 7, 16))
	if v.Status != DepreciationStatusCompleted {
		t.Errorf("status = %q, want completed", v.Status)
	}
	if v.ElapsedYears != 8 {
		t.Errorf("elapsed = %d, want 8 (clamped)", v.ElapsedYears)
	}
	if v.AnnualDepreciation != 0 {
		t.Errorf("annual = %v, want 0", v.AnnualDepreciation)
	}
	if v.BookValue != 0 {
		t.Errorf("book = %v, want 0", v.BookValue)
	}
}

func TestValuateUnknown(t *testing.T) {
	// Missing purchase date: asset keeps its full nominal value
	v := Valuate(10000, nil, 5, date(2024, 1, 1))
	if v.Status != DepreciationStatusUnknown {
		t.Errorf("status = %q, want unknown marker", v.Status)
	}
	if !almostEqual(v.BookValue, 10000) {
		t.Errorf("book = %v, want 10000", v.BookValue)
	}
	if v.AnnualDepreciation != 0 {
		t.Errorf("annual = %v, want 0", v.AnnualDepreciation)
	}

	// Zero lifespan behaves the same
	v = Valuate(10000, datePtr(2020, 1, 1), 0, date(2024, 1, 1))
	if v.Status != DepreciationStatusUnknown {
		t.Errorf("zero lifespan status = %q, want unknown marker", v.Status)
	}
	if !almostEqual(v.BookValue, 10000) {
		t.Errorf("zero lifespan book = %v, want 10000", v.BookValue)
	}
}

func TestValuateFuturePurchase(t *testing.T) {
	v := Valuate(20000, datePtr(2099, 1, 1), 5, date(2024, 1, 1))
	if v.ElapsedYears != 0 {
		t.Errorf("elapsed = %d, want 0", v.ElapsedYears)
	}
	if !almostEqual(v.BookValue, 20000) {
		t.Errorf("book = %v, want 20000", v.BookValue)
	}
}

func TestValuateDeterministic(t *testing.T) {
	ref := date(2025, 2, 10)
	purchase := datePtr(2021, 9, 30)
	first := Valuate(64000, purchase, 8, ref)
	second := Valuate(64000, purchase, 8, ref)
	if first != second {
		t.Errorf("same inputs produced different valuations: %+v vs %+v", first, second)
	}
}
