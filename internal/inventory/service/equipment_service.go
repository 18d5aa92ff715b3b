package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bitfantasy/eam/internal/inventory/entity"
	"github.com/bitfantasy/eam/internal/inventory/repository"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultCategoryCode 类别无法解析时管理编号使用的兜底编码
	DefaultCategoryCode = "EQ"
	// UnknownLocationLabel 位置编码无法解析时的显示标签
	UnknownLocationLabel = "unknown"

	refDataCacheKey = "eam:refdata"
	refDataCacheTTL = 5 * time.Minute

	dateLayout = "2006-01-02"
)

// ErrUnknownLocation 移动目标位置编码在参照表中不存在
var ErrUnknownLocation = errors.New("unknown location code")

// EquipmentService 设备台账服务
type EquipmentService struct {
	repo            *repository.EquipmentRepository
	categoryRepo    *repository.CategoryRepository
	subcategoryRepo *repository.SubcategoryRepository
	locationRepo    *repository.LocationRepository
	sequenceRepo    *repository.SequenceRepository
	depreciation    *DepreciationService
	rdb             *redis.Client
}

func NewEquipmentService(repos *repository.Repositories, depreciation *DepreciationService, rdb *redis.Client) *EquipmentService {
	return &EquipmentService{
		repo:            repos.Equipment,
		categoryRepo:    repos.Category,
		subcategoryRepo: repos.Subcategory,
		locationRepo:    repos.Location,
		sequenceRepo:    repos.Sequence,
		depreciation:    depreciation,
		rdb:             rdb,
	}
}

// CreateEquipmentInput 新建设备入参
type CreateEquipmentInput struct {
	CategoryCode       string  `json:"category_code"`
	ItemCode           string  `json:"item_code"`
	SubcategoryID      *int    `json:"subcategory_id"`
	Name               string  `json:"name" binding:"required"`
	ModelNumber        string  `json:"model_number"`
	Manufacturer       string  `json:"manufacturer"`
	Specification      string  `json:"specification"`
	Cost               float64 `json:"cost" binding:"gte=0"`
	PurchaseDate       string  `json:"purchase_date"`
	Quantity           int     `json:"quantity"`
	LocationCode       string  `json:"location_code"`
	IsBroken           bool    `json:"is_broken"`
	IsAvailableForLoan bool    `json:"is_available_for_loan"`
	IsDisposed         bool    `json:"is_disposed"`
	UsageDeadline      string  `json:"usage_deadline"`
}

// UpdateEquipmentInput 更新设备入参，nil 字段保持原值。
// 管理编号不在入参中：编号创建时发放一次，之后永不重算。
type UpdateEquipmentInput struct {
	CategoryCode       *string  `json:"category_code"`
	ItemCode           *string  `json:"item_code"`
	SubcategoryID      *int     `json:"subcategory_id"`
	Name               *string  `json:"name"`
	ModelNumber        *string  `json:"model_number"`
	Manufacturer       *string  `json:"manufacturer"`
	Specification      *string  `json:"specification"`
	Cost               *float64 `json:"cost" binding:"omitempty,gte=0"`
	PurchaseDate       *string  `json:"purchase_date"`
	Quantity           *int     `json:"quantity"`
	LocationCode       *string  `json:"location_code"`
	IsBroken           *bool    `json:"is_broken"`
	IsAvailableForLoan *bool    `json:"is_available_for_loan"`
	IsDisposed         *bool    `json:"is_disposed"`
	UsageDeadline      *string  `json:"usage_deadline"`
}

// EquipmentView 设备展示视图：台账字段 + 参照数据标签 + 折旧指标，
// 表现层拿到即可直接渲染，不再包含任何业务计算。
type EquipmentView struct {
	entity.Equipment
	LocationLabel   string `json:"location_label"`
	CategoryName    string `json:"category_name,omitempty"`
	SubcategoryName string `json:"subcategory_name,omitempty"`
	Valuation
}

// referenceSnapshot 参照数据快照，一次列表装配只加载一份
type referenceSnapshot struct {
	Categories    map[int]entity.Category    `json:"categories"`
	Subcategories map[int]entity.Subcategory `json:"subcategories"`
	Locations     map[string]entity.Location `json:"locations"`
}

// ========== 查询 ==========

// List 分页列表
func (s *EquipmentService) List(ctx context.Context, page, pageSize int) ([]EquipmentView, int64, error) {
	items, total, err := s.repo.ListPaged(ctx, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("设备列表查询失败: %w", err)
	}
	views, err := s.toViews(ctx, items, time.Now())
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// Search 条件检索
//
// search_type 取值 location / name / both，缺参时的回退逻辑：
// location 缺位置参数退化为全量；name 缺品名参数返回空集；
// both 按实际给出的参数降级为单条件或全量。
func (s *EquipmentService) Search(ctx context.Context, searchType, location, name string) ([]EquipmentView, error) {
	var (
		items []entity.Equipment
		err   error
	)
	switch searchType {
	case "location":
		if location != "" {
			items, err = s.repo.FindByLocationCode(ctx, location)
		} else {
			items, err = s.repo.ListAll(ctx)
		}
	case "name":
		if name != "" {
			items, err = s.repo.FindByNameContains(ctx, name)
		} else {
			items = []entity.Equipment{}
		}
	case "both":
		switch {
		case location != "" && name != "":
			items, err = s.repo.FindByLocationAndNameContains(ctx, location, name)
		case location != "":
			items, err = s.repo.FindByLocationCode(ctx, location)
		case name != "":
			items, err = s.repo.FindByNameContains(ctx, name)
		default:
			items, err = s.repo.ListAll(ctx)
		}
	default:
		items, err = s.repo.ListAll(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("设备检索失败: %w", err)
	}
	return s.toViews(ctx, items, time.Now())
}

// Get 按ID取单台设备视图，不存在时返回 repository.ErrNotFound
func (s *EquipmentService) Get(ctx context.Context, id int) (*EquipmentView, error) {
	eq, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.toViews(ctx, []entity.Equipment{*eq}, time.Now())
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ========== 写入 ==========

// Create 新建设备并发放管理编号
func (s *EquipmentService) Create(ctx context.Context, input *CreateEquipmentInput) (*EquipmentView, error) {
	purchaseDate, err := parseDate(input.PurchaseDate)
	if err != nil {
		return nil, fmt.Errorf("购入日格式错误: %w", err)
	}
	usageDeadline, err := parseDate(input.UsageDeadline)
	if err != nil {
		return nil, fmt.Errorf("使用期限格式错误: %w", err)
	}

	number, err := s.nextManagementNumber(ctx, input.CategoryCode)
	if err != nil {
		return nil, fmt.Errorf("管理编号发放失败: %w", err)
	}

	quantity := input.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	now := time.Now()
	eq := &entity.Equipment{
		ManagementNumber:   number,
		CategoryCode:       input.CategoryCode,
		ItemCode:           input.ItemCode,
		SubcategoryID:      input.SubcategoryID,
		Name:               input.Name,
		ModelNumber:        input.ModelNumber,
		Manufacturer:       input.Manufacturer,
		Specification:      input.Specification,
		Cost:               input.Cost,
		PurchaseDate:       purchaseDate,
		Quantity:           quantity,
		LocationCode:       input.LocationCode,
		IsBroken:           input.IsBroken,
		IsAvailableForLoan: input.IsAvailableForLoan,
		IsDisposed:         input.IsDisposed,
		UsageDeadline:      usageDeadline,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Create(ctx, eq); err != nil {
		return nil, err
	}
	views, err := s.toViews(ctx, []entity.Equipment{*eq}, now)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Update 更新设备，管理编号与创建时间不变
func (s *EquipmentService) Update(ctx context.Context, id int, input *UpdateEquipmentInput) (*EquipmentView, error) {
	eq, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.CategoryCode != nil {
		eq.CategoryCode = *input.CategoryCode
	}
	if input.ItemCode != nil {
		eq.ItemCode = *input.ItemCode
	}
	if input.SubcategoryID != nil {
		eq.SubcategoryID = input.SubcategoryID
	}
	if input.Name != nil {
		eq.Name = *input.Name
	}
	if input.ModelNumber != nil {
		eq.ModelNumber = *input.ModelNumber
	}
	if input.Manufacturer != nil {
		eq.Manufacturer = *input.Manufacturer
	}
	if input.Specification != nil {
		eq.Specification = *input.Specification
	}
	if input.Cost != nil {
		eq.Cost = *input.Cost
	}
	if input.PurchaseDate != nil {
		purchaseDate, err := parseDate(*input.PurchaseDate)
		if err != nil {
			return nil, fmt.Errorf("购入日格式错误: %w", err)
		}
		eq.PurchaseDate = purchaseDate
	}
	if input.Quantity != nil {
		eq.Quantity = *input.Quantity
	}
	if input.LocationCode != nil {
		eq.LocationCode = *input.LocationCode
	}
	if input.IsBroken != nil {
		eq.IsBroken = *input.IsBroken
	}
	if input.IsAvailableForLoan != nil {
		eq.IsAvailableForLoan = *input.IsAvailableForLoan
	}
	if input.IsDisposed != nil {
		eq.IsDisposed = *input.IsDisposed
	}
	if input.UsageDeadline != nil {
		usageDeadline, err := parseDate(*input.UsageDeadline)
		if err != nil {
			return nil, fmt.Errorf("使用期限格式错误: %w", err)
		}
		eq.UsageDeadline = usageDeadline
	}
	eq.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, eq); err != nil {
		return nil, fmt.Errorf("设备更新失败: %w", err)
	}
	views, err := s.toViews(ctx, []entity.Equipment{*eq}, time.Now())
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// UpdateLocation 移动设备位置。移动目标必须是参照表里登记过的位置，
// 不像新建/更新那样允许自由编码（移动画面的选项来自位置列表）。
func (s *EquipmentService) UpdateLocation(ctx context.Context, id int, locationCode string) error {
	eq, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.locationRepo.FindByCode(ctx, locationCode); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnknownLocation
		}
		return fmt.Errorf("位置校验失败: %w", err)
	}
	eq.LocationCode = locationCode
	eq.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, eq); err != nil {
		return fmt.Errorf("位置更新失败: %w", err)
	}
	return nil
}

func (s *EquipmentService) Delete(ctx context.Context, id int) error {
	return s.repo.DeleteByID(ctx, id)
}

func (s *EquipmentService) DeleteBatch(ctx context.Context, ids []int) error {
	return s.repo.DeleteByIDs(ctx, ids)
}

// ========== 管理编号 ==========

// nextManagementNumber 生成下一个管理编号：<大类编码><年份>-<4位序号>
//
// 序号超过9999后自然变宽，不设上限。
func (s *EquipmentService) nextManagementNumber(ctx context.Context, categoryID string) (string, error) {
	code := s.categoryCodeByID(ctx, categoryID)
	prefix := fmt.Sprintf("%s%d-", code, time.Now().Year())
	seq, err := s.sequenceRepo.Next(ctx, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, seq), nil
}

// categoryCodeByID 按类别ID解析编码，缺失/非数字/不存在时回退 "EQ"
func (s *EquipmentService) categoryCodeByID(ctx context.Context, categoryID string) string {
	if categoryID == "" {
		return DefaultCategoryCode
	}
	id, err := strconv.Atoi(categoryID)
	if err != nil {
		return DefaultCategoryCode
	}
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return DefaultCategoryCode
	}
	return category.Code
}

// ========== 视图装配 ==========

// toViews 批量装配展示视图。同一批数据和同一基准日下结果是确定的，
// 重复调用得到完全相同的输出。
func (s *EquipmentService) toViews(ctx context.Context, items []entity.Equipment, referenceDate time.Time) ([]EquipmentView, error) {
	snap, err := s.loadReferenceSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("参照数据加载失败: %w", err)
	}

	views := make([]EquipmentView, len(items))
	for i := range items {
		views[i] = s.toView(ctx, &items[i], snap, referenceDate)
	}
	return views, nil
}

func (s *EquipmentService) toView(ctx context.Context, eq *entity.Equipment, snap *referenceSnapshot, referenceDate time.Time) EquipmentView {
	view := EquipmentView{
		Equipment:     *eq,
		LocationLabel: s.locationLabel(eq.LocationCode, snap),
	}

	// 分类名称：编码解析失败时静默跳过，列表照常输出
	if eq.CategoryCode != "" {
		if categoryID, err := strconv.Atoi(eq.CategoryCode); err == nil {
			if category, ok := snap.Categories[categoryID]; ok {
				view.CategoryName = category.Name
			}
		}
	}
	if eq.ItemCode != "" {
		if subcategoryID, err := strconv.Atoi(eq.ItemCode); err == nil {
			if subcategory, ok := snap.Subcategories[subcategoryID]; ok {
				view.SubcategoryName = subcategory.Name
			}
		}
	}

	lifespan := s.depreciation.LifespanYears(ctx, eq.CategoryCode, eq.ItemCode)
	view.Valuation = Valuate(eq.Cost, eq.PurchaseDate, lifespan, referenceDate)
	return view
}

func (s *EquipmentService) locationLabel(code string, snap *referenceSnapshot) string {
	if code == "" {
		return UnknownLocationLabel
	}
	if loc, ok := snap.Locations[code]; ok {
		return loc.Name
	}
	return UnknownLocationLabel
}

// loadReferenceSnapshot 加载参照数据快照，优先读redis缓存。
// 参照表只通过后台流程变更，短TTL缓存不需要失效通知；
// 未配置redis或缓存读写失败时直接回落到数据库。
func (s *EquipmentService) loadReferenceSnapshot(ctx context.Context) (*referenceSnapshot, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, refDataCacheKey).Result(); err == nil && cached != "" {
			var snap referenceSnapshot
			if err := json.Unmarshal([]byte(cached), &snap); err == nil {
				return &snap, nil
			}
		}
	}

	categories, err := s.categoryRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	subcategories, err := s.subcategoryRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	locations, err := s.locationRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	snap := &referenceSnapshot{
		Categories:    make(map[int]entity.Category, len(categories)),
		Subcategories: make(map[int]entity.Subcategory, len(subcategories)),
		Locations:     make(map[string]entity.Location, len(locations)),
	}
	for _, c := range categories {
		snap.Categories[c.ID] = c
	}
	for _, sc := range subcategories {
		snap.Subcategories[sc.ID] = sc
	}
	for _, loc := range locations {
		snap.Locations[loc.Code] = loc
	}

	if s.rdb != nil {
		if data, err := json.Marshal(snap); err == nil {
			s.rdb.Set(ctx, refDataCacheKey, data, refDataCacheTTL)
		}
	}
	return snap, nil
}

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
