package entity

// EquipmentLifespan 旧版耐用年数规则，按（大类编码, 品目编码）配对检索
type EquipmentLifespan struct {
	ID            int    `json:"id" gorm:"primaryKey;autoIncrement"`
	CategoryCode  string `json:"category_code" gorm:"size:16;index:idx_lifespan_pair"`
	CategoryLabel string `json:"category_label" gorm:"size:64"`
	ItemCode      string `json:"item_code" gorm:"size:16;index:idx_lifespan_pair"`
	ItemLabel     string `json:"item_label" gorm:"size:64"`
	LifespanYears int    `json:"lifespan_years"`
}

func (EquipmentLifespan) TableName() string {
	return "equipment_lifespan"
}

// UsefulLife 新版耐用年数规则，直接按小类ID检索，优先于旧版规则
type UsefulLife struct {
	ID            int  `json:"id" gorm:"primaryKey;autoIncrement"`
	SubcategoryID int  `json:"subcategory_id" gorm:"uniqueIndex"`
	UsefulYears   *int `json:"useful_years"`
}

func (UsefulLife) TableName() string {
	return "useful_life"
}

// NumberSequence 管理编号前缀计数器
//
// 每个前缀（大类编码+年份+"-"）一行，发号时整行加锁递增，
// 取代旧实现的全表扫描取最大值。
type NumberSequence struct {
	Prefix  string `json:"prefix" gorm:"primaryKey;size:16"`
	LastSeq int    `json:"last_seq" gorm:"not null;default:0"`
}

func (NumberSequence) TableName() string {
	return "number_sequence"
}
