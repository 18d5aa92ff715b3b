package entity

import "time"

// Equipment 设备台账记录
//
// category_code / item_code 是分类编码：当前版本存放数字ID字符串
// （指向 Category / Subcategory），历史数据仍可能是字母编码对
// （如 "ITC" / "PC"），耐用年数解析会兼容两种形态。
type Equipment struct {
	ID               int        `json:"id" gorm:"primaryKey;autoIncrement"`
	ManagementNumber string     `json:"management_number" gorm:"size:32;not null;uniqueIndex"`
	CategoryCode     string     `json:"category_code" gorm:"size:16"`
	ItemCode         string     `json:"item_code" gorm:"size:16"`
	SubcategoryID    *int       `json:"subcategory_id,omitempty"`
	Name             string     `json:"name" gorm:"size:128"`
	ModelNumber      string     `json:"model_number" gorm:"size:64"`
	Manufacturer     string     `json:"manufacturer" gorm:"size:64"`
	Specification    string     `json:"specification"`
	Cost             float64    `json:"cost" gorm:"type:numeric(15,2);default:0"`
	PurchaseDate     *time.Time `json:"purchase_date,omitempty" gorm:"type:date"`
	Quantity         int        `json:"quantity" gorm:"default:1"`
	LocationCode     string     `json:"location_code" gorm:"size:16;index"`
	IsBroken         bool       `json:"is_broken" gorm:"default:false"`
	IsAvailableForLoan bool     `json:"is_available_for_loan" gorm:"default:false"`
	IsDisposed       bool       `json:"is_disposed" gorm:"default:false"`
	UsageDeadline    *time.Time `json:"usage_deadline,omitempty" gorm:"type:date"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (Equipment) TableName() string {
	return "equipment"
}
