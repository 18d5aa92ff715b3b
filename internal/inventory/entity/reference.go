package entity

// Category 设备大类（OFC 办公设备 / ITC IT设备 / FRN 家具...）
type Category struct {
	ID   int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name string `json:"name" gorm:"size:64;not null"`
	Code string `json:"code" gorm:"size:8;not null"`
}

func (Category) TableName() string {
	return "category"
}

// Subcategory 设备小类，挂在大类之下
type Subcategory struct {
	ID         int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name       string `json:"name" gorm:"size:64;not null"`
	CategoryID int    `json:"category_id" gorm:"index"`
}

func (Subcategory) TableName() string {
	return "subcategory"
}

// Location 安放位置，parent_code 表达楼层/场地层级
type Location struct {
	Code       string `json:"code" gorm:"primaryKey;size:16"`
	Name       string `json:"name" gorm:"size:64;not null"`
	ParentCode string `json:"parent_code,omitempty" gorm:"size:16"`
}

func (Location) TableName() string {
	return "location"
}
