package entity

import "time"

const (
	// InquiryAreaWise 按区域报价：项目 → 区域 → 子区域 → 配置
	InquiryAreaWise = "AREA_WISE"
	// InquiryProjectLevel 直接BOQ：条目直接挂在项目下，跳过区域层级
	InquiryProjectLevel = "PROJECT_LEVEL"
)

// Project 项目
type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	ClientName  string    `json:"client_name,omitempty"`
	InquiryType string    `json:"inquiry_type"`
	Areas       []Area    `json:"areas,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// IsDirectBOQ 是否为直接BOQ模式
func (p Project) IsDirectBOQ() bool {
	return p.InquiryType == InquiryProjectLevel
}

// Area 区域
type Area struct {
	ID           int64  `json:"id"`
	Project      int64  `json:"project,omitempty"`
	Name         string `json:"name"`
	AreaCode     string `json:"area_code,omitempty"`
	AreaType     string `json:"area_type,omitempty"`
	SubareaCount int    `json:"subarea_count,omitempty"`
}

// Subarea 子区域（后端附带汇总字段，客户端只读展示）
type Subarea struct {
	ID           int64   `json:"id"`
	Area         int64   `json:"area,omitempty"`
	Name         string  `json:"name"`
	ConfigCount  int     `json:"config_count,omitempty"`
	TotalWattage float64 `json:"total_wattage,omitempty"`
	TotalCost    float64 `json:"total_cost,omitempty"`
}
