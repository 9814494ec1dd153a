package entity

import "time"

const (
	BOQStatusDraft  = "DRAFT"
	BOQStatusLocked = "LOCKED"
)

const (
	ItemTypeLuminaria = "LUMINARIA"
	// ItemTypeProduct 旧版生成器写入的灯具条目类型，语义同 LUMINARIA
	ItemTypeProduct   = "PRODUCT"
	ItemTypeDriver    = "DRIVER"
	ItemTypeAccessory = "ACCESSORY"
)

// BOQ 项目报价单版本快照。每次 generate 产生新版本；
// DRAFT 可改价/加点，锁定后为终态。
type BOQ struct {
	ID                         int64     `json:"id"`
	BOQID                      int64     `json:"boq_id,omitempty"` // detail 接口用 boq_id 回传
	Project                    int64     `json:"project"`
	Version                    int       `json:"version"`
	Status                     string    `json:"status"`
	SourceConfigurationVersion string    `json:"source_configuration_version,omitempty"`
	CreatedAt                  time.Time `json:"created_at"`
}

// IsDraft 是否为草稿（可变更）状态
func (b BOQ) IsDraft() bool {
	return b.Status == BOQStatusDraft
}

// Key detail 接口回传 boq_id，列表接口回传 id，取其一
func (b BOQ) Key() int64 {
	if b.BOQID != 0 {
		return b.BOQID
	}
	return b.ID
}

// BOQItem 报价单行项。final_price 由服务端按
// unit_price × quantity × (1 + markup_pct/100) 计算并做权威舍入，
// 客户端不得自行推导回写。
type BOQItem struct {
	ID               int64             `json:"id"`
	ItemType         string            `json:"item_type"`
	Quantity         int               `json:"quantity"`
	UnitPrice        float64           `json:"unit_price"`
	MasterPrice      float64           `json:"master_price,omitempty"`
	MarkupPct        float64           `json:"markup_pct"`
	FinalPrice       float64           `json:"final_price"`
	AreaName         string            `json:"area_name,omitempty"`
	ProductDetails   *BOQItemProduct   `json:"product_details,omitempty"`
	DriverDetails    *BOQItemDriver    `json:"driver_details,omitempty"`
	AccessoryDetails *BOQItemAccessory `json:"accessory_details,omitempty"`
}

// Reference 行项的展示名称
func (i BOQItem) Reference() string {
	switch {
	case i.ProductDetails != nil:
		if i.ProductDetails.Name != "" {
			return i.ProductDetails.Name
		}
		return i.ProductDetails.OrderCode
	case i.DriverDetails != nil:
		return "Driver: " + i.DriverDetails.DriverCode
	case i.AccessoryDetails != nil:
		return "Accessory: " + i.AccessoryDetails.Name
	}
	return ""
}

// PriceOverridden 单价是否偏离主数据价
func (i BOQItem) PriceOverridden() bool {
	return i.MasterPrice != 0 && i.UnitPrice != i.MasterPrice
}

type BOQItemProduct struct {
	Name        string  `json:"name"`
	OrderCode   string  `json:"order_code"`
	Wattage     float64 `json:"wattage,omitempty"`
	LumenOutput int     `json:"lumen_output,omitempty"`
}

type BOQItemDriver struct {
	Name         string `json:"name,omitempty"`
	DriverCode   string `json:"driver_code"`
	ConstantType string `json:"constant_type,omitempty"`
	Dimmable     string `json:"dimmable,omitempty"`
}

type BOQItemAccessory struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// DirectBOQItem 直接BOQ模式下的扁平条目（项目级，无区域归属）
type DirectBOQItem struct {
	ID              int64      `json:"id"`
	ProjectID       int64      `json:"project_id"`
	ItemType        string     `json:"item_type"`
	MasterID        int64      `json:"master_id"`
	Quantity        int        `json:"quantity"`
	UnitPrice       float64    `json:"unit_price,omitempty"`
	TotalPrice      float64    `json:"total_price,omitempty"`
	ProductDetail   *Product   `json:"product_detail,omitempty"`
	DriverDetail    *Driver    `json:"driver_detail,omitempty"`
	AccessoryDetail *Accessory `json:"accessory_detail,omitempty"`
}
