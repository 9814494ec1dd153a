package entity

// 主数据（Masters）：产品/驱动/配件目录，由后端维护，客户端只读。
// 字段名与后端序列化器保持一致，不做二次映射。

const (
	// DriverIntegrated 产品自带驱动，无需外接
	DriverIntegrated = "INTEGRATED"
	// DriverExternal 需要外接驱动
	DriverExternal = "EXTERNAL"
)

// Product 灯具主数据
// 注意：产品主键是 prod_id，不是通用的 id
type Product struct {
	ProdID            int64   `json:"prod_id"`
	Make              string  `json:"make"`
	OrderCode         string  `json:"order_code"`
	Description       string  `json:"description,omitempty"`
	BasePrice         float64 `json:"base_price"`
	Wattage           float64 `json:"wattage"`
	MountingStyle     string  `json:"mounting_style,omitempty"`
	IPClass           int     `json:"ip_class,omitempty"`
	DiameterMM        int     `json:"diameter_mm,omitempty"`
	DriverIntegration string  `json:"driver_integration"`
}

// HasIntegratedDriver 是否自带驱动
func (p Product) HasIntegratedDriver() bool {
	return p.DriverIntegration == DriverIntegrated
}

// Driver 驱动主数据
type Driver struct {
	ID               int64   `json:"id"`
	DriverMake       string  `json:"driver_make"`
	DriverCode       string  `json:"driver_code"`
	ConstantType     string  `json:"constant_type"` // CC / CV
	MaxWattage       float64 `json:"max_wattage"`
	OutputVoltageMin int     `json:"output_voltage_min,omitempty"`
	OutputVoltageMax int     `json:"output_voltage_max,omitempty"`
	DimmingProtocol  string  `json:"dimming_protocol,omitempty"`
	BasePrice        float64 `json:"base_price"`
}

// Accessory 配件主数据
type Accessory struct {
	ID             int64   `json:"id"`
	AccessoryName  string  `json:"accessory_name"`
	AccessoryType  string  `json:"accessory_type"`
	MountingStyles string  `json:"mounting_styles,omitempty"`
	DiameterMinMM  int     `json:"diameter_min_mm,omitempty"`
	DiameterMaxMM  int     `json:"diameter_max_mm,omitempty"`
	IPClass        int     `json:"ip_class,omitempty"`
	BasePrice      float64 `json:"base_price"`
}
