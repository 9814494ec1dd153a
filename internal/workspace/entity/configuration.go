package entity

// Configuration 灯光配置：一个产品 + 可选一个驱动 + 零或多个配件，
// 挂在某个区域/子区域下。*_detail 字段是后端只读展开，写入时忽略。
type Configuration struct {
	ID            int64                    `json:"id"`
	Area          int64                    `json:"area"`
	Subarea       int64                    `json:"subarea,omitempty"`
	Product       int64                    `json:"product"`
	Quantity      int                      `json:"quantity"`
	ProductDetail *Product                 `json:"product_detail,omitempty"`
	Driver        *ConfigurationDriver     `json:"driver,omitempty"`
	Accessories   []ConfigurationAccessory `json:"accessories,omitempty"`
}

// ConfigurationDriver 配置-驱动关联记录（数量独立于产品数量）
type ConfigurationDriver struct {
	ID            int64   `json:"id"`
	Configuration int64   `json:"configuration"`
	Driver        int64   `json:"driver"`
	Quantity      int     `json:"quantity"`
	DriverDetail  *Driver `json:"driver_detail,omitempty"`
}

// ConfigurationAccessory 配置-配件关联记录
type ConfigurationAccessory struct {
	ID              int64      `json:"id"`
	Configuration   int64      `json:"configuration"`
	Accessory       int64      `json:"accessory"`
	Quantity        int        `json:"quantity"`
	AccessoryDetail *Accessory `json:"accessory_detail,omitempty"`
}

// CompatibilityResult 兼容性接口返回：对当前产品组合有效的驱动/配件全集。
// 每次整体替换，绝不与旧结果合并。
type CompatibilityResult struct {
	Drivers     []Driver    `json:"drivers"`
	Accessories []Accessory `json:"accessories"`
}
