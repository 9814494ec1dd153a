package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/tvumtech/lumen/internal/workspace/api"
	"github.com/tvumtech/lumen/internal/workspace/entity"
)

// =============================================================================
// BuilderSession — 配置构建器会话
// 维护选中产品/驱动/配件的工作集，产品集合变化时重算兼容性。
// 合计始终从当前选择重算，不做增量累加。
// =============================================================================

// CompatState 兼容性面板状态
type CompatState int

const (
	// CompatEmpty 没有选中产品，面板为空
	CompatEmpty CompatState = iota
	// CompatReady 兼容性结果就绪
	CompatReady
	// CompatIntegrated 全部产品自带驱动，无可选外接驱动
	CompatIntegrated
	// CompatError 兼容性查询失败
	CompatError
)

// ProductSelection 选中的产品行
type ProductSelection struct {
	Product   entity.Product
	Quantity  int
	UnitPrice float64
}

// DriverSelection 选中的驱动行。Compatible 标记该驱动是否仍在
// 最近一次兼容性结果里；不在时保留选择但标记失配，由用户决定去留。
type DriverSelection struct {
	Driver     entity.Driver
	Quantity   int
	UnitPrice  float64
	Compatible bool
}

// AccessorySelection 选中的配件行
type AccessorySelection struct {
	Accessory  entity.Accessory
	Quantity   int
	UnitPrice  float64
	Compatible bool
}

// Totals 会话合计
type Totals struct {
	ProductTotal   float64
	DriverTotal    float64
	AccessoryTotal float64
	GrandTotal     float64
	TotalWattage   float64
}

// Snapshot 会话状态的只读快照
type Snapshot struct {
	Products    []ProductSelection
	Drivers     []DriverSelection
	Accessories []AccessorySelection
	State       CompatState
	Totals      Totals
}

// BuilderSession 配置构建器会话。方法并发安全。
type BuilderSession struct {
	mu       sync.Mutex
	client   *api.Client
	notifier Notifier
	logger   *zap.Logger

	products    []*ProductSelection
	drivers     map[int64]*DriverSelection
	accessories map[int64]*AccessorySelection

	compatDrivers     map[int64]entity.Driver
	compatAccessories map[int64]entity.Accessory
	state             CompatState

	// seq 兼容性请求序号，丢弃过期响应
	seq atomic.Int64
}

// NewBuilderSession 创建空会话
func NewBuilderSession(client *api.Client, notifier Notifier, logger *zap.Logger) *BuilderSession {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BuilderSession{
		client:            client,
		notifier:          notifier,
		logger:            logger,
		drivers:           make(map[int64]*DriverSelection),
		accessories:       make(map[int64]*AccessorySelection),
		compatDrivers:     make(map[int64]entity.Driver),
		compatAccessories: make(map[int64]entity.Accessory),
		state:             CompatEmpty,
	}
}

// AddProduct 加入产品。重复加入提示并保持原状，不改数量。
func (s *BuilderSession) AddProduct(ctx context.Context, product entity.Product) error {
	s.mu.Lock()
	for _, p := range s.products {
		if p.Product.ProdID == product.ProdID {
			s.mu.Unlock()
			s.notifier.Warning(fmt.Sprintf("%s is already selected", product.OrderCode))
			return nil
		}
	}
	s.products = append(s.products, &ProductSelection{
		Product:   product,
		Quantity:  1,
		UnitPrice: product.BasePrice,
	})
	s.mu.Unlock()

	return s.RecalcCompatibility(ctx)
}

// RemoveProduct 移除产品并重算兼容性
func (s *BuilderSession) RemoveProduct(ctx context.Context, prodID int64) error {
	s.mu.Lock()
	kept := s.products[:0]
	removed := false
	for _, p := range s.products {
		if p.Product.ProdID == prodID {
			removed = true
			continue
		}
		kept = append(kept, p)
	}
	s.products = kept
	s.mu.Unlock()

	if !removed {
		return nil
	}
	return s.RecalcCompatibility(ctx)
}

// UpdateProductQty 更新产品数量并重算兼容性（数量影响负载匹配）。
// 数量输入做钳制：非法或<1取1。
func (s *BuilderSession) UpdateProductQty(ctx context.Context, prodID int64, raw string) error {
	s.mu.Lock()
	found := false
	for _, p := range s.products {
		if p.Product.ProdID == prodID {
			p.Quantity = ClampQuantity(raw)
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		return nil
	}
	return s.RecalcCompatibility(ctx)
}

// UpdateProductPrice 更新产品单价。非法或负数取0。
func (s *BuilderSession) UpdateProductPrice(prodID int64, raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.Product.ProdID == prodID {
			p.UnitPrice = ClampPrice(raw)
			return
		}
	}
}

// RecalcCompatibility 按当前产品集合重算兼容性。
// 空集不发请求直接清空；全部自带驱动时跳过驱动、仍算配件。
// 响应按序号比对，过期响应直接丢弃。
func (s *BuilderSession) RecalcCompatibility(ctx context.Context) error {
	s.mu.Lock()
	ids := make([]int64, 0, len(s.products))
	allIntegrated := len(s.products) > 0
	for _, p := range s.products {
		if p.Product.ProdID <= 0 {
			continue
		}
		ids = append(ids, p.Product.ProdID)
		if !p.Product.HasIntegratedDriver() {
			allIntegrated = false
		}
	}
	s.mu.Unlock()

	token := s.seq.Add(1)

	if len(ids) == 0 {
		s.mu.Lock()
		if token == s.seq.Load() {
			s.applyCompatLocked(nil, nil, CompatEmpty)
		}
		s.mu.Unlock()
		return nil
	}

	result, err := s.client.Compatibility(ctx, ids)
	if err != nil {
		s.mu.Lock()
		if token == s.seq.Load() {
			s.state = CompatError
		}
		s.mu.Unlock()
		s.notifier.Error("failed to load compatible drivers and accessories")
		return fmt.Errorf("compatibility check: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.seq.Load() {
		s.logger.Debug("discarding stale compatibility response", zap.Int64("seq", token))
		return nil
	}

	drivers := result.Drivers
	state := CompatReady
	if allIntegrated {
		drivers = nil
		state = CompatIntegrated
	}
	s.applyCompatLocked(drivers, result.Accessories, state)
	return nil
}

// applyCompatLocked 整体替换兼容集，并给已有选择打失配标记
func (s *BuilderSession) applyCompatLocked(drivers []entity.Driver, accessories []entity.Accessory, state CompatState) {
	s.compatDrivers = make(map[int64]entity.Driver, len(drivers))
	for _, d := range drivers {
		s.compatDrivers[d.ID] = d
	}
	s.compatAccessories = make(map[int64]entity.Accessory, len(accessories))
	for _, a := range accessories {
		s.compatAccessories[a.ID] = a
	}
	s.state = state

	for id, sel := range s.drivers {
		_, ok := s.compatDrivers[id]
		sel.Compatible = ok
	}
	for id, sel := range s.accessories {
		_, ok := s.compatAccessories[id]
		sel.Compatible = ok
	}
}

// ToggleDriver 选中/取消驱动。只允许操作当前兼容集内的驱动；
// 已选中但失配的允许取消。
func (s *BuilderSession) ToggleDriver(driverID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sel, ok := s.drivers[driverID]; ok {
		delete(s.drivers, driverID)
		s.logger.Debug("driver deselected", zap.String("code", sel.Driver.DriverCode))
		return nil
	}
	driver, ok := s.compatDrivers[driverID]
	if !ok {
		return fmt.Errorf("driver %d is not in the compatible set", driverID)
	}
	s.drivers[driverID] = &DriverSelection{
		Driver:     driver,
		Quantity:   1,
		UnitPrice:  driver.BasePrice,
		Compatible: true,
	}
	return nil
}

// ToggleAccessory 选中/取消配件
func (s *BuilderSession) ToggleAccessory(accessoryID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accessories[accessoryID]; ok {
		delete(s.accessories, accessoryID)
		return nil
	}
	accessory, ok := s.compatAccessories[accessoryID]
	if !ok {
		return fmt.Errorf("accessory %d is not in the compatible set", accessoryID)
	}
	s.accessories[accessoryID] = &AccessorySelection{
		Accessory:  accessory,
		Quantity:   1,
		UnitPrice:  accessory.BasePrice,
		Compatible: true,
	}
	return nil
}

// UpdateDriverQty 更新驱动数量
func (s *BuilderSession) UpdateDriverQty(driverID int64, raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sel, ok := s.drivers[driverID]; ok {
		sel.Quantity = ClampQuantity(raw)
	}
}

// UpdateAccessoryQty 更新配件数量
func (s *BuilderSession) UpdateAccessoryQty(accessoryID int64, raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sel, ok := s.accessories[accessoryID]; ok {
		sel.Quantity = ClampQuantity(raw)
	}
}

// Totals 从当前选择重算合计
func (s *BuilderSession) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalsLocked()
}

func (s *BuilderSession) totalsLocked() Totals {
	products := make([]ProductSelection, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, *p)
	}
	drivers := make([]DriverSelection, 0, len(s.drivers))
	for _, d := range s.drivers {
		drivers = append(drivers, *d)
	}
	accessories := make([]AccessorySelection, 0, len(s.accessories))
	for _, a := range s.accessories {
		accessories = append(accessories, *a)
	}
	return SumSelections(products, drivers, accessories)
}

// SumSelections 对任意一组选择做合计，纯函数
func SumSelections(products []ProductSelection, drivers []DriverSelection, accessories []AccessorySelection) Totals {
	var t Totals
	for _, p := range products {
		t.ProductTotal += p.UnitPrice * float64(p.Quantity)
		t.TotalWattage += p.Product.Wattage * float64(p.Quantity)
	}
	for _, d := range drivers {
		t.DriverTotal += d.UnitPrice * float64(d.Quantity)
	}
	for _, a := range accessories {
		t.AccessoryTotal += a.UnitPrice * float64(a.Quantity)
	}
	t.GrandTotal = t.ProductTotal + t.DriverTotal + t.AccessoryTotal
	return t
}

// Snapshot 当前会话快照，切片按稳定顺序排列
func (s *BuilderSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:  s.state,
		Totals: s.totalsLocked(),
	}
	snap.Products = make([]ProductSelection, 0, len(s.products))
	for _, p := range s.products {
		snap.Products = append(snap.Products, *p)
	}
	snap.Drivers = make([]DriverSelection, 0, len(s.drivers))
	for _, d := range s.drivers {
		snap.Drivers = append(snap.Drivers, *d)
	}
	sort.Slice(snap.Drivers, func(i, j int) bool {
		return snap.Drivers[i].Driver.ID < snap.Drivers[j].Driver.ID
	})
	snap.Accessories = make([]AccessorySelection, 0, len(s.accessories))
	for _, a := range s.accessories {
		snap.Accessories = append(snap.Accessories, *a)
	}
	sort.Slice(snap.Accessories, func(i, j int) bool {
		return snap.Accessories[i].Accessory.ID < snap.Accessories[j].Accessory.ID
	})
	return snap
}

// CompatibleDrivers 当前兼容集内的驱动（排序后）
func (s *BuilderSession) CompatibleDrivers() []entity.Driver {
	s.mu.Lock()
	defer s.mu.Unlock()
	drivers := make([]entity.Driver, 0, len(s.compatDrivers))
	for _, d := range s.compatDrivers {
		drivers = append(drivers, d)
	}
	sort.Slice(drivers, func(i, j int) bool { return drivers[i].ID < drivers[j].ID })
	return drivers
}

// CompatibleAccessories 当前兼容集内的配件（排序后）
func (s *BuilderSession) CompatibleAccessories() []entity.Accessory {
	s.mu.Lock()
	defer s.mu.Unlock()
	accessories := make([]entity.Accessory, 0, len(s.compatAccessories))
	for _, a := range s.compatAccessories {
		accessories = append(accessories, a)
	}
	sort.Slice(accessories, func(i, j int) bool { return accessories[i].ID < accessories[j].ID })
	return accessories
}

// Reset 清空会话
func (s *BuilderSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq.Add(1)
	s.products = nil
	s.drivers = make(map[int64]*DriverSelection)
	s.accessories = make(map[int64]*AccessorySelection)
	s.applyCompatLocked(nil, nil, CompatEmpty)
}

// SearchProducts 在主数据中按品牌/订货号/描述做本地模糊匹配
func SearchProducts(products []entity.Product, keyword string) []entity.Product {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return products
	}
	var matched []entity.Product
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Make), keyword) ||
			strings.Contains(strings.ToLower(p.OrderCode), keyword) ||
			strings.Contains(strings.ToLower(p.Description), keyword) {
			matched = append(matched, p)
		}
	}
	return matched
}

// ClampQuantity 数量钳制：解析失败或<1取1
func ClampQuantity(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// ClampPrice 价格钳制：解析失败或负数取0
func ClampPrice(raw string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}
