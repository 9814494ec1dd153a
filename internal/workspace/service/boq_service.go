package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/tvumtech/lumen/internal/workspace/api"
	"github.com/tvumtech/lumen/internal/workspace/entity"
)

// =============================================================================
// BOQService — 报价单生命周期
// 版本生成 → 草稿期改价/加点 → 锁定（终态）→ 导出。
// 改价与加点后都重拉服务端数据，final_price 绝不本地推算回写。
// =============================================================================

var (
	// ErrBOQLocked 锁定后的BOQ拒绝任何变更
	ErrBOQLocked = errors.New("BOQ is locked and cannot be modified")
	// ErrApproveDeclined 用户取消了锁定确认
	ErrApproveDeclined = errors.New("approval cancelled")
	// ErrExportDraftExcel Excel导出仅对锁定版本开放
	ErrExportDraftExcel = errors.New("excel export is only available for locked BOQs")
	// ErrInvalidMargin 加点比例不得为负，本地拒绝不发请求
	ErrInvalidMargin = errors.New("margin percentage must be at least 0")
)

// UnknownArea 无区域归属行项的分组名
const UnknownArea = "Unknown Area"

// BOQView BOQ版本及其行项的聚合视图。
// ReadOnly 在行项接口返回403时置位：能看版本，不能动。
type BOQView struct {
	BOQ      entity.BOQ
	Items    []entity.BOQItem
	ReadOnly bool
}

// Total 全部行项 final_price 之和（服务端值求和，不重算）
func (v BOQView) Total() float64 {
	var total float64
	for _, item := range v.Items {
		total += item.FinalPrice
	}
	return total
}

// Editable 是否可改价/加点
func (v BOQView) Editable() bool {
	return v.BOQ.IsDraft() && !v.ReadOnly
}

// AreaGroup 按区域分组后的行项
type AreaGroup struct {
	AreaName string
	Items    []entity.BOQItem
	Subtotal float64
}

// BOQService 报价单服务
type BOQService struct {
	client    *api.Client
	notifier  Notifier
	confirmer Confirmer
	logger    *zap.Logger
}

func NewBOQService(client *api.Client, notifier Notifier, confirmer Confirmer, logger *zap.Logger) *BOQService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if confirmer == nil {
		confirmer = AlwaysConfirm{}
	}
	return &BOQService{client: client, notifier: notifier, confirmer: confirmer, logger: logger}
}

// Versions 项目的BOQ版本列表，按版本号降序
func (s *BOQService) Versions(ctx context.Context, projectID int64) ([]entity.BOQ, error) {
	versions, err := s.client.BOQVersions(ctx, projectID)
	if err != nil {
		if api.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list boq versions: %w", err)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].Version > versions[j].Version })
	return versions, nil
}

// Generate 从当前配置生成新版本
func (s *BOQService) Generate(ctx context.Context, projectID int64) (*entity.BOQ, error) {
	boq, err := s.client.GenerateBOQ(ctx, projectID)
	if err != nil {
		s.notifier.Error("failed to generate BOQ")
		return nil, fmt.Errorf("generate boq: %w", err)
	}
	s.notifier.Success(fmt.Sprintf("BOQ version %d generated", boq.Version))
	return boq, nil
}

// Load 加载版本详情与行项
func (s *BOQService) Load(ctx context.Context, boqID int64) (*BOQView, error) {
	boq, err := s.client.BOQDetail(ctx, boqID)
	if err != nil {
		return nil, fmt.Errorf("load boq %d: %w", boqID, err)
	}
	items, err := s.client.BOQItems(ctx, boq.Key())
	if err != nil {
		switch {
		case api.IsNotFound(err):
			return &BOQView{BOQ: *boq}, nil
		case api.IsForbidden(err):
			s.notifier.Warning("you can view this BOQ but not modify it")
			return &BOQView{BOQ: *boq, ReadOnly: true}, nil
		}
		return nil, fmt.Errorf("load boq items: %w", err)
	}
	normalizeItemTypes(items)
	return &BOQView{BOQ: *boq, Items: items}, nil
}

// normalizeItemTypes 旧版生成器写入 PRODUCT 类型，统一归到 LUMINARIA
func normalizeItemTypes(items []entity.BOQItem) {
	for i := range items {
		if items[i].ItemType == entity.ItemTypeProduct {
			items[i].ItemType = entity.ItemTypeLuminaria
		}
	}
}

// OverridePrice 覆盖单行单价（仅草稿）。返回服务端重算后的行项。
func (s *BOQService) OverridePrice(ctx context.Context, view *BOQView, itemID int64, unitPrice float64) (*entity.BOQItem, error) {
	if !view.Editable() {
		s.notifier.Warning("this BOQ is locked")
		return nil, ErrBOQLocked
	}
	if unitPrice < 0 {
		unitPrice = 0
	}
	item, err := s.client.PatchItemPrice(ctx, itemID, unitPrice)
	if err != nil {
		s.notifier.Error("failed to update price")
		return nil, fmt.Errorf("override price for item %d: %w", itemID, err)
	}
	// 用服务端回传的行项替换本地副本
	for i := range view.Items {
		if view.Items[i].ID == item.ID {
			view.Items[i] = *item
			break
		}
	}
	s.notifier.Success("price updated")
	return item, nil
}

// ApplyMargin 对整版应用加点比例（覆盖语义，不与已有加点叠加），
// 然后整体重拉行项刷新视图。
func (s *BOQService) ApplyMargin(ctx context.Context, view *BOQView, markupPct float64) error {
	if !view.Editable() {
		s.notifier.Warning("this BOQ is locked")
		return ErrBOQLocked
	}
	if markupPct < 0 {
		s.notifier.Warning("margin percentage cannot be negative")
		return ErrInvalidMargin
	}
	if err := s.client.ApplyMargin(ctx, view.BOQ.Key(), markupPct); err != nil {
		s.notifier.Error("failed to apply margin")
		return fmt.Errorf("apply margin: %w", err)
	}
	items, err := s.client.BOQItems(ctx, view.BOQ.Key())
	if err != nil {
		return fmt.Errorf("refresh boq items: %w", err)
	}
	normalizeItemTypes(items)
	view.Items = items
	s.notifier.Success(fmt.Sprintf("%.1f%% margin applied", markupPct))
	return nil
}

// Approve 锁定版本。需要用户确认；锁定后不可逆。
func (s *BOQService) Approve(ctx context.Context, view *BOQView) error {
	if !view.Editable() {
		s.notifier.Warning("this BOQ is already locked")
		return ErrBOQLocked
	}
	if !s.confirmer.Confirm(fmt.Sprintf("Lock BOQ version %d? This cannot be undone.", view.BOQ.Version)) {
		return ErrApproveDeclined
	}
	boq, err := s.client.ApproveBOQ(ctx, view.BOQ.Key())
	if err != nil {
		s.notifier.Error("failed to lock BOQ")
		return fmt.Errorf("approve boq: %w", err)
	}
	view.BOQ = *boq
	s.notifier.Success("BOQ locked")
	return nil
}

// ExportURL 导出地址。格式仅限 pdf/excel；PDF任意状态可导，Excel仅锁定版本。
func (s *BOQService) ExportURL(view *BOQView, format string) (string, error) {
	switch format {
	case "pdf":
	case "excel":
		if view.BOQ.IsDraft() {
			s.notifier.Warning("lock the BOQ before exporting to Excel")
			return "", ErrExportDraftExcel
		}
	default:
		return "", fmt.Errorf("unsupported export format %q (use pdf or excel)", format)
	}
	return s.client.ExportURL(view.BOQ.Key(), format), nil
}

// GroupByArea 行项按区域名分组，无归属的归入 Unknown Area。
// 分组按区域名排序，Unknown Area 固定排最后。
func GroupByArea(items []entity.BOQItem) []AreaGroup {
	byName := make(map[string]*AreaGroup)
	for _, item := range items {
		name := item.AreaName
		if name == "" {
			name = UnknownArea
		}
		group, ok := byName[name]
		if !ok {
			group = &AreaGroup{AreaName: name}
			byName[name] = group
		}
		group.Items = append(group.Items, item)
		group.Subtotal += item.FinalPrice
	}

	groups := make([]AreaGroup, 0, len(byName))
	for _, g := range byName {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].AreaName == UnknownArea {
			return false
		}
		if groups[j].AreaName == UnknownArea {
			return true
		}
		return groups[i].AreaName < groups[j].AreaName
	})
	return groups
}

// ProvisionalFinalPrice 改价输入框旁的预估展示值。
// 仅用于即时预览，落库值以服务端回传为准。
func ProvisionalFinalPrice(unitPrice float64, quantity int, markupPct float64) float64 {
	return unitPrice * float64(quantity) * (1 + markupPct/100)
}
