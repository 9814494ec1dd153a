package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tvumtech/lumen/internal/workspace/api"
	"github.com/tvumtech/lumen/internal/workspace/entity"
)

// =============================================================================
// SaveService — 配置持久化
// 批量保存走 save_batch 一次提交；表单编辑保存按
// 配置 → 驱动 → 配件 顺序逐步提交，失败即停，不回滚已提交步骤。
// =============================================================================

// ErrNoProducts 保存前至少要选中一个产品
var ErrNoProducts = errors.New("select at least one product before saving")

// WorkspaceMode 工作区模式，由项目 inquiry_type 决定
type WorkspaceMode int

const (
	// ModeAreaWise 区域模式：配置挂在子区域下
	ModeAreaWise WorkspaceMode = iota
	// ModeDirectBOQ 直接BOQ模式：条目直接挂在项目下
	ModeDirectBOQ
)

// ModeFor 项目对应的工作区模式
func ModeFor(project entity.Project) WorkspaceMode {
	if project.IsDirectBOQ() {
		return ModeDirectBOQ
	}
	return ModeAreaWise
}

// SaveService 配置保存服务
type SaveService struct {
	client   *api.Client
	notifier Notifier
	logger   *zap.Logger
}

func NewSaveService(client *api.Client, notifier Notifier, logger *zap.Logger) *SaveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaveService{client: client, notifier: notifier, logger: logger}
}

// SaveSession 把构建器会话整体保存到区域（save_batch 路径）。
// 产品带生效单价（用户覆盖过的价随行提交），驱动/配件全量带出。
func (s *SaveService) SaveSession(ctx context.Context, session *BuilderSession, areaID int64) (*api.SaveBatchResult, error) {
	snap := session.Snapshot()
	if len(snap.Products) == 0 {
		s.notifier.Warning("select at least one product before saving")
		return nil, ErrNoProducts
	}

	req := api.SaveBatchRequest{
		AreaID:   areaID,
		Products: make([]api.BatchProduct, 0, len(snap.Products)),
	}
	for _, p := range snap.Products {
		req.Products = append(req.Products, api.BatchProduct{
			ProductID: p.Product.ProdID,
			Quantity:  p.Quantity,
			BasePrice: p.UnitPrice,
		})
	}
	for _, d := range snap.Drivers {
		req.Drivers = append(req.Drivers, api.BatchDriver{
			DriverID: d.Driver.ID,
			Quantity: d.Quantity,
		})
	}
	for _, a := range snap.Accessories {
		req.Accessories = append(req.Accessories, api.BatchAccessory{
			AccessoryID: a.Accessory.ID,
			Quantity:    a.Quantity,
		})
	}

	result, err := s.client.SaveBatch(ctx, req)
	if err != nil {
		s.notifier.Error("failed to save configurations")
		return nil, fmt.Errorf("save batch: %w", err)
	}
	s.notifier.Success("configurations saved")
	return result, nil
}

// ConfigurationForm 单条配置的编辑表单。
// OriginalAccessoryIDs 记录加载时已存在的配件关联，保存时据此算删除差集。
type ConfigurationForm struct {
	ConfigurationID int64
	Area            int64
	Subarea         int64
	Product         int64
	Quantity        int

	Driver         *entity.ConfigurationDriver // nil 表示未选驱动
	OriginalDriver *entity.ConfigurationDriver // 加载时的驱动记录

	Accessories         []entity.ConfigurationAccessory
	OriginalAccessories []entity.ConfigurationAccessory // 加载时已存在的关联记录
}

// SaveReport 逐步保存的结果。失败时 Err 非空，
// 已提交的步骤保持已提交状态（无回滚），报告如实反映进度。
type SaveReport struct {
	Configuration     *entity.Configuration
	DriverSaved       bool
	AccessoriesSaved  int
	AccessoriesRemove int
	Err               error
}

// Committed 是否有任何步骤已落库
func (r SaveReport) Committed() bool {
	return r.Configuration != nil
}

// SaveForm 保存编辑表单。顺序：配置主体 → 驱动 → 配件（含删除差集）。
// 任一步失败立即停止并返回报告；之前的步骤不回滚。
func (s *SaveService) SaveForm(ctx context.Context, form ConfigurationForm) SaveReport {
	var report SaveReport

	if form.Product == 0 {
		report.Err = ErrNoProducts
		s.notifier.Warning("select a product before saving")
		return report
	}
	if form.Quantity < 1 {
		form.Quantity = 1
	}

	config := entity.Configuration{
		ID:       form.ConfigurationID,
		Area:     form.Area,
		Subarea:  form.Subarea,
		Product:  form.Product,
		Quantity: form.Quantity,
	}

	var saved *entity.Configuration
	var err error
	if config.ID == 0 {
		saved, err = s.client.CreateConfiguration(ctx, config)
	} else {
		saved, err = s.client.UpdateConfiguration(ctx, config)
	}
	if err != nil {
		report.Err = fmt.Errorf("save configuration: %w", err)
		s.notifier.Error("failed to save configuration")
		return report
	}
	report.Configuration = saved

	if err := s.saveDriver(ctx, saved.ID, form, &report); err != nil {
		report.Err = err
		s.notifier.Error("configuration saved, but driver update failed")
		return report
	}

	if err := s.saveAccessories(ctx, saved.ID, form, &report); err != nil {
		report.Err = err
		s.notifier.Error("configuration saved, but accessory update failed")
		return report
	}

	s.notifier.Success("configuration saved")
	return report
}

func (s *SaveService) saveDriver(ctx context.Context, configID int64, form ConfigurationForm, report *SaveReport) error {
	switch {
	case form.Driver == nil && form.OriginalDriver != nil:
		// 取消驱动：删除原记录
		if err := s.client.DeleteConfigDriver(ctx, form.OriginalDriver.ID); err != nil {
			return fmt.Errorf("remove driver: %w", err)
		}
		report.DriverSaved = true
	case form.Driver != nil:
		cd := *form.Driver
		cd.Configuration = configID
		if cd.Quantity < 1 {
			cd.Quantity = 1
		}
		var err error
		if form.OriginalDriver != nil && form.OriginalDriver.Driver == cd.Driver {
			cd.ID = form.OriginalDriver.ID
			_, err = s.client.UpdateConfigDriver(ctx, cd)
		} else {
			if form.OriginalDriver != nil {
				// 换驱动：先删旧再建新
				if err := s.client.DeleteConfigDriver(ctx, form.OriginalDriver.ID); err != nil {
					return fmt.Errorf("replace driver: %w", err)
				}
			}
			cd.ID = 0
			_, err = s.client.CreateConfigDriver(ctx, cd)
		}
		if err != nil {
			return fmt.Errorf("save driver: %w", err)
		}
		report.DriverSaved = true
	}
	return nil
}

func (s *SaveService) saveAccessories(ctx context.Context, configID int64, form ConfigurationForm, report *SaveReport) error {
	current := make(map[int64]bool, len(form.Accessories))
	for _, a := range form.Accessories {
		ca := a
		ca.Configuration = configID
		if ca.Quantity < 1 {
			ca.Quantity = 1
		}
		current[ca.Accessory] = true

		var err error
		if ca.ID != 0 {
			_, err = s.client.UpdateConfigAccessory(ctx, ca)
		} else {
			_, err = s.client.CreateConfigAccessory(ctx, ca)
		}
		if err != nil {
			return fmt.Errorf("save accessory %d: %w", ca.Accessory, err)
		}
		report.AccessoriesSaved++
	}

	// 删除差集：原有但本次未保留的关联
	for _, orig := range form.OriginalAccessories {
		if current[orig.Accessory] {
			continue
		}
		if err := s.client.DeleteConfigAccessory(ctx, orig.ID); err != nil {
			return fmt.Errorf("remove accessory %d: %w", orig.Accessory, err)
		}
		report.AccessoriesRemove++
	}
	return nil
}

// AddDirectItem 直接BOQ模式下新增条目
func (s *SaveService) AddDirectItem(ctx context.Context, item entity.DirectBOQItem) (*entity.DirectBOQItem, error) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	created, err := s.client.CreateDirectItem(ctx, item)
	if err != nil {
		s.notifier.Error("failed to add item")
		return nil, fmt.Errorf("add direct item: %w", err)
	}
	s.notifier.Success("item added")
	return created, nil
}

// ListDirectItems 直接BOQ清单。404按空清单处理（项目还没有条目）。
func (s *SaveService) ListDirectItems(ctx context.Context, projectID int64) ([]entity.DirectBOQItem, error) {
	items, err := s.client.ListDirectItems(ctx, projectID)
	if err != nil {
		if api.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list direct items: %w", err)
	}
	return items, nil
}

// RemoveDirectItem 删除直接BOQ条目
func (s *SaveService) RemoveDirectItem(ctx context.Context, itemID int64) error {
	if err := s.client.DeleteDirectItem(ctx, itemID); err != nil {
		s.notifier.Error("failed to remove item")
		return fmt.Errorf("remove direct item: %w", err)
	}
	s.notifier.Success("item removed")
	return nil
}
