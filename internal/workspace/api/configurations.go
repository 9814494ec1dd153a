package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/tvumtech/lumen/internal/workspace/entity"
)

// 配置及其驱动/配件子资源的读写接口，另含兼容性查询与批量保存。

// CompatibilityRequest 兼容性查询请求
type CompatibilityRequest struct {
	ProductIDs []int64 `json:"product_ids"`
}

// Compatibility 查询当前选中产品组合的可用驱动/配件。
// 调用方负责在空集时短路，不要发空请求。
func (c *Client) Compatibility(ctx context.Context, productIDs []int64) (*entity.CompatibilityResult, error) {
	var result entity.CompatibilityResult
	err := c.post(ctx, "/configurations/compatibility/", CompatibilityRequest{ProductIDs: productIDs}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListConfigurations 子区域下的配置列表
func (c *Client) ListConfigurations(ctx context.Context, subareaID int64) ([]entity.Configuration, error) {
	query := url.Values{"subarea": {strconv.FormatInt(subareaID, 10)}}
	var configs []entity.Configuration
	if err := c.listInto(ctx, "/configurations/configurations/", query, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}

// CreateConfiguration 新建配置
func (c *Client) CreateConfiguration(ctx context.Context, config entity.Configuration) (*entity.Configuration, error) {
	var created entity.Configuration
	if err := c.post(ctx, "/configurations/configurations/", config, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateConfiguration 更新配置
func (c *Client) UpdateConfiguration(ctx context.Context, config entity.Configuration) (*entity.Configuration, error) {
	var updated entity.Configuration
	path := fmt.Sprintf("/configurations/configurations/%d/", config.ID)
	if err := c.put(ctx, path, config, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteConfiguration 删除配置（级联删除其驱动/配件记录由后端处理）
func (c *Client) DeleteConfiguration(ctx context.Context, configID int64) error {
	return c.delete(ctx, fmt.Sprintf("/configurations/configurations/%d/", configID))
}

// CreateConfigDriver 为配置挂接驱动
func (c *Client) CreateConfigDriver(ctx context.Context, cd entity.ConfigurationDriver) (*entity.ConfigurationDriver, error) {
	var created entity.ConfigurationDriver
	if err := c.post(ctx, "/configurations/drivers/", cd, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateConfigDriver 更新配置的驱动记录
func (c *Client) UpdateConfigDriver(ctx context.Context, cd entity.ConfigurationDriver) (*entity.ConfigurationDriver, error) {
	var updated entity.ConfigurationDriver
	if err := c.put(ctx, fmt.Sprintf("/configurations/drivers/%d/", cd.ID), cd, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteConfigDriver 摘除配置的驱动
func (c *Client) DeleteConfigDriver(ctx context.Context, id int64) error {
	return c.delete(ctx, fmt.Sprintf("/configurations/drivers/%d/", id))
}

// CreateConfigAccessory 为配置挂接配件
func (c *Client) CreateConfigAccessory(ctx context.Context, ca entity.ConfigurationAccessory) (*entity.ConfigurationAccessory, error) {
	var created entity.ConfigurationAccessory
	if err := c.post(ctx, "/configurations/accessories/", ca, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateConfigAccessory 更新配置的配件记录
func (c *Client) UpdateConfigAccessory(ctx context.Context, ca entity.ConfigurationAccessory) (*entity.ConfigurationAccessory, error) {
	var updated entity.ConfigurationAccessory
	if err := c.put(ctx, fmt.Sprintf("/configurations/accessories/%d/", ca.ID), ca, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteConfigAccessory 摘除配置的配件
func (c *Client) DeleteConfigAccessory(ctx context.Context, id int64) error {
	return c.delete(ctx, fmt.Sprintf("/configurations/accessories/%d/", id))
}

// SaveBatchRequest 批量保存请求：区域 + 三组平行清单。
// base_price 带的是用户生效单价（含覆盖），不是主数据价。
type SaveBatchRequest struct {
	AreaID      int64            `json:"area_id"`
	Products    []BatchProduct   `json:"products"`
	Drivers     []BatchDriver    `json:"drivers,omitempty"`
	Accessories []BatchAccessory `json:"accessories,omitempty"`
}

type BatchProduct struct {
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	BasePrice float64 `json:"base_price"`
}

type BatchDriver struct {
	DriverID int64 `json:"driver_id"`
	Quantity int   `json:"quantity"`
}

type BatchAccessory struct {
	AccessoryID int64 `json:"accessory_id"`
	Quantity    int   `json:"quantity"`
}

// SaveBatchResult 批量保存结果
type SaveBatchResult struct {
	Created int    `json:"created"`
	Message string `json:"message,omitempty"`
}

// SaveBatch 一次提交多条配置（配置构建器的保存路径）
func (c *Client) SaveBatch(ctx context.Context, req SaveBatchRequest) (*SaveBatchResult, error) {
	var result SaveBatchResult
	if err := c.post(ctx, "/configurations/save_batch/", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
