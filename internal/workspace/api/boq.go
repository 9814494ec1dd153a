package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/tvumtech/lumen/internal/workspace/entity"
)

// BOQ 版本、行项与直接BOQ条目接口。
// 改价/加点/锁定后一律以服务端回传为准，客户端不回写推算值。

// BOQVersions 项目的BOQ版本列表
func (c *Client) BOQVersions(ctx context.Context, projectID int64) ([]entity.BOQ, error) {
	var versions []entity.BOQ
	path := fmt.Sprintf("/boq/versions/%d/", projectID)
	if err := c.listInto(ctx, path, nil, &versions); err != nil {
		return nil, err
	}
	return versions, nil
}

// BOQDetail 版本详情（detail 接口用 boq_id 字段回传主键）
func (c *Client) BOQDetail(ctx context.Context, boqID int64) (*entity.BOQ, error) {
	var boq entity.BOQ
	if err := c.get(ctx, fmt.Sprintf("/boq/summary/detail/%d/", boqID), nil, &boq); err != nil {
		return nil, err
	}
	return &boq, nil
}

// BOQItems 版本下的全部行项
func (c *Client) BOQItems(ctx context.Context, boqID int64) ([]entity.BOQItem, error) {
	query := url.Values{"boq_id": {strconv.FormatInt(boqID, 10)}}
	var items []entity.BOQItem
	if err := c.listInto(ctx, "/boq/items/", query, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GenerateBOQ 从当前配置生成新的BOQ版本
func (c *Client) GenerateBOQ(ctx context.Context, projectID int64) (*entity.BOQ, error) {
	var boq entity.BOQ
	if err := c.post(ctx, fmt.Sprintf("/boq/generate/%d/", projectID), nil, &boq); err != nil {
		return nil, err
	}
	return &boq, nil
}

// PatchItemPrice 覆盖单行单价。final_price 由服务端重算，
// 调用方必须用回传的行项（或重拉列表）刷新本地状态。
func (c *Client) PatchItemPrice(ctx context.Context, itemID int64, unitPrice float64) (*entity.BOQItem, error) {
	body := map[string]float64{"unit_price": unitPrice}
	var item entity.BOQItem
	if err := c.patch(ctx, fmt.Sprintf("/boq/items/%d/price/", itemID), body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ApplyMargin 对整版BOQ应用加点比例（覆盖，不叠加）
func (c *Client) ApplyMargin(ctx context.Context, boqID int64, markupPct float64) error {
	body := map[string]float64{"markup_pct": markupPct}
	return c.post(ctx, fmt.Sprintf("/boq/apply-margin/%d/", boqID), body, nil)
}

// ApproveBOQ 锁定BOQ版本（终态，不可逆）
func (c *Client) ApproveBOQ(ctx context.Context, boqID int64) (*entity.BOQ, error) {
	var boq entity.BOQ
	if err := c.post(ctx, fmt.Sprintf("/boq/approve/%d/", boqID), nil, &boq); err != nil {
		return nil, err
	}
	return &boq, nil
}

// ExportURL 导出下载地址。format 取 pdf 或 excel，
// token 以查询参数带出供浏览器直接下载。
func (c *Client) ExportURL(boqID int64, format string) string {
	u := fmt.Sprintf("%s/boq/export/%s/%d/", c.baseURL, format, boqID)
	if token := c.tokens.Token(); token != "" {
		u += "?token=" + url.QueryEscape(token)
	}
	return u
}

// ListDirectItems 直接BOQ模式下项目的条目清单
func (c *Client) ListDirectItems(ctx context.Context, projectID int64) ([]entity.DirectBOQItem, error) {
	query := url.Values{"project": {strconv.FormatInt(projectID, 10)}}
	var items []entity.DirectBOQItem
	if err := c.listInto(ctx, "/boq-items/", query, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CreateDirectItem 新增直接BOQ条目
func (c *Client) CreateDirectItem(ctx context.Context, item entity.DirectBOQItem) (*entity.DirectBOQItem, error) {
	var created entity.DirectBOQItem
	if err := c.post(ctx, "/boq-items/", item, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteDirectItem 删除直接BOQ条目
func (c *Client) DeleteDirectItem(ctx context.Context, itemID int64) error {
	return c.delete(ctx, fmt.Sprintf("/boq-items/%d/", itemID))
}
