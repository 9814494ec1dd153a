package api

import (
	"context"
	"net/url"

	"github.com/tvumtech/lumen/internal/workspace/entity"
)

// 主数据读取接口。目录由后端维护，客户端缓存后本地过滤。

// ListProducts 拉取灯具主数据。search 非空时透传给后端做模糊匹配。
func (c *Client) ListProducts(ctx context.Context, search string) ([]entity.Product, error) {
	query := url.Values{}
	if search != "" {
		query.Set("search", search)
	}
	var products []entity.Product
	if err := c.listInto(ctx, "/masters/products/", query, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// ListDrivers 拉取驱动主数据
func (c *Client) ListDrivers(ctx context.Context) ([]entity.Driver, error) {
	var drivers []entity.Driver
	if err := c.listInto(ctx, "/masters/drivers/", nil, &drivers); err != nil {
		return nil, err
	}
	return drivers, nil
}

// ListAccessories 拉取配件主数据
func (c *Client) ListAccessories(ctx context.Context) ([]entity.Accessory, error) {
	var accessories []entity.Accessory
	if err := c.listInto(ctx, "/masters/accessories/", nil, &accessories); err != nil {
		return nil, err
	}
	return accessories, nil
}
