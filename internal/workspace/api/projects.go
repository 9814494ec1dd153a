package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/tvumtech/lumen/internal/workspace/entity"
)

// ListProjects 项目列表
func (c *Client) ListProjects(ctx context.Context) ([]entity.Project, error) {
	var projects []entity.Project
	if err := c.listInto(ctx, "/projects/", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProject 项目详情（含 inquiry_type，决定工作区模式）
func (c *Client) GetProject(ctx context.Context, projectID int64) (*entity.Project, error) {
	var project entity.Project
	if err := c.get(ctx, fmt.Sprintf("/projects/%d/", projectID), nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// ListAreas 项目下的区域
func (c *Client) ListAreas(ctx context.Context, projectID int64) ([]entity.Area, error) {
	query := url.Values{"project": {strconv.FormatInt(projectID, 10)}}
	var areas []entity.Area
	if err := c.listInto(ctx, "/areas/", query, &areas); err != nil {
		return nil, err
	}
	return areas, nil
}

// GetArea 区域详情
func (c *Client) GetArea(ctx context.Context, areaID int64) (*entity.Area, error) {
	var area entity.Area
	if err := c.get(ctx, fmt.Sprintf("/areas/%d/", areaID), nil, &area); err != nil {
		return nil, err
	}
	return &area, nil
}

// CreateArea 新建区域
func (c *Client) CreateArea(ctx context.Context, area entity.Area) (*entity.Area, error) {
	var created entity.Area
	if err := c.post(ctx, "/areas/", area, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListSubareas 区域下的子区域
func (c *Client) ListSubareas(ctx context.Context, areaID int64) ([]entity.Subarea, error) {
	query := url.Values{"area_id": {strconv.FormatInt(areaID, 10)}}
	var subareas []entity.Subarea
	if err := c.listInto(ctx, "/subareas/", query, &subareas); err != nil {
		return nil, err
	}
	return subareas, nil
}

// CreateSubarea 新建子区域
func (c *Client) CreateSubarea(ctx context.Context, subarea entity.Subarea) (*entity.Subarea, error) {
	var created entity.Subarea
	if err := c.post(ctx, "/subareas/", subarea, &created); err != nil {
		return nil, err
	}
	return &created, nil
}
