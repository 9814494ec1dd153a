package service_test

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tvumtech/lumen/internal/workspace/entity"
	"github.com/tvumtech/lumen/internal/workspace/service"
	"github.com/tvumtech/lumen/internal/workspace/testutil"
)

func newSaveService(t *testing.T, backend *testutil.FakeBackend) (*service.SaveService, *nullNotifier) {
	t.Helper()
	notifier := &nullNotifier{}
	return service.NewSaveService(backend.Client(), notifier, nil), notifier
}

func TestSaveFormAccessoryDiff(t *testing.T) {
	backend := testutil.NewBackend(t)

	backend.Handle(http.MethodPut, "/configurations/configurations/:id/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": 42, "area": 1, "subarea": 2, "product": 7, "quantity": 3})
	})

	var updated, created []int64
	var deleted []string
	backend.Handle(http.MethodPut, "/configurations/accessories/:id/", func(c *gin.Context) {
		var body entity.ConfigurationAccessory
		c.BindJSON(&body)
		updated = append(updated, body.Accessory)
		c.JSON(http.StatusOK, body)
	})
	backend.Handle(http.MethodPost, "/configurations/accessories/", func(c *gin.Context) {
		var body entity.ConfigurationAccessory
		c.BindJSON(&body)
		created = append(created, body.Accessory)
		body.ID = 900 + body.Accessory
		c.JSON(http.StatusCreated, body)
	})
	backend.Handle(http.MethodDelete, "/configurations/accessories/:id/", func(c *gin.Context) {
		deleted = append(deleted, c.Param("id"))
		c.Status(http.StatusNoContent)
	})

	svc, _ := newSaveService(t, backend)

	// 加载时有配件 10/11/12（关联记录 110/111/112），本次保留10、新增13
	form := service.ConfigurationForm{
		ConfigurationID: 42,
		Area:            1,
		Subarea:         2,
		Product:         7,
		Quantity:        3,
		Accessories: []entity.ConfigurationAccessory{
			{ID: 110, Accessory: 10, Quantity: 2},
			{Accessory: 13, Quantity: 1},
		},
		OriginalAccessories: []entity.ConfigurationAccessory{
			{ID: 110, Accessory: 10},
			{ID: 111, Accessory: 11},
			{ID: 112, Accessory: 12},
		},
	}

	report := svc.SaveForm(context.Background(), form)
	if report.Err != nil {
		t.Fatalf("SaveForm: %v", report.Err)
	}
	if len(updated) != 1 || updated[0] != 10 {
		t.Errorf("updated = %v, want [10]", updated)
	}
	if len(created) != 1 || created[0] != 13 {
		t.Errorf("created = %v, want [13]", created)
	}
	if len(deleted) != 2 {
		t.Fatalf("deleted = %v, want records 111 and 112", deleted)
	}
	wantDeleted := map[string]bool{"111": true, "112": true}
	for _, id := range deleted {
		if !wantDeleted[id] {
			t.Errorf("unexpected delete of record %s", id)
		}
	}
	if report.AccessoriesSaved != 2 || report.AccessoriesRemove != 2 {
		t.Errorf("report = %+v", report)
	}
}

func TestSaveFormRequiresProduct(t *testing.T) {
	backend := testutil.NewBackend(t)
	svc, notifier := newSaveService(t, backend)

	report := svc.SaveForm(context.Background(), service.ConfigurationForm{Subarea: 2})
	if !errors.Is(report.Err, service.ErrNoProducts) {
		t.Fatalf("err = %v, want ErrNoProducts", report.Err)
	}
	if report.Committed() {
		t.Error("nothing should be committed")
	}
	if len(notifier.warnings) == 0 {
		t.Error("expected a warning")
	}
	if got := backend.Calls(http.MethodPost, "/configurations/configurations/"); got != 0 {
		t.Errorf("unexpected create call")
	}
}

func TestSaveFormDriverDeselectDeletes(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Handle(http.MethodPost, "/configurations/configurations/", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"id": 50, "area": 1, "subarea": 2, "product": 7, "quantity": 1})
	})
	var deletedDriver string
	backend.Handle(http.MethodDelete, "/configurations/drivers/:id/", func(c *gin.Context) {
		deletedDriver = c.Param("id")
		c.Status(http.StatusNoContent)
	})

	svc, _ := newSaveService(t, backend)
	report := svc.SaveForm(context.Background(), service.ConfigurationForm{
		Area: 1, Subarea: 2, Product: 7, Quantity: 1,
		OriginalDriver: &entity.ConfigurationDriver{ID: 77, Driver: 3},
	})
	if report.Err != nil {
		t.Fatalf("SaveForm: %v", report.Err)
	}
	if deletedDriver != "77" {
		t.Errorf("deleted driver record %q, want 77", deletedDriver)
	}
	if !report.DriverSaved {
		t.Error("driver change not reported")
	}
}

func TestSaveFormStopsAfterFailureWithoutRollback(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Handle(http.MethodPost, "/configurations/configurations/", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"id": 60, "area": 1, "subarea": 2, "product": 7, "quantity": 1})
	})
	backend.JSON(http.MethodPost, "/configurations/drivers/", http.StatusInternalServerError, gin.H{
		"detail": "driver save failed",
	})

	svc, _ := newSaveService(t, backend)
	report := svc.SaveForm(context.Background(), service.ConfigurationForm{
		Area: 1, Subarea: 2, Product: 7, Quantity: 1,
		Driver: &entity.ConfigurationDriver{Driver: 3, Quantity: 1},
	})
	if report.Err == nil {
		t.Fatal("expected error from driver step")
	}
	// 配置主体已提交，报告如实反映，不回滚
	if !report.Committed() {
		t.Error("configuration step should be reported as committed")
	}
	if report.Configuration.ID != 60 {
		t.Errorf("committed configuration id = %d", report.Configuration.ID)
	}
	if got := backend.Calls(http.MethodDelete, "/configurations/configurations/:id/"); got != 0 {
		t.Error("rollback delete issued unexpectedly")
	}
}

func TestSaveSessionRequiresProducts(t *testing.T) {
	backend := testutil.NewBackend(t)
	svc, _ := newSaveService(t, backend)
	session := service.NewBuilderSession(backend.Client(), &nullNotifier{}, nil)

	_, err := svc.SaveSession(context.Background(), session, 2)
	if !errors.Is(err, service.ErrNoProducts) {
		t.Fatalf("err = %v, want ErrNoProducts", err)
	}
	if got := backend.Calls(http.MethodPost, "/configurations/save_batch/"); got != 0 {
		t.Error("save_batch called despite empty session")
	}
}

func TestSaveSessionSubmitsBatch(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.JSON(http.MethodPost, "/configurations/compatibility/", http.StatusOK, compatResponse(
		[]gin.H{
			{"id": 1, "driver_code": "DRV-1", "base_price": 300.0},
			{"id": 2, "driver_code": "DRV-2", "base_price": 450.0},
		},
		[]gin.H{{"id": 5, "accessory_name": "Snoot", "base_price": 120.0}},
	))
	var batch struct {
		AreaID   int64 `json:"area_id"`
		Products []struct {
			ProductID int64   `json:"product_id"`
			Quantity  int     `json:"quantity"`
			BasePrice float64 `json:"base_price"`
		} `json:"products"`
		Drivers []struct {
			DriverID int64 `json:"driver_id"`
			Quantity int   `json:"quantity"`
		} `json:"drivers"`
		Accessories []struct {
			AccessoryID int64 `json:"accessory_id"`
			Quantity    int   `json:"quantity"`
		} `json:"accessories"`
	}
	backend.Handle(http.MethodPost, "/configurations/save_batch/", func(c *gin.Context) {
		c.BindJSON(&batch)
		c.JSON(http.StatusOK, gin.H{"created": len(batch.Products)})
	})

	session := service.NewBuilderSession(backend.Client(), &nullNotifier{}, nil)
	ctx := context.Background()
	if err := session.AddProduct(ctx, externalProduct(1, 1000, 24)); err != nil {
		t.Fatalf("AddProduct: %v", err)
	}
	if err := session.UpdateProductQty(ctx, 1, "4"); err != nil {
		t.Fatalf("UpdateProductQty: %v", err)
	}
	// 覆盖单价随行提交
	session.UpdateProductPrice(1, "850")
	if err := session.ToggleDriver(1); err != nil {
		t.Fatalf("ToggleDriver: %v", err)
	}
	if err := session.ToggleDriver(2); err != nil {
		t.Fatalf("ToggleDriver(2): %v", err)
	}
	if err := session.ToggleAccessory(5); err != nil {
		t.Fatalf("ToggleAccessory: %v", err)
	}

	svc, _ := newSaveService(t, backend)
	result, err := svc.SaveSession(ctx, session, 2)
	if err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if result.Created != 1 {
		t.Errorf("created = %d, want 1", result.Created)
	}
	if batch.AreaID != 2 {
		t.Errorf("area_id = %d, want 2", batch.AreaID)
	}
	if len(batch.Products) != 1 {
		t.Fatalf("products = %d, want 1", len(batch.Products))
	}
	p := batch.Products[0]
	if p.ProductID != 1 || p.Quantity != 4 {
		t.Errorf("unexpected product row: %+v", p)
	}
	if p.BasePrice != 850 {
		t.Errorf("base_price = %v, want overridden 850", p.BasePrice)
	}
	// 选中的全部驱动随批次提交
	if len(batch.Drivers) != 2 {
		t.Fatalf("drivers = %d, want 2", len(batch.Drivers))
	}
	gotDrivers := map[int64]bool{}
	for _, d := range batch.Drivers {
		gotDrivers[d.DriverID] = true
	}
	if !gotDrivers[1] || !gotDrivers[2] {
		t.Errorf("driver ids = %+v, want 1 and 2", batch.Drivers)
	}
	if len(batch.Accessories) != 1 || batch.Accessories[0].AccessoryID != 5 {
		t.Errorf("accessories = %+v, want accessory 5", batch.Accessories)
	}
}

func TestListDirectItemsNotFoundIsEmpty(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.JSON(http.MethodGet, "/boq-items/", http.StatusNotFound, gin.H{"detail": "Not found."})

	svc, _ := newSaveService(t, backend)
	items, err := svc.ListDirectItems(context.Background(), 5)
	if err != nil {
		t.Fatalf("404 should map to empty list, got %v", err)
	}
	if len(items) != 0 {
		t.Errorf("items = %d, want 0", len(items))
	}
}

func TestAddDirectItemClampsQuantity(t *testing.T) {
	backend := testutil.NewBackend(t)
	var got entity.DirectBOQItem
	backend.Handle(http.MethodPost, "/boq-items/", func(c *gin.Context) {
		c.BindJSON(&got)
		got.ID = 1
		c.JSON(http.StatusCreated, got)
	})

	svc, _ := newSaveService(t, backend)
	_, err := svc.AddDirectItem(context.Background(), entity.DirectBOQItem{
		ProjectID: 5, ItemType: entity.ItemTypeLuminaria, MasterID: 9, Quantity: 0,
	})
	if err != nil {
		t.Fatalf("AddDirectItem: %v", err)
	}
	if got.Quantity != 1 {
		t.Errorf("quantity = %d, want clamped to 1", got.Quantity)
	}
}

func TestModeRouting(t *testing.T) {
	areaWise := entity.Project{ID: 1, InquiryType: entity.InquiryAreaWise}
	direct := entity.Project{ID: 2, InquiryType: entity.InquiryProjectLevel}

	if service.ModeFor(areaWise) != service.ModeAreaWise {
		t.Error("AREA_WISE should map to ModeAreaWise")
	}
	if service.ModeFor(direct) != service.ModeDirectBOQ {
		t.Error("PROJECT_LEVEL should map to ModeDirectBOQ")
	}
	// 未知类型按区域模式兜底
	if service.ModeFor(entity.Project{ID: 3, InquiryType: "SOMETHING_ELSE"}) != service.ModeAreaWise {
		t.Error("unknown inquiry_type should fall back to ModeAreaWise")
	}
}

func TestConfigIDsRoundTrip(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Handle(http.MethodGet, "/configurations/configurations/", func(c *gin.Context) {
		if c.Query("subarea") != strconv.Itoa(8) {
			t.Errorf("subarea query = %q", c.Query("subarea"))
		}
		c.JSON(http.StatusOK, []gin.H{{"id": 1, "subarea": 8, "product": 3, "quantity": 2}})
	})

	configs, err := backend.Client().ListConfigurations(context.Background(), 8)
	if err != nil {
		t.Fatalf("ListConfigurations: %v", err)
	}
	if len(configs) != 1 || configs[0].Product != 3 {
		t.Errorf("configs = %+v", configs)
	}
}
