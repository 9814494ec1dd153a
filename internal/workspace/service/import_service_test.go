package service_test

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"github.com/tvumtech/lumen/internal/workspace/entity"
	"github.com/tvumtech/lumen/internal/workspace/service"
	"github.com/tvumtech/lumen/internal/workspace/testutil"
)

func newImportService(t *testing.T, backend *testutil.FakeBackend) (*service.ImportService, *[]entity.DirectBOQItem) {
	t.Helper()
	var created []entity.DirectBOQItem
	backend.Handle(http.MethodPost, "/boq-items/", func(c *gin.Context) {
		var item entity.DirectBOQItem
		if err := c.BindJSON(&item); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "bad request"})
			return
		}
		item.ID = int64(len(created) + 1)
		created = append(created, item)
		c.JSON(http.StatusCreated, item)
	})
	save := service.NewSaveService(backend.Client(), &nullNotifier{}, nil)
	return service.NewImportService(save, nil), &created
}

func buildWorkbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return &buf
}

func TestImportExcel(t *testing.T) {
	backend := testutil.NewBackend(t)
	svc, created := newImportService(t, backend)

	buf := buildWorkbook(t, [][]interface{}{
		{"item_type", "master_id", "quantity"},
		{"LUMINARIA", "101", "3"},
		{"DRIVER", "7", ""},
		{"ACCESSORY", "55", "2"},
		{"WIDGET", "9", "1"}, // 未知类型
		{"DRIVER", "abc", "1"}, // 非法ID
	})

	result, err := svc.ImportExcel(context.Background(), 5, buf)
	if err != nil {
		t.Fatalf("ImportExcel: %v", err)
	}
	if result.Success != 3 || result.Failed != 2 {
		t.Fatalf("result = %+v", result)
	}
	if len(*created) != 3 {
		t.Fatalf("created = %d items", len(*created))
	}
	first := (*created)[0]
	if first.ProjectID != 5 || first.ItemType != entity.ItemTypeLuminaria || first.MasterID != 101 || first.Quantity != 3 {
		t.Errorf("first item = %+v", first)
	}
	// 数量空缺取1
	if (*created)[1].Quantity != 1 {
		t.Errorf("missing quantity clamped to %d, want 1", (*created)[1].Quantity)
	}
}

func TestImportCSV(t *testing.T) {
	backend := testutil.NewBackend(t)
	svc, created := newImportService(t, backend)

	csv := strings.Join([]string{
		"item_type,master_id,quantity",
		`"LUMINARIA","101","2"`,
		"driver,7,0", // 小写类型归一，数量0钳到1
		"",
	}, "\n")

	result, err := svc.ImportCSV(context.Background(), 5, strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if result.Success != 2 || result.Failed != 0 {
		t.Fatalf("result = %+v", result)
	}
	if (*created)[1].ItemType != entity.ItemTypeDriver || (*created)[1].Quantity != 1 {
		t.Errorf("second item = %+v", (*created)[1])
	}
}

func TestImportCSVQuotedCommaField(t *testing.T) {
	backend := testutil.NewBackend(t)
	svc, created := newImportService(t, backend)

	// 带引号的备注列内含逗号，不得把行拆碎
	csv := strings.Join([]string{
		"item_type,master_id,quantity,remark",
		`LUMINARIA,101,2,"Downlight, recessed"`,
		`"DRIVER",7,1,"24V, dimmable"`,
	}, "\n")

	result, err := svc.ImportCSV(context.Background(), 5, strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if result.Success != 2 || result.Failed != 0 {
		t.Fatalf("result = %+v", result)
	}
	if (*created)[0].MasterID != 101 || (*created)[0].Quantity != 2 {
		t.Errorf("first item = %+v", (*created)[0])
	}
	if (*created)[1].ItemType != entity.ItemTypeDriver || (*created)[1].MasterID != 7 {
		t.Errorf("second item = %+v", (*created)[1])
	}
}

func TestImportCSVGBKFallback(t *testing.T) {
	backend := testutil.NewBackend(t)
	svc, created := newImportService(t, backend)

	// GBK编码的表头（含中文注释列）触发兜底解码
	utf8CSV := "item_type,master_id,quantity,备注\nLUMINARIA,101,2,大堂筒灯\n"
	gbkBytes, _, err := transform.Bytes(simplifiedchinese.GBK.NewEncoder(), []byte(utf8CSV))
	if err != nil {
		t.Fatalf("encode GBK fixture: %v", err)
	}

	result, err := svc.ImportCSV(context.Background(), 5, bytes.NewReader(gbkBytes))
	if err != nil {
		t.Fatalf("ImportCSV GBK: %v", err)
	}
	if result.Success != 1 {
		t.Fatalf("result = %+v", result)
	}
	if (*created)[0].MasterID != 101 {
		t.Errorf("item = %+v", (*created)[0])
	}
}

func TestImportLuminaireAlias(t *testing.T) {
	backend := testutil.NewBackend(t)
	svc, created := newImportService(t, backend)

	csv := "item_type,master_id,quantity\nLUMINAIRE,9,1\nPRODUCT,10,1\n"
	result, err := svc.ImportCSV(context.Background(), 5, strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if result.Success != 2 {
		t.Fatalf("result = %+v", result)
	}
	for _, item := range *created {
		if item.ItemType != entity.ItemTypeLuminaria {
			t.Errorf("alias not normalized: %+v", item)
		}
	}
}

func TestImportReportsBackendErrors(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.JSON(http.MethodPost, "/boq-items/", http.StatusBadRequest, gin.H{
		"detail": "master does not exist",
	})
	save := service.NewSaveService(backend.Client(), &nullNotifier{}, nil)
	svc := service.NewImportService(save, nil)

	csv := "item_type,master_id,quantity\nLUMINARIA,999,1\n"
	result, err := svc.ImportCSV(context.Background(), 5, strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if result.Failed != 1 || result.Success != 0 {
		t.Fatalf("result = %+v", result)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "master does not exist") {
		t.Errorf("errors = %v", result.Errors)
	}
}
