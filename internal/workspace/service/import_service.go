package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"github.com/tvumtech/lumen/internal/workspace/api"
	"github.com/tvumtech/lumen/internal/workspace/entity"
)

// =============================================================================
// ImportService — 直接BOQ条目批量导入
// 支持Excel（.xlsx）与CSV（UTF-8，非法UTF-8按GBK兜底解码）。
// 模板列：item_type | master_id | quantity，首行为表头。
// =============================================================================

// ImportResult 导入结果统计
type ImportResult struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// ImportService 条目导入服务
type ImportService struct {
	save   *SaveService
	logger *zap.Logger
}

func NewImportService(save *SaveService, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{save: save, logger: logger}
}

// ImportExcel 从xlsx导入直接BOQ条目
func (s *ImportService) ImportExcel(ctx context.Context, projectID int64, r io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open excel: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read excel: %w", err)
	}

	result := &ImportResult{}
	if len(rows) < 2 {
		return result, nil
	}
	for i, row := range rows[1:] { // 跳过表头
		s.importRow(ctx, projectID, i+2, row, result)
	}
	return result, nil
}

// ImportCSV 从CSV导入。整体不是合法UTF-8时按GBK解码。
func (s *ImportService) ImportCSV(ctx context.Context, projectID int64, r io.Reader) (*ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if !utf8.Valid(data) {
		// GBK → UTF-8
		decoded, _, convErr := transform.Bytes(simplifiedchinese.GBK.NewDecoder(), data)
		if convErr != nil {
			return nil, fmt.Errorf("decode csv as GBK: %w", convErr)
		}
		data = decoded
	}

	result := &ImportResult{}
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1 // 列数不固定，备注列可有可无
	reader.TrimLeadingSpace = true
	lineNo := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		lineNo++
		if lineNo == 1 { // 首行表头
			continue
		}
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		s.importRow(ctx, projectID, lineNo, record, result)
	}
	return result, nil
}

// importRow 解析并提交一行，失败计入统计不中断
func (s *ImportService) importRow(ctx context.Context, projectID int64, lineNo int, row []string, result *ImportResult) {
	if len(row) < 2 || row[0] == "" {
		result.Failed++
		result.Errors = append(result.Errors, fmt.Sprintf("line %d: missing item_type or master_id", lineNo))
		return
	}

	itemType, err := normalizeItemType(row[0])
	if err != nil {
		result.Failed++
		result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", lineNo, err))
		return
	}

	masterID, err := strconv.ParseInt(strings.TrimSpace(row[1]), 10, 64)
	if err != nil || masterID <= 0 {
		result.Failed++
		result.Errors = append(result.Errors, fmt.Sprintf("line %d: invalid master_id %q", lineNo, row[1]))
		return
	}

	quantity := 1
	if len(row) > 2 && row[2] != "" {
		quantity = ClampQuantity(row[2])
	}

	item := entity.DirectBOQItem{
		ProjectID: projectID,
		ItemType:  itemType,
		MasterID:  masterID,
		Quantity:  quantity,
	}
	if _, err := s.save.client.CreateDirectItem(ctx, item); err != nil {
		result.Failed++
		if apiErr, ok := api.AsAPIError(err); ok {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %s", lineNo, apiErr.Error()))
		} else {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", lineNo, err))
		}
		s.logger.Warn("import row failed", zap.Int("line", lineNo), zap.Error(err))
		return
	}
	result.Success++
}

func normalizeItemType(raw string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case entity.ItemTypeLuminaria, entity.ItemTypeProduct, "LUMINAIRE":
		return entity.ItemTypeLuminaria, nil
	case entity.ItemTypeDriver:
		return entity.ItemTypeDriver, nil
	case entity.ItemTypeAccessory:
		return entity.ItemTypeAccessory, nil
	}
	return "", fmt.Errorf("unknown item_type %q", raw)
}
