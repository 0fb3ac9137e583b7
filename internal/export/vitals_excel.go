package export

import (
	"bytes"
	"fmt"

	"medadhere/internal/domain"
	"medadhere/internal/models"
	"medadhere/internal/vitals"

	"github.com/xuri/excelize/v2"
)

// SheetName 导出的工作表名
const SheetName = "Vitals"

// VitalsExportHeader 导出表头
var VitalsExportHeader = []string{
	"Recorded At",
	"Temperature (°C)",
	"Heart Rate (BPM)",
	"Oxygen Level (%)",
	"Humidity (%)",
	"Temperature Status",
	"Heart Rate Status",
	"Oxygen Status",
	"Source",
	"Device ID",
	"Notes",
}

var columnWidths = []float64{22, 18, 18, 18, 14, 20, 18, 16, 12, 20, 32}

// GenerateVitalsExport 生成体征记录导出 Excel 文件
// records 为空时只生成表头
func GenerateVitalsExport(records []*domain.VitalRecord) ([]byte, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	// 非 normal 状态标红
	alertStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#C00000"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create alert style: %w", err)
	}

	for col, header := range VitalsExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(SheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(SheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(SheetName, name, name, columnWidths[col]); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, rec := range records {
		row := i + 2 // 第1行是表头
		statuses := vitals.Classify(models.VitalsSample{
			TemperatureC:       rec.TemperatureCelsius,
			HeartRateBpm:       rec.HeartRateBpm,
			OxygenLevelPercent: rec.OxygenLevelPercent,
			HumidityPercent:    rec.HumidityPercent,
		})
		notes := ""
		if rec.Notes != nil {
			notes = *rec.Notes
		}
		values := []interface{}{
			rec.RecordedAt.UTC().Format("2006-01-02 15:04:05"),
			rec.TemperatureCelsius,
			rec.HeartRateBpm,
			rec.OxygenLevelPercent,
			rec.HumidityPercent,
			string(statuses.Temperature),
			string(statuses.HeartRate),
			string(statuses.OxygenLevel),
			rec.MeasurementSource,
			rec.DeviceID,
			notes,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell value at row %d, col %d: %w", row, col+1, err)
			}
			if s, ok := v.(string); ok && col >= 5 && col <= 7 && s != string(models.StatusNormal) {
				if err := f.SetCellStyle(SheetName, cell, cell, alertStyle); err != nil {
					f.Close()
					return nil, fmt.Errorf("failed to set alert style: %w", err)
				}
			}
		}
	}

	// 冻结表头
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	// WriteTo 期间文件必须保持打开
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}
