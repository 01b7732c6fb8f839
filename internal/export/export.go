// Package export renders the timetable as an xlsx workbook for admins.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"roombot/internal/models"
)

const sheetName = "Расписание"

var header = []string{"Дата", "Начало", "Конец", "Описание", "Владелец"}

// Timetable builds an xlsx workbook with one row per booking.
func Timetable(items []models.BookingItem) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetName)

	for i, col := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, col); err != nil {
			return nil, err
		}
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		start, _ := excelize.CoordinatesToCellName(1, 1)
		end, _ := excelize.CoordinatesToCellName(len(header), 1)
		_ = f.SetCellStyle(sheetName, start, end, style)
	}

	for i, item := range items {
		row := []interface{}{
			item.Start.Format("2006-01-02"),
			item.Start.Format("15:04"),
			item.End().Format("15:04"),
			item.Description,
			item.OwnerID,
		}
		for j, val := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, val); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
