// Package export renders the waitlist as a spreadsheet for the charge desk.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/erwaitlist/waitlist/internal/domain/waitlist"
)

const SheetName = "Waitlist"

var Header = []string{
	"ID",
	"Name",
	"Gender",
	"Date of Birth",
	"Contact",
	"Priority Level",
	"Estimated Wait (min)",
	"Medical Issue",
	"Doctor",
	"Room",
	"Arrived",
}

var columnWidths = []float64{8, 24, 10, 14, 18, 14, 20, 32, 12, 10, 20}

// Workbook builds an xlsx file with one row per patient in the given order.
func Workbook(patients []*waitlist.Patient) ([]byte, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FDE9E7"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for col, title := range Header {
		if err := setCell(f, col+1, 1, title); err != nil {
			f.Close()
			return nil, err
		}
		name, _ := excelize.ColumnNumberToName(col + 1)
		if err := f.SetColWidth(SheetName, name, name, columnWidths[col]); err != nil {
			f.Close()
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(Header), 1)
	if err := f.SetCellStyle(SheetName, "A1", last, headerStyle); err != nil {
		f.Close()
		return nil, fmt.Errorf("set header style: %w", err)
	}

	for i, p := range patients {
		row := i + 2
		for col, v := range rowValues(p) {
			if v == nil {
				continue
			}
			if err := setCell(f, col+1, row, v); err != nil {
				f.Close()
				return nil, err
			}
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func rowValues(p *waitlist.Patient) []any {
	var doctor, room any
	if p.DoctorID != nil {
		doctor = *p.DoctorID
	}
	if p.RoomID != nil {
		room = *p.RoomID
	}
	var arrived any
	if !p.CreatedAt.IsZero() {
		arrived = p.CreatedAt.UTC().Format(time.DateTime)
	}
	return []any{
		p.ID,
		p.Name,
		p.Gender,
		p.DateOfBirth.String(),
		p.Contact,
		p.PriorityLevel,
		waitlist.EstimateWaitMinutes(p.PriorityLevel),
		p.MedicalIssue,
		doctor,
		room,
		arrived,
	}
}

func setCell(f *excelize.File, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(SheetName, cell, v); err != nil {
		return fmt.Errorf("set cell %s: %w", cell, err)
	}
	return nil
}
