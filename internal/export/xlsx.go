// Package export renders CRM listings as spreadsheets.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/sakif/leadbook/internal/apperror"
	"github.com/sakif/leadbook/internal/model"
)

const (
	SheetName   = "Businesses"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type column struct {
	title string
	width float64
}

var columns = []column{
	{"No", 8},
	{"Name", 30},
	{"City", 20},
	{"District", 20},
	{"Category", 20},
	{"Address", 50},
	{"Stage", 15},
	{"Phone", 20},
	{"Website", 30},
	{"Rating", 10},
	{"Rating Count", 18},
	{"Price Level", 15},
}

// WriteBusinesses writes businesses as an xlsx workbook to w, one row per
// business in the given order. An empty list is reported as NotFound.
func WriteBusinesses(w io.Writer, businesses []model.Business) error {
	if len(businesses) == 0 {
		return &apperror.AppError{Err: apperror.ErrNotFound, Message: "no businesses to export"}
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("export: naming sheet: %w", err)
	}

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c.title
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("export: writing header: %w", err)
	}
	if err := styleHeader(f); err != nil {
		return err
	}

	for i, b := range businesses {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		row := []any{
			i + 1,
			b.Name,
			b.City,
			b.District,
			b.Category,
			b.Address,
			string(b.Stage),
			b.Phone,
			b.Website,
			optional(b.Rating),
			optional(b.RatingCount),
			PriceLevel(b.PriceLevel),
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("export: writing row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: writing workbook: %w", err)
	}
	return nil
}

// PriceLevel renders a provider price level as repeated lira signs: level 1
// is "₺₺", level 3 is "₺₺₺₺". Missing or negative levels render empty.
// Level 0 would render "₺", but ingested data never holds it: the Google
// provider reports an absent price level as 0, so places stores 0 as missing.
func PriceLevel(level *int) string {
	if level == nil || *level < 0 {
		return ""
	}
	return strings.Repeat("₺", *level+1)
}

func styleHeader(f *excelize.File) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"366092"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("export: creating header style: %w", err)
	}

	last, err := excelize.ColumnNumberToName(len(columns))
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", last+"1", style); err != nil {
		return fmt.Errorf("export: styling header: %w", err)
	}
	if err := f.SetRowHeight(SheetName, 1, 25); err != nil {
		return fmt.Errorf("export: sizing header: %w", err)
	}

	for i, c := range columns {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		if err := f.SetColWidth(SheetName, name, name, c.width); err != nil {
			return fmt.Errorf("export: sizing column %s: %w", name, err)
		}
	}
	return nil
}

// optional turns a nil pointer into an empty cell.
func optional[T any](v *T) any {
	if v == nil {
		return ""
	}
	return *v
}
