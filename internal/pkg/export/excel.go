// Package export renders tabular data as spreadsheet files.
package export

import (
	"io"

	"github.com/xuri/excelize/v2"
)

// ContentTypeXLSX is the MIME type of the files written by WriteXLSX
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Sheet is one worksheet: a heading row followed by data rows
type Sheet struct {
	Name     string
	Headings []string
	Rows     [][]interface{}
}

// WriteXLSX writes the sheets, in order, as one workbook
func WriteXLSX(w io.Writer, sheets ...Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.Name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return err
		}

		if err := writeRow(f, sheet.Name, 1, toCells(sheet.Headings)); err != nil {
			return err
		}
		for r, row := range sheet.Rows {
			if err := writeRow(f, sheet.Name, r+2, row); err != nil {
				return err
			}
		}
	}

	return f.Write(w)
}

func writeRow(f *excelize.File, sheet string, rowNo int, values []interface{}) error {
	for c, value := range values {
		cell, err := excelize.CoordinatesToCellName(c+1, rowNo)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return err
		}
	}
	return nil
}

func toCells(headings []string) []interface{} {
	out := make([]interface{}, len(headings))
	for i, h := range headings {
		out[i] = h
	}
	return out
}
