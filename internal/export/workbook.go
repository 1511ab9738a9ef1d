// Package export writes report results and the roster as xlsx workbooks.
package export

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"
)

const fontFamily = "Times New Roman"

// workbook wraps an excelize file with the regular and bold cell styles
// every sheet uses.
type workbook struct {
	f       *excelize.File
	regular int
	bold    int
	sheets  int
}

func newWorkbook() (*workbook, error) {
	f := excelize.NewFile()
	regular, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Family: fontFamily}})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create cell style: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Family: fontFamily, Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create cell style: %w", err)
	}
	return &workbook{f: f, regular: regular, bold: bold}, nil
}

// sheet returns a new sheet named name. The first call renames the default
// sheet.
func (w *workbook) sheet(name string) (*sheet, error) {
	if w.sheets == 0 {
		if err := w.f.SetSheetName(w.f.GetSheetName(0), name); err != nil {
			return nil, fmt.Errorf("failed to rename sheet: %w", err)
		}
	} else if _, err := w.f.NewSheet(name); err != nil {
		return nil, fmt.Errorf("failed to create sheet %q: %w", name, err)
	}
	w.sheets++
	return &sheet{w: w, name: name}, nil
}

func (w *workbook) save(path string) error {
	defer w.f.Close()
	if err := w.f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// sheet writes cells by 1-based column and row.
type sheet struct {
	w    *workbook
	name string
	err  error
}

func (s *sheet) cell(col, row int, value any, bold bool) {
	if s.err != nil {
		return
	}
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		s.err = err
		return
	}
	if err := s.w.f.SetCellValue(s.name, ref, value); err != nil {
		s.err = err
		return
	}
	style := s.w.regular
	if bold {
		style = s.w.bold
	}
	s.err = s.w.f.SetCellStyle(s.name, ref, ref, style)
}

func (s *sheet) width(col int, width float64) {
	if s.err != nil {
		return
	}
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		s.err = err
		return
	}
	s.err = s.w.f.SetColWidth(s.name, name, name, width)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
