package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/akolanti/docqa/internal/domain/docModel"
	"github.com/xuri/excelize/v2"
)

type excelExtractor struct{}

func (excelExtractor) Formats() []docModel.Format {
	return []docModel.Format{docModel.FormatXLSX, docModel.FormatXLS}
}

// Probe builds an empty workbook in memory to make sure the library is usable.
func (excelExtractor) Probe() error {
	f := excelize.NewFile()
	return f.Close()
}

func (excelExtractor) Extract(ctx context.Context, path string) (Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	var text strings.Builder
	cells := 0
	for _, name := range sheets {
		if err := ctx.Err(); err != nil {
			return Result{}, ioFailure("excel", err)
		}
		rows, err := f.GetRows(name)
		if err != nil {
			return Result{}, fmt.Errorf("reading sheet %q: %w", name, err)
		}

		var sheet strings.Builder
		fmt.Fprintf(&sheet, "\n[Sheet: %s]\n", name)
		rowCount := 0
		for _, row := range rows {
			filled := 0
			for _, c := range row {
				if c != "" {
					filled++
				}
			}
			if filled == 0 {
				continue
			}
			sheet.WriteString(strings.Join(row, " | "))
			sheet.WriteString("\n")
			rowCount++
			cells += filled
		}
		if rowCount > 0 {
			text.WriteString(sheet.String())
			text.WriteString("\n")
		}
	}

	full := text.String()
	return Result{
		Text: strings.TrimSpace(full),
		Metadata: Metadata{
			SheetCount: len(sheets),
			CellCount:  cells,
			WordCount:  len(strings.Fields(full)),
		},
	}, nil
}
