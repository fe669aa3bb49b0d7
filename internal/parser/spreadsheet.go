package parser

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
)

// parseSpreadsheet renders every sheet as tab separated rows. excelize is
// tried first; workbooks it rejects are retried with tealeg/xlsx.
func parseSpreadsheet(filePath string) (string, error) {
	text, err := parseWithExcelize(filePath)
	if err == nil {
		return text, nil
	}
	log.Warn().Err(err).Str("file", filePath).Msg("excelize failed, falling back to xlsx reader")

	text, fallbackErr := parseWithXLSX(filePath)
	if fallbackErr != nil {
		return "", fmt.Errorf("excelize: %v; xlsx: %w", err, fallbackErr)
	}
	return text, nil
}

func parseWithExcelize(filePath string) (string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var sheets []string
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return "", fmt.Errorf("sheet %q: %w", sheetName, err)
		}
		sheets = append(sheets, renderSheet(sheetName, rows))
	}
	return strings.Join(sheets, "\n\n"), nil
}

func parseWithXLSX(filePath string) (string, error) {
	f, err := xlsx.OpenFile(filePath)
	if err != nil {
		return "", err
	}

	var sheets []string
	for _, sheet := range f.Sheets {
		rows := make([][]string, 0, len(sheet.Rows))
		for _, row := range sheet.Rows {
			cells := make([]string, 0, len(row.Cells))
			for _, cell := range row.Cells {
				cells = append(cells, cell.String())
			}
			rows = append(rows, cells)
		}
		sheets = append(sheets, renderSheet(sheet.Name, rows))
	}
	return strings.Join(sheets, "\n\n"), nil
}

func renderSheet(name string, rows [][]string) string {
	var text strings.Builder
	text.WriteString(fmt.Sprintf("Sheet: %s\n", name))
	for _, row := range rows {
		line := strings.TrimRight(strings.Join(row, "\t"), "\t")
		if line == "" {
			continue
		}
		text.WriteString(line)
		text.WriteString("\n")
	}
	return text.String()
}
