package metadata

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Header names accepted for the identifier column, in preference order.
var idColumnNames = []string{"id", "image id", "image_id", "img_id"}

// Substrings that mark a header as the tooth-token column.
var tokenColumnMarks = []string{"fdi", "tooth", "teeth", "notation"}

func parseXLSX(path string) (Mapping, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open metadata spreadsheet: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read metadata sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("metadata spreadsheet %s is empty", path)
	}

	header := make([]string, len(rows[0]))
	for i, c := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(c))
	}

	idCol := resolveIDColumn(header)
	tokenCol := resolveTokenColumn(header)
	if tokenCol < 0 {
		return nil, fmt.Errorf("no FDI/teeth column in metadata spreadsheet %s", path)
	}

	mapping := Mapping{}
	for _, row := range rows[1:] {
		if idCol >= len(row) {
			continue
		}
		id := CanonicalID(row[idCol])
		if id == "" {
			continue
		}
		if tokenCol >= len(row) {
			mapping[id] = []string{}
			continue
		}
		mapping[id] = SplitTokens(row[tokenCol])
	}
	return mapping, nil
}

func resolveIDColumn(header []string) int {
	for _, name := range idColumnNames {
		for i, h := range header {
			if h == name {
				return i
			}
		}
	}
	return 0
}

func resolveTokenColumn(header []string) int {
	for i, h := range header {
		for _, mark := range tokenColumnMarks {
			if strings.Contains(h, mark) {
				return i
			}
		}
	}
	return -1
}
