// Package metadata loads the image-id to FDI-token mapping from the
// dataset's characteristics source (tab-separated text or spreadsheet).
package metadata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

const (
	tsvName  = "characteristics_of_distributions.txt"
	xlsxName = "Characteristics of radiographs included.xlsx"
)

// ErrNotFound is returned when no metadata source exists under the dataset root.
var ErrNotFound = errors.New("metadata source not found")

// Identifiers excluded from the TSV source: known-corrupt entries whose
// annotation files do not match the recorded tooth lists.
var tsvDenyList = map[string]bool{
	"863": true,
	"777": true,
	"762": true,
	"75":  true,
}

// Mapping relates a canonical image id to its ordered FDI token list.
// An entry with an empty (non-nil) list means "explicitly no annotations";
// a missing key means no metadata row exists for that id.
type Mapping map[string][]string

var tokenSplitter = regexp.MustCompile(`[;,\s]+`)

// FindSource locates the metadata file under the dataset root. The TSV
// export is preferred, then the canonical spreadsheet name, then any
// spreadsheet whose name contains "Characteristics".
func FindSource(root string) (string, error) {
	if p := filepath.Join(root, tsvName); fileExists(p) {
		return p, nil
	}
	if p := filepath.Join(root, xlsxName); fileExists(p) {
		return p, nil
	}

	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".xlsx") && strings.Contains(d.Name(), "Characteristics") {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err == nil && found != "" {
		return found, nil
	}
	return "", fmt.Errorf("%w under %s", ErrNotFound, root)
}

// Load parses the metadata source at path, dispatching on its extension.
func Load(path string) (Mapping, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".tsv":
		return parseTSV(path)
	case ".xlsx":
		return parseXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported metadata format: %s", filepath.Ext(path))
	}
}

func parseTSV(path string) (Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open metadata: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse metadata tsv: %w", err)
	}
	if len(records) == 0 {
		return Mapping{}, nil
	}

	mapping := Mapping{}
	for _, row := range records[1:] { // header skipped
		if len(row) < 4 {
			continue
		}
		id := CanonicalID(strings.TrimSpace(row[0]))
		if id == "" || tsvDenyList[id] {
			continue
		}
		mapping[id] = SplitTokens(row[3])
	}
	return mapping, nil
}

// SplitTokens breaks a raw metadata cell into FDI tokens on runs of
// semicolons, commas and whitespace. Empty fragments are dropped; an empty
// cell yields an empty, non-nil list.
func SplitTokens(cell string) []string {
	tokens := []string{}
	for _, t := range tokenSplitter.Split(strings.TrimSpace(cell), -1) {
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// CanonicalID normalizes numeric image identifiers to their integer string
// form ("75.0" and "075" both become "75") so lookups against annotation
// filename stems succeed. Non-numeric identifiers pass through unchanged.
func CanonicalID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != float64(int64(f)) {
		return raw
	}
	return strconv.FormatInt(int64(f), 10)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
