package labels

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CleanStats aggregates a cleaning pass over one directory of label files.
type CleanStats struct {
	Files    int
	Original int
	Kept     int
}

// Removed returns the number of discarded lines.
func (s CleanStats) Removed() int {
	return s.Original - s.Kept
}

// CleanFile rewrites a label file keeping only normalized-format lines.
// With backup enabled the original content is preserved at path+".bak"
// before the overwrite.
func CleanFile(path string, backup bool) (original, kept int, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("read label file: %w", err)
	}

	var out []string
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		original++
		if Classify(line) == Normalized {
			out = append(out, line)
			kept++
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, 0, err
	}

	if backup {
		if err := os.WriteFile(path+".bak", data, 0o644); err != nil {
			return 0, 0, fmt.Errorf("write backup: %w", err)
		}
	}

	content := ""
	if len(out) > 0 {
		content = strings.Join(out, "\n") + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return 0, 0, fmt.Errorf("rewrite label file: %w", err)
	}
	return original, kept, nil
}

// CleanDir cleans every .txt label file in dir.
func CleanDir(dir string, backup bool) (CleanStats, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return CleanStats{}, fmt.Errorf("read label dir: %w", err)
	}

	var stats CleanStats
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".txt" {
			continue
		}
		original, kept, err := CleanFile(filepath.Join(dir, e.Name()), backup)
		if err != nil {
			return stats, err
		}
		stats.Files++
		stats.Original += original
		stats.Kept += kept
	}
	return stats, nil
}
