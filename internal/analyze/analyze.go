// Package analyze tabulates per-token image and instance counts from the
// written label files. It is read-only over the converter's output.
package analyze

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tayebekavousi/toothlabel/internal/labels"
	"github.com/tayebekavousi/toothlabel/internal/pipeline"
)

// TokenCount holds the two tallies kept per tooth token.
type TokenCount struct {
	Images    int `json:"images"`
	Instances int `json:"instances"`
}

// SplitDistribution is the tally for one split.
type SplitDistribution struct {
	Split  string                `json:"split"`
	Files  int                   `json:"files"`
	Counts map[string]TokenCount `json:"counts"`
}

// Summary aggregates every split plus cross-split totals keyed by token.
type Summary struct {
	Splits []SplitDistribution   `json:"splits"`
	Totals map[string]TokenCount `json:"totals"`
}

// Analyze walks all known splits under root and tabulates raw-format lines.
// Missing splits or label directories contribute nothing.
func Analyze(root, labelDirName string) (Summary, error) {
	summary := Summary{Totals: map[string]TokenCount{}}
	for _, split := range pipeline.Splits {
		dist, err := AnalyzeSplit(filepath.Join(root, split), labelDirName)
		if err != nil {
			return summary, err
		}
		dist.Split = split
		summary.Splits = append(summary.Splits, dist)
		for token, c := range dist.Counts {
			total := summary.Totals[token]
			total.Images += c.Images
			total.Instances += c.Instances
			summary.Totals[token] = total
		}
	}
	return summary, nil
}

// AnalyzeSplit tabulates one split's label directory.
func AnalyzeSplit(splitDir, labelDirName string) (SplitDistribution, error) {
	dist := SplitDistribution{Counts: map[string]TokenCount{}}

	labelDir := filepath.Join(splitDir, labelDirName)
	entries, err := os.ReadDir(labelDir)
	if err != nil {
		if os.IsNotExist(err) {
			return dist, nil
		}
		return dist, fmt.Errorf("read label dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".txt" {
			continue
		}
		tokens, err := rawTokens(filepath.Join(labelDir, e.Name()))
		if err != nil {
			return dist, err
		}
		dist.Files++

		perImage := map[string]bool{}
		for _, token := range tokens {
			c := dist.Counts[token]
			c.Instances++
			if !perImage[token] {
				c.Images++
				perImage[token] = true
			}
			dist.Counts[token] = c
		}
	}
	return dist, nil
}

// rawTokens extracts the leading token of every raw-format line in a label
// file. Normalized and unrecognized lines are ignored.
func rawTokens(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open label file: %w", err)
	}
	defer f.Close()

	var tokens []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if labels.Classify(line) == labels.Raw {
			tokens = append(tokens, labels.Token(line))
		}
	}
	return tokens, scanner.Err()
}
