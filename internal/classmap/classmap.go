// Package classmap derives the dense zero-based class index over every
// distinct tooth token observed in the metadata, and persists it so label
// files can be interpreted after the fact.
package classmap

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/tayebekavousi/toothlabel/internal/metadata"
)

// ClassMap is a bijection between tooth tokens and indices in [0, N).
type ClassMap struct {
	tokens []string
	index  map[string]int
}

// Build collects every distinct token across all metadata entries and
// assigns indices under the fixed ordering rule. The result is
// deterministic: identical metadata yields an identical map.
func Build(m metadata.Mapping) *ClassMap {
	seen := map[string]bool{}
	for _, tokens := range m {
		for _, t := range tokens {
			seen[t] = true
		}
	}
	tokens := make([]string, 0, len(seen))
	for t := range seen {
		tokens = append(tokens, t)
	}
	SortTokens(tokens)
	return fromTokens(tokens)
}

// SortTokens orders tokens in place: numeric tokens ascending by value
// before all non-numeric tokens, which sort lexically.
func SortTokens(tokens []string) {
	sort.Slice(tokens, func(i, j int) bool {
		ni, iNum := numericToken(tokens[i])
		nj, jNum := numericToken(tokens[j])
		switch {
		case iNum && jNum:
			if ni != nj {
				return ni < nj
			}
			return tokens[i] < tokens[j]
		case iNum:
			return true
		case jNum:
			return false
		default:
			return tokens[i] < tokens[j]
		}
	})
}

func numericToken(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func fromTokens(tokens []string) *ClassMap {
	index := make(map[string]int, len(tokens))
	for i, t := range tokens {
		index[t] = i
	}
	return &ClassMap{tokens: tokens, index: index}
}

// Index returns the class index for a token.
func (c *ClassMap) Index(token string) (int, bool) {
	i, ok := c.index[token]
	return i, ok
}

// Tokens returns the tokens in index order.
func (c *ClassMap) Tokens() []string {
	out := make([]string, len(c.tokens))
	copy(out, c.tokens)
	return out
}

// Len returns the number of classes.
func (c *ClassMap) Len() int {
	return len(c.tokens)
}

// Save writes one token per line, line number = class index.
func (c *ClassMap) Save(path string) error {
	content := ""
	if len(c.tokens) > 0 {
		content = strings.Join(c.tokens, "\n") + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write class map: %w", err)
	}
	return nil
}

// Load reads a class map previously written by Save.
func Load(path string) (*ClassMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open class map: %w", err)
	}
	defer f.Close()

	var tokens []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		t := strings.TrimSpace(scanner.Text())
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read class map: %w", err)
	}
	return fromTokens(tokens), nil
}
