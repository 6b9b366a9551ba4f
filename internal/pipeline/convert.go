// Package pipeline drives the conversion run: metadata, class map, then one
// pass over each split's annotation documents.
package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tayebekavousi/toothlabel/internal/annotation"
	"github.com/tayebekavousi/toothlabel/internal/classmap"
	"github.com/tayebekavousi/toothlabel/internal/config"
	"github.com/tayebekavousi/toothlabel/internal/labels"
	"github.com/tayebekavousi/toothlabel/internal/metadata"
)

// Splits are the dataset partitions processed, in order.
var Splits = []string{"Training", "Testing", "Validation"}

const (
	annotationsDirName = "Key Points Annotations"
	imagesDirName      = "Images"
	classMapFileName   = "classes.txt"
)

// outcome is the terminal state of one image. Every outcome continues the
// run with the next image.
type outcome int

const (
	written outcome = iota
	parseFailed
	metadataMissing
	extractionFailed
	countMismatch
	sizeUnresolved
	writeFailed
)

// SplitResult counts per-image outcomes for one split.
type SplitResult struct {
	Split            string `json:"split"`
	Written          int    `json:"written"`
	ParseFailed      int    `json:"parse_failed"`
	MetadataMissing  int    `json:"metadata_missing"`
	ExtractionFailed int    `json:"extraction_failed"`
	CountMismatch    int    `json:"count_mismatch"`
	SizeUnresolved   int    `json:"size_unresolved"`
	WriteFailed      int    `json:"write_failed"`
}

// Skipped returns the number of images that produced no label file.
func (r SplitResult) Skipped() int {
	return r.ParseFailed + r.MetadataMissing + r.ExtractionFailed + r.CountMismatch + r.SizeUnresolved + r.WriteFailed
}

// Converter holds the run-wide read-only state shared by all splits.
type Converter struct {
	cfg     config.Config
	meta    metadata.Mapping
	classes *classmap.ClassMap // nil when remap is off
	log     *slog.Logger
}

func NewConverter(cfg config.Config, meta metadata.Mapping, classes *classmap.ClassMap, log *slog.Logger) *Converter {
	return &Converter{cfg: cfg, meta: meta, classes: classes, log: log}
}

// Run executes the full conversion: locate and load metadata, build and
// persist the class map when remapping is requested, then process every
// split. Metadata problems are fatal; everything per image is a logged skip.
func Run(cfg config.Config, log *slog.Logger) ([]SplitResult, error) {
	src, err := metadata.FindSource(cfg.DatasetRoot)
	if err != nil {
		return nil, err
	}
	log.Info("using metadata source", "path", src)

	meta, err := metadata.Load(src)
	if err != nil {
		return nil, err
	}
	log.Info("loaded metadata", "entries", len(meta))

	var classes *classmap.ClassMap
	if cfg.RemapClasses {
		classes = classmap.Build(meta)
		classesPath := filepath.Join(cfg.DatasetRoot, classMapFileName)
		if err := classes.Save(classesPath); err != nil {
			return nil, err
		}
		log.Info("wrote class map", "path", classesPath, "classes", classes.Len())
	}

	conv := NewConverter(cfg, meta, classes, log)

	var results []SplitResult
	for _, split := range Splits {
		splitDir := filepath.Join(cfg.DatasetRoot, split)
		if info, err := os.Stat(splitDir); err != nil || !info.IsDir() {
			log.Warn("split directory missing, skipping", "split", split)
			continue
		}
		res, err := conv.ProcessSplit(split)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// ProcessSplit converts every annotation document in one split, in sorted
// filename order. Returns an error only for split-level I/O failures.
func (c *Converter) ProcessSplit(split string) (SplitResult, error) {
	res := SplitResult{Split: split}
	log := c.log.With("split", split)

	splitDir := filepath.Join(c.cfg.DatasetRoot, split)
	annoDir := filepath.Join(splitDir, annotationsDirName)
	if info, err := os.Stat(annoDir); err != nil || !info.IsDir() {
		log.Warn("annotations directory missing, skipping split", "dir", annoDir)
		return res, nil
	}

	outDir := filepath.Join(splitDir, c.cfg.LabelDirName)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return res, fmt.Errorf("create label dir: %w", err)
	}

	entries, err := os.ReadDir(annoDir)
	if err != nil {
		return res, fmt.Errorf("read annotations dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		imageID := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		switch c.processImage(log, splitDir, outDir, annoDir, e.Name(), imageID) {
		case written:
			res.Written++
		case parseFailed:
			res.ParseFailed++
		case metadataMissing:
			res.MetadataMissing++
		case extractionFailed:
			res.ExtractionFailed++
		case countMismatch:
			res.CountMismatch++
		case sizeUnresolved:
			res.SizeUnresolved++
		case writeFailed:
			res.WriteFailed++
		}
	}

	log.Info("split complete",
		"written", res.Written,
		"skipped", res.Skipped(),
	)
	return res, nil
}

func (c *Converter) processImage(log *slog.Logger, splitDir, outDir, annoDir, fileName, imageID string) outcome {
	log = log.With("image", imageID)

	tokens, ok := c.meta[imageID]
	if !ok || len(tokens) == 0 {
		log.Warn("no FDI metadata, skipping")
		return metadataMissing
	}

	data, err := os.ReadFile(filepath.Join(annoDir, fileName))
	if err != nil {
		log.Warn("unreadable annotation file, skipping", "error", err)
		return parseFailed
	}
	doc, err := annotation.ParseDocument(data)
	if err != nil {
		log.Warn("malformed annotation document, skipping", "error", err)
		return parseFailed
	}

	boxes, err := annotation.FindBoxes(doc)
	if err != nil {
		log.Warn("no bounding-box list, skipping")
		return extractionFailed
	}

	if len(tokens) != len(boxes) {
		log.Warn("count mismatch, skipping", "tokens", len(tokens), "boxes", len(boxes))
		return countMismatch
	}

	// Resolve the image size up front so a failure skips the image before
	// any line is emitted; no partial raw-only files in mode=both.
	var width, height int
	if c.cfg.WantNormalized() {
		width, height, err = annotation.ResolveSize(doc, filepath.Join(splitDir, imagesDirName), imageID)
		if err != nil {
			log.Warn("image size unresolvable, skipping", "error", err)
			return sizeUnresolved
		}
		if width == 0 || height == 0 {
			log.Warn("degenerate image size, skipping", "width", width, "height", height)
			return sizeUnresolved
		}
	}

	var lines []string
	if c.cfg.WantRaw() {
		for i, b := range boxes {
			lines = append(lines, labels.FormatRaw(tokens[i], b))
		}
	}
	if c.cfg.WantNormalized() {
		for i, b := range boxes {
			xc, yc, bw, bh := labels.Normalize(b, width, height)
			first := tokens[i]
			if c.classes != nil {
				idx, ok := c.classes.Index(tokens[i])
				if !ok {
					// Built from the same metadata, so this indicates drift.
					log.Warn("token missing from class map, defaulting to class 0", "token", tokens[i])
					idx = 0
				}
				first = fmt.Sprintf("%d", idx)
			}
			lines = append(lines, labels.FormatNormalized(first, xc, yc, bw, bh, c.cfg.Decimals))
		}
	}

	content := ""
	if len(lines) > 0 {
		content = strings.Join(lines, "\n") + "\n"
	}
	outPath := filepath.Join(outDir, imageID+".txt")
	if err := os.WriteFile(outPath, []byte(content), 0o644); err != nil {
		log.Error("write label file failed", "path", outPath, "error", err)
		return writeFailed
	}
	return written
}
