// Package annotation extracts bounding boxes and image dimensions from the
// loosely-structured per-image Key Points Annotations documents.
package annotation

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoBoxes is returned when no list shaped like bounding boxes exists
// anywhere in a document.
var ErrNoBoxes = errors.New("no bounding-box list found")

// Box is one absolute-pixel bounding box. Inverted coordinates pass through
// unchanged; the extractor does not validate geometry.
type Box struct {
	XMin, YMin, XMax, YMax float64
}

// Keys checked first when scanning a mapping for boxes, in priority order.
var boxKeys = []string{"data", "annotations", "boxes", "bboxes", "bounding_boxes", "bbox"}

// ParseDocument decodes a raw annotation file into a generic value tree.
func ParseDocument(data []byte) (any, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse annotation document: %w", err)
	}
	return doc, nil
}

// FindBoxes locates the first list of 4-number sequences in the document.
// If the document is a mapping with a "data" key, the search is rooted there
// before falling back to the whole document. The scan is depth-first and
// priority-first: the first matching list wins.
func FindBoxes(doc any) ([]Box, error) {
	if m, ok := doc.(map[string]any); ok {
		if v, ok := m["data"]; ok {
			if boxes := findBoxes(v); boxes != nil {
				return boxes, nil
			}
		}
	}
	if boxes := findBoxes(doc); boxes != nil {
		return boxes, nil
	}
	return nil, ErrNoBoxes
}

func findBoxes(v any) []Box {
	if boxes := asBoxList(v); boxes != nil {
		return boxes
	}
	switch node := v.(type) {
	case map[string]any:
		for _, k := range boxKeys {
			if child, ok := node[k]; ok {
				if boxes := findBoxes(child); boxes != nil {
					return boxes
				}
			}
		}
		for _, child := range node {
			if boxes := findBoxes(child); boxes != nil {
				return boxes
			}
		}
	case []any:
		for _, child := range node {
			if boxes := findBoxes(child); boxes != nil {
				return boxes
			}
		}
	}
	return nil
}

// asBoxList recognizes a non-empty sequence whose every element is a
// 4-element numeric sequence.
func asBoxList(v any) []Box {
	seq, ok := v.([]any)
	if !ok || len(seq) == 0 {
		return nil
	}
	boxes := make([]Box, 0, len(seq))
	for _, el := range seq {
		quad, ok := el.([]any)
		if !ok || len(quad) != 4 {
			return nil
		}
		var nums [4]float64
		for i, raw := range quad {
			f, ok := raw.(float64)
			if !ok {
				return nil
			}
			nums[i] = f
		}
		boxes = append(boxes, Box{XMin: nums[0], YMin: nums[1], XMax: nums[2], YMax: nums[3]})
	}
	return boxes
}
