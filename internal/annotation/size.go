package annotation

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// ErrNoSize is returned when neither the document nor the image file yields
// pixel dimensions.
var ErrNoSize = errors.New("image size unresolvable")

// Extensions tried, in order, when locating the image file for an id.
var imageExts = []string{".jpg", ".jpeg", ".png", ".tif", ".tiff", ".bmp"}

// ResolveSize determines pixel width and height for an image. Dimensions
// embedded in the annotation document win; otherwise the image file under
// imagesDir is opened and decoded.
func ResolveSize(doc any, imagesDir, imageID string) (int, int, error) {
	if w, h, ok := sizeFromDocument(doc); ok {
		return w, h, nil
	}
	path, ok := FindImageFile(imagesDir, imageID)
	if !ok {
		return 0, 0, fmt.Errorf("%w: no image file for %s", ErrNoSize, imageID)
	}
	w, h, err := sizeFromFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrNoSize, err)
	}
	return w, h, nil
}

func sizeFromDocument(doc any) (int, int, bool) {
	m, ok := doc.(map[string]any)
	if !ok {
		return 0, 0, false
	}
	if w, h, ok := dimensions(m); ok {
		return w, h, true
	}
	for _, key := range []string{"image", "meta"} {
		if sub, ok := m[key].(map[string]any); ok {
			if w, h, ok := dimensions(sub); ok {
				return w, h, true
			}
		}
	}
	return 0, 0, false
}

func dimensions(m map[string]any) (int, int, bool) {
	w, wok := m["width"].(float64)
	h, hok := m["height"].(float64)
	if !wok || !hok {
		return 0, 0, false
	}
	return int(w), int(h), true
}

// FindImageFile locates the image whose stem equals imageID, trying the
// known extensions first and then scanning the directory for any stem match.
func FindImageFile(imagesDir, imageID string) (string, bool) {
	for _, ext := range imageExts {
		p := filepath.Join(imagesDir, imageID+ext)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	entries, err := os.ReadDir(imagesDir)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.TrimSuffix(name, filepath.Ext(name)) == imageID {
			return filepath.Join(imagesDir, name), true
		}
	}
	return "", false
}

func sizeFromFile(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return cfg.Width, cfg.Height, nil
}
