package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path/filepath"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/tayebekavousi/toothlabel/internal/analyze"
	"github.com/tayebekavousi/toothlabel/internal/classmap"
)

func (s *Server) handleClasses(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(s.cfg.DatasetRoot, "classes.txt")
	cm, err := classmap.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			jsonError(w, "class map not written yet (run convert with remap)", http.StatusNotFound)
			return
		}
		s.log.Error("load class map", "error", err)
		jsonError(w, "failed to load class map", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"classes": cm.Tokens(),
		"count":   cm.Len(),
	})
}

func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	summary, err := analyze.Analyze(s.cfg.DatasetRoot, s.cfg.LabelDirName)
	if err != nil {
		s.log.Error("analyze distribution", "error", err)
		jsonError(w, "failed to analyze label files", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(summary)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	summary, err := analyze.Analyze(s.cfg.DatasetRoot, s.cfg.LabelDirName)
	if err != nil {
		s.log.Error("analyze distribution", "error", err)
		jsonError(w, "failed to analyze label files", http.StatusInternalServerError)
		return
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var body bytes.Buffer
	if err := md.Convert([]byte(summary.Markdown()), &body); err != nil {
		s.log.Error("render report", "error", err)
		jsonError(w, "failed to render report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!DOCTYPE html>\n<html><head><title>Tooth distribution</title></head><body>\n%s</body></html>\n", body.String())
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
