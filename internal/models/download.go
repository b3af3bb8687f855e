// Package models knows the published whisper.cpp ggml models and fetches
// them from HuggingFace.
package models

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// baseURL is the whisper.cpp model repository. Tests point it at httptest.
var baseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"

// Variant describes one downloadable model.
type Variant struct {
	Name   string
	SizeMB int
	Note   string
}

var variants = map[string]Variant{
	"tiny":      {"tiny", 75, "fastest, lowest accuracy"},
	"tiny.en":   {"tiny.en", 75, "fastest, English only"},
	"base":      {"base", 142, "fast, multilingual"},
	"base.en":   {"base.en", 142, "fast, English only (default)"},
	"small":     {"small", 466, "balanced, multilingual"},
	"small.en":  {"small.en", 466, "balanced, English only"},
	"medium":    {"medium", 1500, "accurate, GPU recommended"},
	"medium.en": {"medium.en", 1500, "accurate, English only, GPU recommended"},
	"large-v3":  {"large-v3", 2900, "most accurate, GPU recommended"},
}

// Lookup returns the variant with the given name.
func Lookup(name string) (Variant, bool) {
	v, ok := variants[name]
	return v, ok
}

// Variants returns every known variant ordered by size, then name.
func Variants() []Variant {
	out := make([]Variant, 0, len(variants))
	for _, v := range variants {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SizeMB != out[j].SizeMB {
			return out[i].SizeMB < out[j].SizeMB
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// FileName is the ggml file the variant is published as.
func (v Variant) FileName() string {
	return "ggml-" + v.Name + ".bin"
}

// URL is where the variant is downloaded from.
func (v Variant) URL() string {
	return baseURL + "/" + v.FileName()
}

// Download fetches the named variant into dir and returns the file path.
// An existing non-empty file is kept. Progress is written to out.
func Download(ctx context.Context, name, dir string, out io.Writer) (string, error) {
	v, ok := Lookup(name)
	if !ok {
		return "", fmt.Errorf("models: unknown variant %q (known: %s)", name, strings.Join(names(), ", "))
	}
	if out == nil {
		out = io.Discard
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("models: creating models dir: %w", err)
	}

	destPath := filepath.Join(dir, v.FileName())
	if info, err := os.Stat(destPath); err == nil && info.Size() > 0 {
		fmt.Fprintf(out, "  Model already exists: %s (%.0f MB)\n", destPath, float64(info.Size())/(1024*1024))
		return destPath, nil
	}

	fmt.Fprintf(out, "  Downloading %s (~%d MB)\n", v.FileName(), v.SizeMB)
	fmt.Fprintf(out, "  URL: %s\n", v.URL())
	fmt.Fprintf(out, "  Destination: %s\n", destPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.URL(), nil)
	if err != nil {
		return "", fmt.Errorf("models: build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("models: downloading %s: %w", v.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("models: download %s failed: HTTP %d", v.Name, resp.StatusCode)
	}

	// Write to temp file first, then rename (atomic)
	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("models: creating temp file: %w", err)
	}

	pw := &progressWriter{
		writer: f,
		out:    out,
		total:  resp.ContentLength,
		label:  v.FileName(),
	}

	written, err := io.Copy(pw, resp.Body)
	f.Close()
	if err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("models: writing model file: %w", err)
	}

	fmt.Fprintf(out, "\n  Downloaded %.1f MB\n", float64(written)/(1024*1024))

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("models: moving model file: %w", err)
	}
	return destPath, nil
}

func names() []string {
	vs := Variants()
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Name
	}
	return out
}

// progressWriter wraps an io.Writer and prints download progress.
type progressWriter struct {
	writer  io.Writer
	out     io.Writer
	total   int64
	written int64
	label   string
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.writer.Write(p)
	pw.written += int64(n)
	if pw.total > 0 {
		pct := float64(pw.written) / float64(pw.total) * 100
		fmt.Fprintf(pw.out, "\r  %s: %.1f MB / %.1f MB (%.0f%%)",
			pw.label,
			float64(pw.written)/(1024*1024),
			float64(pw.total)/(1024*1024),
			pct)
	} else {
		fmt.Fprintf(pw.out, "\r  %s: %.1f MB downloaded",
			pw.label,
			float64(pw.written)/(1024*1024))
	}
	return n, err
}
