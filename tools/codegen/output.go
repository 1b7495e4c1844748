package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// variantOutput accumulates streamed chunks per variant and writes final
// outputs to dir.
type variantOutput struct {
	dir string

	mu      sync.Mutex
	chunks  map[int]*strings.Builder
	written map[int]string
}

func newVariantOutput(dir string) *variantOutput {
	return &variantOutput{
		dir:     dir,
		chunks:  make(map[int]*strings.Builder),
		written: make(map[int]string),
	}
}

// VariantPath returns where a variant's output is written.
func (o *variantOutput) VariantPath(variant int) string {
	return filepath.Join(o.dir, fmt.Sprintf("variant-%d.html", variant))
}

// Chunk appends streamed output for a variant. Chunks for a variant that
// already has a final output are ignored.
func (o *variantOutput) Chunk(value string, variant int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, done := o.written[variant]; done {
		return
	}
	b, ok := o.chunks[variant]
	if !ok {
		b = &strings.Builder{}
		o.chunks[variant] = b
	}
	b.WriteString(value)
}

// Final writes the complete output of a variant, replacing whatever was
// streamed for it. A later final output for the same variant overwrites
// the file.
func (o *variantOutput) Final(value string, variant int) (string, error) {
	if err := os.MkdirAll(o.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := o.VariantPath(variant)
	if err := os.WriteFile(path, []byte(value), 0o600); err != nil {
		return "", fmt.Errorf("failed to write variant %d: %w", variant, err)
	}

	o.mu.Lock()
	o.written[variant] = path
	delete(o.chunks, variant)
	o.mu.Unlock()
	return path, nil
}

// Partial writes streamed output of variants that never finalized, so a
// cancelled or failed session still leaves something to inspect.
func (o *variantOutput) Partial() ([]string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	variants := make([]int, 0, len(o.chunks))
	for v := range o.chunks {
		variants = append(variants, v)
	}
	sort.Ints(variants)

	var paths []string
	for _, v := range variants {
		if err := os.MkdirAll(o.dir, 0o755); err != nil {
			return paths, fmt.Errorf("failed to create output directory: %w", err)
		}
		path := filepath.Join(o.dir, fmt.Sprintf("variant-%d.partial.html", v))
		if err := os.WriteFile(path, []byte(o.chunks[v].String()), 0o600); err != nil {
			return paths, fmt.Errorf("failed to write partial variant %d: %w", v, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Written returns the final output files by variant.
func (o *variantOutput) Written() map[int]string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[int]string, len(o.written))
	for k, v := range o.written {
		out[k] = v
	}
	return out
}
