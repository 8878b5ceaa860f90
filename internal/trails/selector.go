package trails

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SelectOptions describes which input files become frames and in what order.
type SelectOptions struct {
	Paths      []string `json:"paths"`
	Extensions []string `json:"extensions,omitempty"` // case-insensitive, leading dot optional; empty keeps everything
	Reverse    bool     `json:"reverse,omitempty"`
	MaxCount   int      `json:"max_count,omitempty"` // 0 means no limit

	// Less orders the expanded list before truncation and reversal.
	// Nil means Lexicographic.
	Less func(a, b string) bool `json:"-"`
}

// Lexicographic compares full path strings byte by byte. Capture order is only
// preserved when file names sort the same way the camera numbered them.
func Lexicographic(a, b string) bool { return a < b }

// Select expands, filters, sorts, truncates and optionally reverses the inputs.
func Select(opts SelectOptions) ([]string, error) {
	if opts.MaxCount < 0 {
		return nil, fmt.Errorf("max images must be >= 0, got %d", opts.MaxCount)
	}

	var files []string
	for _, p := range opts.Paths {
		expanded, err := expand(p)
		if err != nil {
			return nil, err
		}
		files = append(files, expanded...)
	}

	if allow := extensionSet(opts.Extensions); len(allow) > 0 {
		kept := files[:0]
		for _, f := range files {
			ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(f), "."))
			if _, ok := allow[ext]; ok {
				kept = append(kept, f)
			}
		}
		files = kept
	}

	less := opts.Less
	if less == nil {
		less = Lexicographic
	}
	sort.SliceStable(files, func(i, j int) bool { return less(files[i], files[j]) })

	if opts.MaxCount > 0 && opts.MaxCount <= len(files) {
		files = files[:opts.MaxCount]
	}

	if opts.Reverse {
		for i, j := 0, len(files)-1; i < j; i, j = i+1, j-1 {
			files[i], files[j] = files[j], files[i]
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w from %v", ErrEmptySelection, opts.Paths)
	}
	return files, nil
}

// expand lists the direct children of a directory, or resolves p as a glob pattern.
// Hidden names are left out unless the pattern itself names one.
func expand(p string) ([]string, error) {
	if st, err := os.Stat(p); err == nil && st.IsDir() {
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, err
		}
		var files []string
		for _, e := range entries {
			if e.IsDir() || isHidden(e.Name()) {
				continue
			}
			files = append(files, filepath.Join(p, e.Name()))
		}
		return files, nil
	}

	matches, err := filepath.Glob(p)
	if err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", p, err)
	}
	if isHidden(filepath.Base(p)) {
		return matches, nil
	}
	files := matches[:0]
	for _, m := range matches {
		if !isHidden(filepath.Base(m)) {
			files = append(files, m)
		}
	}
	return files, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func extensionSet(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			set[e] = struct{}{}
		}
	}
	return set
}
