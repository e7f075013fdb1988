// Package codebook indexes KCD/ICD disease codes, including deprecated codes
// and their replacements.
package codebook

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gyaneshwarpardhi/disclosure/internal/event"
)

// Entry is one code in the book.
type Entry struct {
	Code       string `yaml:"code" json:"code"`
	KorName    string `yaml:"kor_name" json:"korName,omitempty"`
	EngName    string `yaml:"eng_name" json:"engName,omitempty"`
	Category   string `yaml:"category" json:"category,omitempty"`
	Deprecated bool   `yaml:"deprecated" json:"deprecated,omitempty"`
	ReplacedBy string `yaml:"replaced_by" json:"replacedBy,omitempty"`
}

// Name returns the Korean name when present, the English one otherwise.
func (e Entry) Name() string {
	if e.KorName != "" {
		return e.KorName
	}
	return e.EngName
}

type file struct {
	Codes []Entry `yaml:"codes"`
}

// Index is an immutable code lookup table.
type Index struct {
	byCode map[string]Entry
}

// New indexes entries by normalized code. Entries whose code does not
// normalize are skipped; later duplicates overwrite earlier ones.
func New(entries []Entry) *Index {
	idx := &Index{byCode: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		code := event.NormalizeCode(e.Code)
		if code == "" {
			continue
		}
		e.Code = code
		e.ReplacedBy = event.NormalizeCode(e.ReplacedBy)
		idx.byCode[code] = e
	}
	return idx
}

// Load reads a codebook YAML file.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read codebook %s: %w", path, err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse codebook %s: %w", path, err)
	}
	return New(f.Codes), nil
}

// Len returns the number of indexed codes.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.byCode)
}

// Lookup finds a code, falling back to its three-character category.
func (idx *Index) Lookup(code string) (Entry, bool) {
	if idx == nil || code == "" {
		return Entry{}, false
	}
	if e, ok := idx.byCode[code]; ok {
		return e, true
	}
	e, ok := idx.byCode[event.CodeCategory(code)]
	return e, ok
}

// Canonical follows the replacement chain of a deprecated code. It returns
// the code unchanged and false when no replacement applies. Only exact code
// matches are replaced, never category fallbacks.
func (idx *Index) Canonical(code string) (string, bool) {
	if idx == nil {
		return code, false
	}
	cur := code
	for hops := 0; hops < 8; hops++ {
		e, ok := idx.byCode[cur]
		if !ok || !e.Deprecated || e.ReplacedBy == "" || e.ReplacedBy == cur {
			break
		}
		cur = e.ReplacedBy
	}
	return cur, cur != code
}
