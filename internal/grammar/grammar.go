// Package grammar loads the per-language name lists that constrain the
// recognizer's vocabulary.
//
// A grammar file is plain UTF-8 text, one name per line. The loaded Grammar
// is immutable; updating the list means appending to the file and loading it
// again through the registry.
package grammar

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNotFound is returned (wrapped) when the grammar file does not exist or
// cannot be read.
var ErrNotFound = errors.New("grammar: file not found")

// ErrEmpty is returned (wrapped) when the grammar file contains no
// non-empty lines. Recognizer behaviour with an empty vocabulary is
// undefined, so loading fails fast instead.
var ErrEmpty = errors.New("grammar: no names in file")

// Grammar is an ordered, immutable list of names forming a closed
// vocabulary.
type Grammar struct {
	names []string
	json  string
}

// Load reads the grammar file at path. Lines are trimmed of surrounding
// whitespace and blank lines are skipped; order is preserved and duplicates
// are kept as-is.
func Load(path string) (*Grammar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("grammar: open %q: %w: %w", path, ErrNotFound, err)
	}
	defer f.Close()

	var names []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		name := strings.TrimSpace(sc.Text())
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("grammar: read %q: %w: %w", path, ErrNotFound, err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("grammar: %q: %w", path, ErrEmpty)
	}

	return New(names)
}

// New builds a Grammar from an already-assembled name list.
func New(names []string) (*Grammar, error) {
	if len(names) == 0 {
		return nil, ErrEmpty
	}
	cp := make([]string, len(names))
	copy(cp, names)

	enc, err := json.Marshal(cp)
	if err != nil {
		return nil, fmt.Errorf("grammar: encode vocabulary: %w", err)
	}
	return &Grammar{names: cp, json: string(enc)}, nil
}

// Names returns a copy of the vocabulary in file order.
func (g *Grammar) Names() []string {
	cp := make([]string, len(g.names))
	copy(cp, g.names)
	return cp
}

// Len returns the number of names in the vocabulary.
func (g *Grammar) Len() int { return len(g.names) }

// JSON returns the vocabulary serialised as a JSON array of strings, the
// constraint format the recognizer accepts.
func (g *Grammar) JSON() string { return g.json }

// Contains reports whether name is already in the vocabulary, compared
// case-insensitively.
func (g *Grammar) Contains(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, n := range g.names {
		if strings.ToLower(n) == name {
			return true
		}
	}
	return false
}

// Append adds name to the grammar file at path unless an equal name (case
// insensitive) is already present. It reports whether the file was modified.
// The caller is responsible for reloading the grammar afterwards.
func Append(path, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, errors.New("grammar: name must not be empty")
	}

	g, err := Load(path)
	if err != nil && !errors.Is(err, ErrEmpty) {
		return false, err
	}
	if g != nil && g.Contains(name) {
		return false, nil
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return false, fmt.Errorf("grammar: open %q for append: %w: %w", path, ErrNotFound, err)
	}
	defer f.Close()

	// Leading newline guards against a file whose last line has no
	// terminator; the loader skips the blank line this can produce.
	if _, err := fmt.Fprintf(f, "\n%s", name); err != nil {
		return false, fmt.Errorf("grammar: append to %q: %w", path, err)
	}
	return true, nil
}
