// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package category maps opgave titles onto the canonical exam categories.
// The built-in table is embedded; a YAML file with the same shape can add
// categories and aliases or override existing aliases.
package category

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/kortsvar/pkg/types"
)

//go:embed categories.yaml
var builtinTable []byte

// ErrUnknownCategory is wrapped by every NormalizationError.
var ErrUnknownCategory = errors.New("unknown category")

// topicPrefixRe strips a "Hovedemne 3:" style prefix from opgave titles.
var topicPrefixRe = regexp.MustCompile(`(?i)^Hovedemne\s+\d+\s*[:–-]\s*`)

// Table is the on-disk shape of a category table.
type Table struct {
	Categories []string          `yaml:"categories"`
	Aliases    map[string]string `yaml:"aliases"`
}

// NormalizationError reports an opgave title that matches neither an alias
// nor a canonical category.
type NormalizationError struct {
	Title  string
	Opgave int
	Year   int
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("Unknown category '%s' for opgave %d (%d)", e.Title, e.Opgave, e.Year)
}

func (e *NormalizationError) Unwrap() error {
	return ErrUnknownCategory
}

// Normalizer resolves titles against canonical categories and aliases.
type Normalizer struct {
	categories []string
	canonical  map[string]string // lower-case name -> canonical name
	aliases    map[string]string // lower-case alias -> canonical name
}

// Default returns a normalizer over the built-in table.
func Default() *Normalizer {
	n := &Normalizer{
		canonical: make(map[string]string),
		aliases:   make(map[string]string),
	}
	var t Table
	if err := yaml.Unmarshal(builtinTable, &t); err != nil {
		panic(fmt.Sprintf("category: parsing built-in table: %v", err))
	}
	if err := n.Merge(t); err != nil {
		panic(fmt.Sprintf("category: built-in table: %v", err))
	}
	return n
}

// LoadFile returns the built-in normalizer extended with the table at path.
// An empty path yields Default().
func LoadFile(path string) (*Normalizer, error) {
	n := Default()
	if path == "" {
		return n, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading category table: %w", err)
	}
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing category table %s: %w", path, err)
	}
	if err := n.Merge(t); err != nil {
		return nil, fmt.Errorf("category table %s: %w", path, err)
	}
	return n, nil
}

// Merge adds the categories of t and then its aliases. An alias must point
// at a known category; aliases already present are overridden.
func (n *Normalizer) Merge(t Table) error {
	for _, c := range t.Categories {
		c = clean(c)
		if c == "" {
			continue
		}
		if _, ok := n.canonical[strings.ToLower(c)]; ok {
			continue
		}
		n.categories = append(n.categories, c)
		n.canonical[strings.ToLower(c)] = c
	}
	for alias, target := range t.Aliases {
		canonical, ok := n.canonical[strings.ToLower(clean(target))]
		if !ok {
			return fmt.Errorf("alias %q points at unknown category %q", alias, target)
		}
		n.aliases[strings.ToLower(clean(alias))] = canonical
	}
	return nil
}

// Normalize returns the canonical category for value. Aliases take
// precedence over canonical names.
func (n *Normalizer) Normalize(value string) (string, error) {
	cleaned := clean(value)
	if cleaned == "" {
		return "", fmt.Errorf("missing category value: %w", ErrUnknownCategory)
	}
	lowered := strings.ToLower(cleaned)
	if c, ok := n.aliases[lowered]; ok {
		return c, nil
	}
	if c, ok := n.canonical[lowered]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownCategory, cleaned)
}

// ForQuestion normalizes the opgave title of q after stripping any
// "Hovedemne n:" prefix.
func (n *Normalizer) ForQuestion(q *types.Question) (string, error) {
	title := StripTopicPrefix(q.OpgaveTitle)
	c, err := n.Normalize(title)
	if err != nil {
		return "", &NormalizationError{Title: title, Opgave: q.Opgave, Year: q.Year}
	}
	return c, nil
}

// Categories returns the canonical categories in table order.
func (n *Normalizer) Categories() []string {
	return append([]string(nil), n.categories...)
}

// Alias is one alias entry.
type Alias struct {
	Alias    string
	Category string
}

// Aliases returns all aliases sorted by alias.
func (n *Normalizer) Aliases() []Alias {
	out := make([]Alias, 0, len(n.aliases))
	for a, c := range n.aliases {
		out = append(out, Alias{Alias: a, Category: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Alias < out[j].Alias })
	return out
}

// StripTopicPrefix removes a leading "Hovedemne n:" from title. A title
// that is nothing but the prefix is returned unchanged.
func StripTopicPrefix(title string) string {
	stripped := strings.TrimSpace(topicPrefixRe.ReplaceAllString(title, ""))
	if stripped == "" {
		return title
	}
	return stripped
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
