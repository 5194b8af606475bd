// Package hadith serves the bundled hadith collections.
package hadith

import (
	_ "embed"
	"fmt"
	"strings"

	"deenly/deenly/domain"

	"gopkg.in/yaml.v3"
)

//go:embed collections.yaml
var collectionsYAML []byte

type Hadith struct {
	ID        string `json:"id" yaml:"id"`
	Book      string `json:"book" yaml:"book"`
	Narrator  string `json:"narrator" yaml:"narrator"`
	Number    int    `json:"number" yaml:"number"`
	Text      string `json:"text" yaml:"text"`
	Reference string `json:"reference" yaml:"reference"`
}

type Collection struct {
	ID      string   `json:"id" yaml:"id"`
	Name    string   `json:"name" yaml:"name"`
	Hadiths []Hadith `json:"hadiths" yaml:"hadiths"`
}

// SearchResult is a hit together with the collection it came from.
type SearchResult struct {
	CollectionID string `json:"collection_id"`
	Hadith
}

type Library struct {
	collections []Collection
}

// Load parses the bundled collections.
func Load() (*Library, error) {
	return Parse(collectionsYAML)
}

func Parse(data []byte) (*Library, error) {
	var cols []Collection
	if err := yaml.Unmarshal(data, &cols); err != nil {
		return nil, fmt.Errorf("parse hadith collections: %w", err)
	}
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		if c.ID == "" || seen[c.ID] {
			return nil, fmt.Errorf("parse hadith collections: missing or duplicate id %q", c.ID)
		}
		seen[c.ID] = true
	}
	return &Library{collections: cols}, nil
}

// Collections lists every collection without its hadiths.
func (l *Library) Collections() []Collection {
	out := make([]Collection, 0, len(l.collections))
	for _, c := range l.collections {
		out = append(out, Collection{ID: c.ID, Name: c.Name})
	}
	return out
}

func (l *Library) Collection(id string) (Collection, error) {
	for _, c := range l.collections {
		if c.ID == id {
			return c, nil
		}
	}
	return Collection{}, domain.ErrNotFound
}

// Search matches query case-insensitively against text, narrator, book and
// reference. An empty query matches nothing.
func (l *Library) Search(query string) []SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []SearchResult
	for _, c := range l.collections {
		for _, h := range c.Hadiths {
			if matches(h, q) {
				out = append(out, SearchResult{CollectionID: c.ID, Hadith: h})
			}
		}
	}
	return out
}

func matches(h Hadith, q string) bool {
	for _, field := range []string{h.Text, h.Narrator, h.Book, h.Reference} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
