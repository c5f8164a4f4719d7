package amenity

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rating describes a school from a published league table.
type Rating struct {
	Name   string `yaml:"name"`
	Rank   int    `yaml:"rank"`
	Rating string `yaml:"rating"`
}

// TopRated indexes top-rated schools by normalised name.
// The zero value matches nothing.
type TopRated struct {
	byName map[string]Rating
}

type topRatedFile struct {
	Schools []Rating `yaml:"schools"`
}

// NewTopRated indexes the given ratings.
func NewTopRated(ratings []Rating) *TopRated {
	idx := &TopRated{byName: make(map[string]Rating, len(ratings))}
	for _, r := range ratings {
		if key := normalizeName(r.Name); key != "" {
			idx.byName[key] = r
		}
	}
	return idx
}

// LoadTopRated parses a YAML (or JSON) document of the form
// {"schools": [{"name": ..., "rank": ..., "rating": ...}]}.
func LoadTopRated(r io.Reader) (*TopRated, error) {
	var f topRatedFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding top-rated schools: %w", err)
	}
	return NewTopRated(f.Schools), nil
}

// LoadTopRatedFile reads a top-rated list from disk. An empty path yields an
// empty index.
func LoadTopRatedFile(path string) (*TopRated, error) {
	if path == "" {
		return NewTopRated(nil), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening top-rated schools: %w", err)
	}
	defer f.Close()
	return LoadTopRated(f)
}

// Lookup returns the rating for a school name.
func (t *TopRated) Lookup(name string) (Rating, bool) {
	if t == nil || t.byName == nil {
		return Rating{}, false
	}
	r, ok := t.byName[normalizeName(name)]
	return r, ok
}

// Len returns the number of indexed schools.
func (t *TopRated) Len() int {
	if t == nil {
		return 0
	}
	return len(t.byName)
}

func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
