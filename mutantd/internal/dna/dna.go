// Package dna decides whether a square grid of nucleotides belongs to a
// mutant by indexing every row, column and diagonal of the grid in a
// generalized suffix tree.
package dna

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// symbols allowed in a grid
	Alphabet = "ACGT"
	// minimum grid side, also the length of a mutant run
	MinSize = 4
	// mutant runs needed to classify a grid as mutant
	MatchesNeeded = 2
)

// runs of MinSize identical symbols, one per symbol of the alphabet
var mutantPatterns = func() (a []string) {
	for i := 0; i < len(Alphabet); i++ {
		a = append(a, strings.Repeat(Alphabet[i:i+1], MinSize))
	}
	return
}()

// Grid is a square matrix given row by row. A nil Grid is absent.
type Grid []string

// Key returns the canonical serialization of g, rows joined by commas.
func Key(g Grid) string {
	return strings.Join(g, ",")
}

// ParseKey is the inverse of Key.
func ParseKey(key string) Grid {
	if key == "" {
		return Grid{}
	}
	return Grid(strings.Split(key, ","))
}

type Classification int

const (
	Human Classification = iota
	Mutant
)

func (c Classification) String() string {
	switch c {
	case Human:
		return "HUMAN"
	case Mutant:
		return "MUTANT"
	default:
		return fmt.Sprintf("Classification(%d)", int(c))
	}
}

func ParseClassification(s string) (Classification, error) {
	switch s {
	case "HUMAN":
		return Human, nil
	case "MUTANT":
		return Mutant, nil
	default:
		return Human, fmt.Errorf("unknown classification: %q", s)
	}
}

func (c Classification) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Classification) UnmarshalJSON(b []byte) (err error) {
	var s string
	if err = json.Unmarshal(b, &s); err != nil {
		return
	}
	*c, err = ParseClassification(s)
	return
}
