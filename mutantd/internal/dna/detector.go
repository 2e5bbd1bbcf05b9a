package dna

import (
	"fmt"

	"github.com/ntons/mutant/mutantd/internal/suffixtree"
)

// Index is a substring index over a list of sequences; the tag of a
// sequence is its position in the list.
type Index struct {
	tree *suffixtree.Tree
}

// BuildIndex inserts seqs into a fresh suffix tree.
func BuildIndex(seqs []string) (*Index, error) {
	tree := suffixtree.New()
	for i, s := range seqs {
		if err := tree.Insert(s, i); err != nil {
			return nil, fmt.Errorf("failed to index sequence %d: %w", i, err)
		}
	}
	return &Index{tree: tree}, nil
}

// Nodes returns the size of the underlying tree, root included.
func (idx *Index) Nodes() int { return idx.tree.Nodes() }

// Query returns the tags of the sequences containing pattern, at most limit
// of them unless limit is negative, and the untruncated count.
func (idx *Index) Query(pattern string, limit int) suffixtree.Result {
	return idx.tree.SearchWithCount(pattern, limit)
}

// Classify reports whether g holds at least MatchesNeeded runs of MinSize
// identical symbols across its rows, columns and diagonals. A sequence
// counts once per pattern it contains.
func Classify(g Grid) (Classification, error) {
	seqs, err := Sequences(g)
	if err != nil {
		return Human, err
	}
	idx, err := BuildIndex(seqs)
	if err != nil {
		return Human, err
	}
	matches := 0
	for _, p := range mutantPatterns {
		matches += len(idx.tree.Search(p, MatchesNeeded))
		if matches >= MatchesNeeded {
			return Mutant, nil
		}
	}
	return Human, nil
}

func IsMutant(g Grid) (bool, error) {
	c, err := Classify(g)
	return c == Mutant, err
}
