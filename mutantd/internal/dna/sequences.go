package dna

import (
	"strings"
	"unicode/utf8"
)

// Validate checks that g is present and has at least MinSize rows, then
// checks row by row that each has N symbols, all of Alphabet.
func Validate(g Grid) error {
	if g == nil {
		return invalidf("dna cannot be null")
	}
	n := len(g)
	if n < MinSize {
		return invalidf("size must be at least %dx%d", MinSize, MinSize)
	}
	for i, row := range g {
		if len(row) != n {
			return invalidf("sequence matrix must be NxN, row %d has length %d", i, len(row))
		}
		for j := 0; j < len(row); j++ {
			if strings.IndexByte(Alphabet, row[j]) < 0 {
				c, _ := utf8.DecodeRuneInString(row[j:])
				return invalidf("invalid character %q in row %d", c, i)
			}
		}
	}
	return nil
}

// Sequences validates g and returns its rows, columns and the diagonals of
// both directions long enough to hold a mutant run.
//
// For every r the result holds row r, column r, then the diagonals starting
// on the top edge at column r and, for r > 0, on the left or right edge at
// row r. Each diagonal of length at least MinSize appears exactly once.
func Sequences(g Grid) ([]string, error) {
	if err := Validate(g); err != nil {
		return nil, err
	}
	n := len(g)
	seqs := make([]string, 0, 2*n+4*(n-MinSize+1))

	// walk the diagonal starting at (row, col) in direction dc
	diagonal := func(row, col, dc int) string {
		var sb strings.Builder
		sb.Grow(n - row)
		for ; row < n && col >= 0 && col < n; row, col = row+1, col+dc {
			sb.WriteByte(g[row][col])
		}
		return sb.String()
	}

	for r := 0; r < n; r++ {
		seqs = append(seqs, g[r])

		var sb strings.Builder
		sb.Grow(n)
		for _, row := range g {
			sb.WriteByte(row[r])
		}
		seqs = append(seqs, sb.String())

		if n-r < MinSize {
			continue
		}
		seqs = append(seqs,
			diagonal(0, r, 1),      // ↘ from the top edge
			diagonal(0, n-1-r, -1)) // ↙ from the top edge
		if r > 0 {
			seqs = append(seqs,
				diagonal(r, 0, 1),    // ↘ from the left edge
				diagonal(r, n-1, -1)) // ↙ from the right edge
		}
	}
	return seqs, nil
}
