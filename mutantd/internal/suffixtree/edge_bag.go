package suffixtree

import "sort"

// minimum size from which lookups switch to binary search
const bsearchThreshold = 6

type edge struct {
	label string
	dest  nodeId
}

// edgeBag maps the first byte of a label to its edge. Most nodes have a
// handful of edges, so a linear scan over parallel slices beats a map.
type edgeBag struct {
	chars []byte
	edges []*edge
}

func (b *edgeBag) search(c byte) int {
	if len(b.chars) > bsearchThreshold {
		i := sort.Search(len(b.chars), func(i int) bool { return b.chars[i] >= c })
		if i < len(b.chars) && b.chars[i] == c {
			return i
		}
		return -1
	}
	for i, x := range b.chars {
		if x == c {
			return i
		}
	}
	return -1
}

func (b *edgeBag) get(c byte) *edge {
	if i := b.search(c); i >= 0 {
		return b.edges[i]
	}
	return nil
}

// put associates e with c and returns the edge previously stored under c.
func (b *edgeBag) put(c byte, e *edge) (prev *edge) {
	if i := b.search(c); i >= 0 {
		prev, b.edges[i] = b.edges[i], e
		return
	}
	b.chars = append(b.chars, c)
	b.edges = append(b.edges, e)
	if len(b.chars) > bsearchThreshold {
		b.sort()
	}
	return
}

// insertion sort, the slices are sorted except for the last element
func (b *edgeBag) sort() {
	for i := 1; i < len(b.chars); i++ {
		for j := i; j > 0 && b.chars[j-1] > b.chars[j]; j-- {
			b.chars[j-1], b.chars[j] = b.chars[j], b.chars[j-1]
			b.edges[j-1], b.edges[j] = b.edges[j], b.edges[j-1]
		}
	}
}

func (b *edgeBag) len() int { return len(b.chars) }

func (b *edgeBag) values() []*edge { return b.edges }
