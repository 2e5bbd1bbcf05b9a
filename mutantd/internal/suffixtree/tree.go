// Package suffixtree implements a generalized suffix tree built online with
// Ukkonen's algorithm. Several strings are indexed in one tree, each tagged
// with a caller supplied integer, and substring queries report the tags of
// the strings containing the substring.
package suffixtree

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrIndexOrder is returned by Insert when the index is lower than one
// already inserted.
var ErrIndexOrder = errors.New("suffixtree: index out of order")

// Result of a counted search.
type Result struct {
	// matching tags, ascending, possibly truncated
	Tags []int `json:"tags"`
	// number of matching tags before truncation
	Total int `json:"total"`
}

// Tree is not safe for concurrent use.
type Tree struct {
	nodes []node
	// last inserted index
	last int
	// number of inserted strings
	size int
	// leaf created or extended most recently, chains suffix links between
	// consecutive extensions
	activeLeaf nodeId
	// bumped by every insertion, invalidates cached counts
	gen uint64
}

func New() *Tree {
	return &Tree{
		nodes:      []node{newNode()},
		activeLeaf: rootId,
		gen:        1,
	}
}

// Len returns the number of inserted strings.
func (t *Tree) Len() int { return t.size }

// Nodes returns the number of nodes, root included.
func (t *Tree) Nodes() int { return len(t.nodes) }

func (t *Tree) newNode() nodeId {
	t.nodes = append(t.nodes, newNode())
	return nodeId(len(t.nodes) - 1)
}

func (t *Tree) edge(n nodeId, c byte) *edge {
	return t.nodes[n].edges.get(c)
}

func (t *Tree) addEdge(n nodeId, c byte, e *edge) {
	t.nodes[n].edges.put(c, e)
}

// addRef records tag at n and along the suffix chain of n.
func (t *Tree) addRef(n nodeId, tag int) {
	for n != noNode && !t.nodes[n].contains(tag) {
		t.nodes[n].addIndex(tag)
		n = t.nodes[n].suffix
	}
}

// Insert adds key to the tree under index. Indexes must be non-decreasing
// across calls; equal indexes are allowed.
func (t *Tree) Insert(key string, index int) error {
	if index < t.last || index < 0 {
		return fmt.Errorf("%w: got %d, expected at least %d",
			ErrIndexOrder, index, t.last)
	}
	t.last = index
	t.size++
	t.gen++

	// previously built nodes are kept, only the active leaf restarts
	t.activeLeaf = rootId

	s, text := rootId, ""
	for i := 0; i < len(key); i++ {
		// text is always a suffix of key[:i], extend it by key[i]
		text = key[i-len(text) : i+1]
		s, text = t.update(s, text, key[i:], index)
		s, text = t.canonize(s, text)
	}

	if leaf := t.activeLeaf; leaf != rootId && leaf != s &&
		t.nodes[leaf].suffix == noNode {
		t.nodes[leaf].suffix = s
	}
	return nil
}

// update adds the transitions for the last byte of part, starting at the
// reference pair (in, part minus its last byte). rest is the unprocessed
// tail of the key, beginning with that byte.
func (t *Tree) update(
	in nodeId, part string, rest string, tag int) (nodeId, string) {
	s, str := in, part
	c := part[len(part)-1]

	oldr := rootId
	endpoint, r := t.testAndSplit(s, str[:len(str)-1], c, rest, tag)

	for !endpoint {
		var leaf nodeId
		if e := t.edge(r, c); e != nil {
			// deeper nodes may exist already, built for earlier strings
			leaf = e.dest
		} else {
			leaf = t.newNode()
			t.addRef(leaf, tag)
			t.addEdge(r, c, &edge{label: rest, dest: leaf})
		}

		if t.activeLeaf != rootId {
			t.nodes[t.activeLeaf].suffix = leaf
		}
		t.activeLeaf = leaf

		if oldr != rootId {
			t.nodes[oldr].suffix = r
		}
		oldr = r

		if link := t.nodes[s].suffix; link == noNode {
			// only the root has no suffix link, drop the first byte
			str = str[1:]
		} else {
			var rem string
			s, rem = t.canonize(link, cutLast(str))
			str = str[len(str)-len(rem)-1:]
		}

		endpoint, r = t.testAndSplit(s, cutLast(str), c, rest, tag)
	}

	if oldr != rootId {
		t.nodes[oldr].suffix = r
	}
	return s, str
}

// testAndSplit reports whether the path part+c already exists below in.
// When part ends inside an edge that does not continue with c, the edge is
// split and the new inner node returned.
func (t *Tree) testAndSplit(
	in nodeId, part string, c byte, rest string, tag int) (bool, nodeId) {
	s, str := t.canonize(in, part)

	if str != "" {
		g := t.edge(s, str[0])
		if len(g.label) > len(str) && g.label[len(str)] == c {
			return true, s
		}
		r := t.newNode()
		g.label = g.label[len(str):]
		t.addEdge(r, g.label[0], g)
		t.addEdge(s, str[0], &edge{label: str, dest: r})
		return false, r
	}

	e := t.edge(s, c)
	if e == nil {
		return false, s
	}
	switch {
	case rest == e.label:
		// rest already ends at e.dest
		t.addRef(e.dest, tag)
		return true, s
	case strings.HasPrefix(rest, e.label):
		return true, s
	case strings.HasPrefix(e.label, rest):
		// rest ends inside the label, make its end explicit
		r := t.newNode()
		t.addRef(r, tag)
		e.label = e.label[len(rest):]
		t.addEdge(r, e.label[0], e)
		t.addEdge(s, c, &edge{label: rest, dest: r})
		return false, s
	default:
		return true, s
	}
}

// canonize descends from n along str as far as whole edge labels match and
// returns the deepest node reached with the unmatched remainder of str.
func (t *Tree) canonize(n nodeId, str string) (nodeId, string) {
	if str == "" {
		return n, str
	}
	g := t.edge(n, str[0])
	for g != nil && strings.HasPrefix(str, g.label) {
		str = str[len(g.label):]
		n = g.dest
		if str != "" {
			g = t.edge(n, str[0])
		}
	}
	return n, str
}

func cutLast(s string) string {
	if s == "" {
		return s
	}
	return s[:len(s)-1]
}

// find returns the node at or right below the end of word.
func (t *Tree) find(word string) nodeId {
	n := rootId
	for i := 0; i < len(word); {
		e := t.edge(n, word[i])
		if e == nil {
			return noNode
		}
		k := len(word) - i
		if k > len(e.label) {
			k = len(e.label)
		}
		if word[i:i+k] != e.label[:k] {
			return noNode
		}
		if len(e.label) >= len(word)-i {
			return e.dest
		}
		n = e.dest
		i += k
	}
	return noNode
}

// collect gathers the distinct tags at and below n, stopping once limit tags
// are found. A negative limit means no limit.
func (t *Tree) collect(n nodeId, limit int) []int {
	seen := make(map[int]struct{})
	var tags []int
	stack := []nodeId{n}
	for len(stack) > 0 {
		x := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, tag := range t.nodes[x].refs {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			if tags = append(tags, tag); len(tags) == limit {
				sort.Ints(tags)
				return tags
			}
		}
		edges := t.nodes[x].edges.values()
		for i := len(edges) - 1; i >= 0; i-- {
			stack = append(stack, edges[i].dest)
		}
	}
	sort.Ints(tags)
	return tags
}

// Search returns the tags of the strings containing word as a substring,
// at most limit of them unless limit is negative. An absent word yields an
// empty slice.
func (t *Tree) Search(word string, limit int) []int {
	n := t.find(word)
	if n == noNode || limit == 0 {
		return []int{}
	}
	return t.collect(n, limit)
}

// SearchWithCount is Search plus the number of matching tags before
// truncation.
func (t *Tree) SearchWithCount(word string, limit int) Result {
	n := t.find(word)
	if n == noNode {
		return Result{Tags: []int{}}
	}
	tags := []int{}
	if limit != 0 {
		tags = t.collect(n, limit)
	}
	return Result{Tags: tags, Total: t.count(n)}
}

// count returns the number of distinct tags below n, memoized until the
// next insertion.
func (t *Tree) count(n nodeId) int {
	if t.nodes[n].countGen != t.gen {
		t.nodes[n].count = len(t.collect(n, -1))
		t.nodes[n].countGen = t.gen
	}
	return t.nodes[n].count
}
