package suffixtree

import "sort"

// nodeId addresses a node in the tree arena
type nodeId int32

const (
	noNode nodeId = -1
	rootId nodeId = 0
)

type node struct {
	edges edgeBag
	// suffix link, only followed while inserting and propagating refs,
	// never used to reach a node from its parent
	suffix nodeId
	// tags of the strings ending here, ascending because tags are
	// inserted in non-decreasing order
	refs []int
	// distinct tags below this node, valid while countGen matches the
	// tree generation
	count    int
	countGen uint64
}

func newNode() node {
	return node{suffix: noNode}
}

func (n *node) contains(tag int) bool {
	i := sort.SearchInts(n.refs, tag)
	return i < len(n.refs) && n.refs[i] == tag
}

func (n *node) addIndex(tag int) {
	if k := len(n.refs); k > 0 && n.refs[k-1] > tag {
		i := sort.SearchInts(n.refs, tag)
		n.refs = append(n.refs, 0)
		copy(n.refs[i+1:], n.refs[i:])
		n.refs[i] = tag
		return
	}
	n.refs = append(n.refs, tag)
}
