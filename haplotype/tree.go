// Package haplotype implements spec.md §4.2's haplotype tree: a rooted DAG
// that accepts alleles one at a time and whose leaves are exactly the
// distinct haplotype strings reachable by choosing, at each position, some
// subset of the extended alleles compatible with that branch.
//
// Grounded on spec.md §4.2's invariants and the worked example in
// original_source/test/haplotype_tree_test.cpp (three alleles at one SNV
// site times two at an adjacent site collapse to 3*2=6 haplotypes — i.e.
// alternative alleles at the same site fork as siblings of a shared parent,
// never as children of one another), with leaf-string dedup backed by
// github.com/dgryski/go-farm hashing.
package haplotype

import (
	"github.com/dgryski/go-farm"

	"github.com/dancooke/octopus/align"
	"github.com/dancooke/octopus/region"
)

type node struct {
	allele   *align.Allele // nil only for the root
	parent   *node
	children []*node
}

func (n *node) childForAllele(a align.Allele) *node {
	for _, c := range n.children {
		if c.allele.Equal(a) {
			return c
		}
	}
	return nil
}

func (n *node) addChild(a align.Allele) *node {
	if c := n.childForAllele(a); c != nil {
		return c
	}
	c := &node{allele: &a, parent: n}
	n.children = append(n.children, c)
	return c
}

func (n *node) removeChild(target *node) {
	for i, c := range n.children {
		if c == target {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return
		}
	}
}

// Tree is spec.md §4.2's haplotype tree.
type Tree struct {
	root   *node
	leaves []*node
	refSeq func(contig string, begin, end uint32) (string, error)
}

// New constructs an empty tree rooted at the reference (no alleles chosen
// yet). refSeq provides reference bases for materialising haplotypes.
func New(refSeq func(contig string, begin, end uint32) (string, error)) *Tree {
	root := &node{}
	return &Tree{root: root, leaves: []*node{root}, refSeq: refSeq}
}

// Extend incorporates one more allele into the tree.
//
// A leaf whose most recently chosen allele overlaps a's region is offered a
// sibling choice: a is attached as an additional child of that leaf's
// parent (never of the leaf itself), and the leaf persists unchanged. A
// leaf with no such conflict is extended directly: a becomes its one new
// child, and the leaf is retired from the frontier.
func (t *Tree) Extend(a align.Allele) {
	old := t.leaves
	seen := make(map[*node]bool, len(old)*2)
	var next []*node
	add := func(n *node) {
		if !seen[n] {
			seen[n] = true
			next = append(next, n)
		}
	}
	for _, leaf := range old {
		if leaf.allele != nil && region.Overlaps(leaf.allele.RegionVal, a.RegionVal) {
			if leaf.allele.Equal(a) {
				add(leaf)
				continue
			}
			sib := leaf.parent.addChild(a)
			add(sib)
			add(leaf)
		} else {
			add(leaf.addChild(a))
		}
	}
	t.leaves = next
}

// pathAlleles walks from n up to the root, returning the constituent
// alleles in genomic order.
func pathAlleles(n *node) []align.Allele {
	var rev []align.Allele
	for cur := n; cur != nil && cur.allele != nil; cur = cur.parent {
		rev = append(rev, *cur.allele)
	}
	out := make([]align.Allele, len(rev))
	for i, a := range rev {
		out[len(rev)-1-i] = a
	}
	return out
}

// ExtractHaplotypes materialises every distinct haplotype string reachable
// from the current frontier, over the given region, deduplicated as
// required by spec.md §4.2's uniqueness invariant.
func (t *Tree) ExtractHaplotypes(r region.GenomicRegion) ([]*align.Haplotype, error) {
	seen := make(map[uint64]bool, len(t.leaves))
	out := make([]*align.Haplotype, 0, len(t.leaves))
	for _, leaf := range t.leaves {
		h, err := align.Build(r, pathAlleles(leaf), t.refSeq)
		if err != nil {
			return nil, err
		}
		key := farm.Hash64([]byte(h.Sequence))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, h)
	}
	return out, nil
}

// NumHaplotypes returns the number of distinct haplotype strings reachable
// from the current frontier over r.
func (t *Tree) NumHaplotypes(r region.GenomicRegion) (int, error) {
	hs, err := t.ExtractHaplotypes(r)
	if err != nil {
		return 0, err
	}
	return len(hs), nil
}

// Prune removes the leaf whose materialised sequence equals h's, along with
// any ancestor branches that become dead as a result (an ancestor with no
// remaining children and not itself a live leaf).
func (t *Tree) Prune(h *align.Haplotype) {
	for i, leaf := range t.leaves {
		built, err := align.Build(h.RegionVal, pathAlleles(leaf), t.refSeq)
		if err != nil || built.Sequence != h.Sequence {
			continue
		}
		t.leaves = append(append([]*node{}, t.leaves[:i]...), t.leaves[i+1:]...)
		n := leaf
		for n.parent != nil {
			p := n.parent
			p.removeChild(n)
			if len(p.children) > 0 {
				break
			}
			n = p
		}
		return
	}
}
