// Package sanctions maintains the fixed-depth Poseidon Merkle tree of
// sanctioned country codes used to answer "is this country sanctioned"
// membership queries, and to feed the circuit-side sanctions_clear
// predicate with a proof path.
package sanctions

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/zeroidhq/zeroid-core/internal/crypto/poseidon"
)

// DefaultDepth is the tree depth used unless a tree is built otherwise;
// 2^10 = 1024 leaf slots comfortably covers the ISO-3166-1 numeric space.
const DefaultDepth = 10

var (
	ErrEmptyLeaves  = errors.New("sanctions: leaf list is empty")
	ErrTooManyLeaves = errors.New("sanctions: leaf list exceeds tree capacity")
	ErrLeafNotFound = errors.New("sanctions: leaf not present in tree")
)

// Tree is a full binary Merkle tree over Poseidon-2, stored arena-style: one
// slice per level, addressed by index, rather than pointer-linked nodes.
type Tree struct {
	depth  int
	levels [][]*big.Int     // levels[0] = leaves, levels[depth] = [root]
	index  map[string]int   // leaf decimal string -> leaf index, for IndexOf
}

// Build constructs a tree of the given depth from leaves, right-padding with
// zero leaves up to the tree's full 2^depth capacity. Rebuilding is the only
// mutation path — there is no incremental update.
func Build(depth int, leaves []*big.Int) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyLeaves
	}
	capacity := 1 << uint(depth)
	if len(leaves) > capacity {
		return nil, fmt.Errorf("%w: capacity %d, got %d", ErrTooManyLeaves, capacity, len(leaves))
	}

	levels := make([][]*big.Int, depth+1)
	leafLevel := make([]*big.Int, capacity)
	idx := make(map[string]int, len(leaves))
	for i := 0; i < capacity; i++ {
		if i < len(leaves) {
			leafLevel[i] = leaves[i]
			idx[leaves[i].String()] = i
		} else {
			leafLevel[i] = big.NewInt(0)
		}
	}
	levels[0] = leafLevel

	for level := 0; level < depth; level++ {
		cur := levels[level]
		next := make([]*big.Int, len(cur)/2)
		for i := 0; i < len(next); i++ {
			h, err := poseidon.Hash2(cur[2*i], cur[2*i+1])
			if err != nil {
				return nil, fmt.Errorf("sanctions: build level %d: %w", level+1, err)
			}
			next[i] = h
		}
		levels[level+1] = next
	}

	return &Tree{depth: depth, levels: levels, index: idx}, nil
}

// Root returns the tree's root hash.
func (t *Tree) Root() *big.Int {
	return t.levels[t.depth][0]
}

// Depth returns the tree's configured depth.
func (t *Tree) Depth() int {
	return t.depth
}

// IndexOf returns the leaf index for leaf, or -1 if absent.
func (t *Tree) IndexOf(leaf *big.Int) int {
	if idx, ok := t.index[leaf.String()]; ok {
		return idx
	}
	return -1
}

// Contains reports whether leaf is present among the tree's non-padding
// leaves — the membership query the sanctions_clear predicate is built on.
func (t *Tree) Contains(leaf *big.Int) bool {
	return t.IndexOf(leaf) >= 0
}

// GenerateProof returns the sibling path and direction bitstring for leaf
// index i: directions[level] is false when the current node is the left
// child at that level (sibling is on the right), true when it's the right
// child (sibling is on the left).
func (t *Tree) GenerateProof(i int) (siblings []*big.Int, directions []bool, err error) {
	capacity := len(t.levels[0])
	if i < 0 || i >= capacity {
		return nil, nil, fmt.Errorf("%w: index %d out of range [0,%d)", ErrLeafNotFound, i, capacity)
	}

	siblings = make([]*big.Int, t.depth)
	directions = make([]bool, t.depth)

	idx := i
	for level := 0; level < t.depth; level++ {
		isRight := idx%2 == 1
		var siblingIdx int
		if isRight {
			siblingIdx = idx - 1
		} else {
			siblingIdx = idx + 1
		}
		siblings[level] = t.levels[level][siblingIdx]
		directions[level] = isRight
		idx /= 2
	}
	return siblings, directions, nil
}

// VerifyProof recomputes the root from leaf, siblings, and directions and
// compares it against root. A proof generated for a different leaf, or with
// a tampered sibling, fails this check.
func VerifyProof(leaf *big.Int, siblings []*big.Int, directions []bool, root *big.Int) (bool, error) {
	if len(siblings) != len(directions) {
		return false, fmt.Errorf("sanctions: siblings/directions length mismatch")
	}

	cur := leaf
	for level := 0; level < len(siblings); level++ {
		var h *big.Int
		var err error
		if directions[level] {
			// current node is the right child
			h, err = poseidon.Hash2(siblings[level], cur)
		} else {
			h, err = poseidon.Hash2(cur, siblings[level])
		}
		if err != nil {
			return false, fmt.Errorf("sanctions: verify level %d: %w", level, err)
		}
		cur = h
	}
	return cur.Cmp(root) == 0, nil
}
