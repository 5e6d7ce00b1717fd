package sanctions

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"sync/atomic"
)

// List is the on-disk sanctions list format: a JSON object whose
// countryCodes field holds ISO-3166-1 numeric country codes, loaded at boot from
// ZEROID_SANCTIONS_LIST_PATH and rebuilt into the tree on refresh.
type List struct {
	CountryCodes []int `json:"countryCodes"`
}

// defaultList ships a small illustrative set (including 408, DPRK, used in
// the service's own end-to-end sanctioned-country scenario) so the service
// boots with a usable tree even without ZEROID_SANCTIONS_LIST_PATH set.
var defaultList = List{CountryCodes: []int{408, 364, 760, 728, 192}}

// Service owns the sanctions Merkle tree and serves membership queries.
// The tree pointer is replaced atomically on Refresh so concurrent readers
// always observe either the old or the new consistent tree, never a
// partial rebuild.
type Service struct {
	depth int
	tree  atomic.Pointer[Tree]
}

// NewService builds a Service from the list at path (or the bundled default
// if path is empty), at the given tree depth.
func NewService(path string, depth int) (*Service, error) {
	if depth <= 0 {
		depth = DefaultDepth
	}
	s := &Service{depth: depth}
	if err := s.Refresh(path); err != nil {
		return nil, err
	}
	return s, nil
}

// Refresh reloads the sanctions list from path (bundled default if empty)
// and atomically swaps in a freshly built tree.
func (s *Service) Refresh(path string) error {
	list, err := loadList(path)
	if err != nil {
		return err
	}

	leaves := make([]*big.Int, len(list.CountryCodes))
	for i, code := range list.CountryCodes {
		leaves[i] = big.NewInt(int64(code))
	}

	tree, err := Build(s.depth, leaves)
	if err != nil {
		return fmt.Errorf("sanctions: rebuild tree: %w", err)
	}

	s.tree.Store(tree)
	return nil
}

func loadList(path string) (*List, error) {
	if path == "" {
		return &defaultList, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sanctions: read list %q: %w", path, err)
	}

	var list List
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("sanctions: parse list %q: %w", path, err)
	}
	if len(list.CountryCodes) == 0 {
		return nil, fmt.Errorf("sanctions: list %q contains no country codes", path)
	}
	return &list, nil
}

// IsSanctioned reports whether countryCode (ISO-3166-1 numeric) is on the
// currently loaded sanctions list.
func (s *Service) IsSanctioned(countryCode int) bool {
	tree := s.tree.Load()
	return tree.Contains(big.NewInt(int64(countryCode)))
}

// Root returns the current tree's root, e.g. for the sanctions_clear
// circuit public input.
func (s *Service) Root() *big.Int {
	return s.tree.Load().Root()
}

// Proof returns a membership proof for countryCode against the current
// tree, or ErrLeafNotFound if countryCode is not on the list.
func (s *Service) Proof(countryCode int) (leaf *big.Int, siblings []*big.Int, directions []bool, err error) {
	tree := s.tree.Load()
	leaf = big.NewInt(int64(countryCode))
	idx := tree.IndexOf(leaf)
	if idx < 0 {
		return nil, nil, nil, ErrLeafNotFound
	}
	siblings, directions, err = tree.GenerateProof(idx)
	return leaf, siblings, directions, err
}
