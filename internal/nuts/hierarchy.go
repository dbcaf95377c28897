package nuts

import (
	"sort"

	"github.com/rotisserie/eris"
)

// hierarchy is an explicit parent/children index over the loaded regions.
// NUTS identifiers are hierarchical by construction (each level appends one
// character to the parent identifier), so the adjacency is derived once by
// prefix truncation instead of slicing strings at query time.
type hierarchy struct {
	regions  map[string]*Region
	parents  map[string]string
	children map[string][]string
}

// newHierarchy builds the arena and adjacency maps. With strict set, every
// region above minLevel must have its direct parent present, otherwise
// construction fails with ErrHierarchyViolation. By default missing ancestors
// are tolerated: a finder loaded with a restricted level range simply stops
// ancestor resolution at the lowest loaded level.
func newHierarchy(regions []*Region, strict bool, minLevel int) (*hierarchy, error) {
	h := &hierarchy{
		regions:  make(map[string]*Region, len(regions)),
		parents:  make(map[string]string, len(regions)),
		children: make(map[string][]string),
	}

	for _, r := range regions {
		if _, dup := h.regions[r.id]; dup {
			return nil, eris.Wrapf(ErrInvalidInput, "nuts: duplicate region identifier %q", r.id)
		}
		h.regions[r.id] = r
	}

	for _, r := range regions {
		parent := h.lookupParent(r.id)
		if parent == nil {
			if strict && r.level > minLevel {
				return nil, eris.Wrapf(ErrHierarchyViolation, "nuts: region %q (level %d) has no parent in the loaded set", r.id, r.level)
			}
			continue
		}
		if strict && parent.level != r.level-1 {
			return nil, eris.Wrapf(ErrHierarchyViolation, "nuts: region %q (level %d) has nearest ancestor %q at level %d", r.id, r.level, parent.id, parent.level)
		}
		h.parents[r.id] = parent.id
		h.children[parent.id] = append(h.children[parent.id], r.id)
	}

	for _, ids := range h.children {
		sort.Strings(ids)
	}

	return h, nil
}

// lookupParent finds the nearest loaded ancestor by truncating the
// identifier one character at a time.
func (h *hierarchy) lookupParent(id string) *Region {
	for i := len(id) - 1; i > 0; i-- {
		if r, ok := h.regions[id[:i]]; ok {
			return r
		}
	}
	return nil
}

// Region returns the loaded region with the given identifier.
func (h *hierarchy) Region(id string) (*Region, bool) {
	r, ok := h.regions[id]
	return r, ok
}

// AncestorsOf returns the loaded ancestors of a region ordered from the
// immediate parent up to the root. Resolution stops at the first identifier
// not present in the loaded set.
func (h *hierarchy) AncestorsOf(id string) []*Region {
	var out []*Region
	for {
		pid, ok := h.parents[id]
		if !ok {
			return out
		}
		out = append(out, h.regions[pid])
		id = pid
	}
}

// ChildrenOf returns the direct children of a region present in the loaded
// set, ordered by identifier.
func (h *hierarchy) ChildrenOf(id string) []*Region {
	ids := h.children[id]
	out := make([]*Region, 0, len(ids))
	for _, cid := range ids {
		out = append(out, h.regions[cid])
	}
	return out
}
