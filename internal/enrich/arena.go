package enrich

import (
	"sort"

	"github.com/leapstack-labs/leishu/pkg/core"
)

// arena indexes one document's title tree by id.
type arena struct {
	nodes    map[int64]core.Title
	children map[int64][]int64
}

func newArena(titles []core.Title) *arena {
	a := &arena{
		nodes:    make(map[int64]core.Title, len(titles)),
		children: make(map[int64][]int64),
	}
	for _, t := range titles {
		a.nodes[t.ID] = t
		if t.ParentID != 0 {
			a.children[t.ParentID] = append(a.children[t.ParentID], t.ID)
		}
	}
	for parent, kids := range a.children {
		sort.SliceStable(kids, func(i, j int) bool {
			x, y := a.nodes[kids[i]], a.nodes[kids[j]]
			if x.Order != y.Order {
				return x.Order < y.Order
			}
			return x.ID < y.ID
		})
		a.children[parent] = kids
	}
	return a
}
