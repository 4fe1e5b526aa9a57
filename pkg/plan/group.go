package plan

import "github.com/leapstack-labs/leishu/pkg/core"

// blockStarts returns the index at which each AND-block begins. A new block
// starts at every OR after the first condition; any other logic extends the
// current block. Group and FieldClusters both derive their boundaries here.
func blockStarts(conds []core.Condition) []int {
	if len(conds) == 0 {
		return nil
	}
	starts := []int{0}
	for i := 1; i < len(conds); i++ {
		if conds[i].Logic == core.LogicOr {
			starts = append(starts, i)
		}
	}
	return starts
}

// Group splits conds into AND-blocks. The result is the disjunction of the
// blocks; each block is the conjunction of its conditions.
func Group(conds []core.Condition) [][]core.Condition {
	starts := blockStarts(conds)
	blocks := make([][]core.Condition, len(starts))
	for i, s := range starts {
		end := len(conds)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		blocks[i] = conds[s:end]
	}
	return blocks
}

// FieldClusters returns the distinct field names referenced by each AND-block,
// in first-seen order, using the same boundaries as Group.
func FieldClusters(conds []core.Condition) [][]core.Field {
	starts := blockStarts(conds)
	clusters := make([][]core.Field, len(starts))
	for i, s := range starts {
		end := len(conds)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		seen := make(map[core.Field]bool)
		for _, c := range conds[s:end] {
			if !seen[c.Field] {
				seen[c.Field] = true
				clusters[i] = append(clusters[i], c.Field)
			}
		}
	}
	return clusters
}

// needsTitleSegmentLink reports whether a cluster references both a title
// name and full text, so the segment must be tied to the joined title.
func needsTitleSegmentLink(cluster []core.Field) bool {
	var title, text bool
	for _, f := range cluster {
		switch f {
		case core.FieldTitleName:
			title = true
		case core.FieldFullText:
			text = true
		}
	}
	return title && text
}
