package pinner

import "sort"

// Order returns the tab IDs of t sorted by ascending priority, ties
// broken by ascending tab ID, giving a total order.
func Order(t PriorityTable) []int {
	ids := make([]int, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		pi, pj := t[ids[i]], t[ids[j]]
		if pi != pj {
			return pi < pj
		}
		return ids[i] < ids[j]
	})
	return ids
}

// Reorder builds the single move command that lines up every tracked
// pinned tab from the left edge. It reports false for an empty table.
// Calling it repeatedly on the same table yields the same command.
func Reorder(t PriorityTable) (MoveTabs, bool) {
	if len(t) == 0 {
		return MoveTabs{}, false
	}
	return MoveTabs{TabIDs: Order(t), Index: 0}, true
}
