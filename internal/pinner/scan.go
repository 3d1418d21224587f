package pinner

import (
	"github.com/lotas/autopin/internal/rules"
	"github.com/lotas/autopin/internal/types"
)

// ScanResult is what the controller would do with a set of open tabs.
type ScanResult struct {
	// Pin lists the tabs that would be pinned, in session order.
	Pin []types.Tab
	// Order lists every matching tab in final pinned order.
	Order []types.Tab
	// Rule holds the index of the first matching rule per tab ID.
	Rule map[int]int
}

// Scan replays tabs as a Snapshot against an empty table without
// touching any browser.
func Scan(rs []rules.Rule, tabs []types.Tab) ScanResult {
	byID := make(map[int]types.Tab, len(tabs))
	for _, t := range tabs {
		byID[t.ID] = t
	}

	table, cmds := Step(rs, PriorityTable{}, Config{}, Snapshot{Tabs: tabs})

	res := ScanResult{Rule: make(map[int]int, len(table))}
	for _, cmd := range cmds {
		if p, ok := cmd.(PinTab); ok {
			res.Pin = append(res.Pin, byID[p.TabID])
		}
	}
	for _, id := range Order(table) {
		res.Order = append(res.Order, byID[id])
		res.Rule[id] = table[id]
	}
	return res
}
