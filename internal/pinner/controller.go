package pinner

import "github.com/lotas/autopin/internal/rules"

// Step applies one event to the priority table and returns the updated
// table together with the commands to issue. It never mutates table or
// rs; an event that changes nothing returns the same table value.
func Step(rs []rules.Rule, table PriorityTable, cfg Config, ev Event) (PriorityTable, []Command) {
	switch ev := ev.(type) {
	case TabUpdated:
		next, pinned := applyUpdate(rs, table, ev)
		if !pinned {
			return next, nil
		}
		cmds := []Command{PinTab{TabID: ev.TabID}}
		if cfg.Reorder {
			if mv, ok := Reorder(next); ok {
				cmds = append(cmds, mv)
			}
		}
		return next, cmds

	case TabRemoved:
		return table.Without(ev.TabID), nil

	case Snapshot:
		return applySnapshot(rs, table, cfg, ev)

	case TabActivated:
		return table, []Command{QueryTab{TabID: ev.TabID}}

	case TabInfo:
		if ev.URL == "" {
			return table, nil
		}
		return table, []Command{UpdateMenu{Menu: menuFor(rs, ev.URL)}}

	case MenuPinURL:
		return table, addRule(rs, ev.URL, rules.BuildRuleFromURL)

	case MenuPinHost:
		return table, addRule(rs, ev.URL, rules.BuildRuleFromOrigin)

	case ReorderRequested:
		if mv, ok := Reorder(table); ok {
			return table, []Command{mv}
		}
		return table, nil
	}
	return table, nil
}

// applyUpdate records the priority of a matching tab and reports whether
// a pin command is due. Already pinned tabs get their priority refreshed
// but are never pinned again.
func applyUpdate(rs []rules.Rule, table PriorityTable, ev TabUpdated) (PriorityTable, bool) {
	if !ev.HasURL || ev.URL == "" {
		return table, false
	}
	_, idx, ok := rules.FindMatch(rs, ev.URL)
	if !ok {
		return table, false
	}
	return table.With(ev.TabID, idx), !ev.Pinned
}

func applySnapshot(rs []rules.Rule, table PriorityTable, cfg Config, ev Snapshot) (PriorityTable, []Command) {
	open := make(map[int]bool, len(ev.Tabs))
	for _, t := range ev.Tabs {
		open[t.ID] = true
	}
	next := table.Retain(open)

	var cmds []Command
	for _, t := range ev.Tabs {
		var pin bool
		next, pin = applyUpdate(rs, next, TabUpdated{
			TabID:  t.ID,
			URL:    t.URL,
			HasURL: t.URL != "",
			Pinned: t.Pinned,
		})
		if pin {
			cmds = append(cmds, PinTab{TabID: t.ID})
		}
	}
	if cfg.Reorder && len(cmds) > 0 {
		if mv, ok := Reorder(next); ok {
			cmds = append(cmds, mv)
		}
	}
	return next, cmds
}

// menuFor enables both entries exactly when no rule pins url yet. Every
// non-empty URL has an origin prefix, falling back to the URL itself, so
// the host entry never needs its own guard.
func menuFor(rs []rules.Rule, url string) MenuState {
	enabled := !rules.IsPinnable(rs, url)
	return MenuState{
		URL:            url,
		Origin:         rules.ExtractOriginPrefix(url),
		PinURLEnabled:  enabled,
		PinHostEnabled: enabled,
	}
}

// addRule appends the rule built from url. A click on a menu that went
// stale after url became pinnable only refreshes the menu.
func addRule(rs []rules.Rule, url string, build func(string) rules.Rule) []Command {
	if url == "" {
		return nil
	}
	if rules.IsPinnable(rs, url) {
		return []Command{UpdateMenu{Menu: menuFor(rs, url)}}
	}
	added := build(url)
	next := make([]rules.Rule, 0, len(rs)+1)
	next = append(next, rs...)
	next = append(next, added)
	return []Command{
		SaveRules{Rules: next, Added: added},
		UpdateMenu{Menu: menuFor(next, url)},
	}
}
