package pinner

// PriorityTable maps a tab ID to the index of the rule that pinned it.
// Values are treated as immutable: the With/Without helpers return a new
// table and leave the receiver untouched.
type PriorityTable map[int]int

// With returns a copy of t with tabID set to priority. The receiver is
// returned as-is when the entry already holds that value.
func (t PriorityTable) With(tabID, priority int) PriorityTable {
	if p, ok := t[tabID]; ok && p == priority {
		return t
	}
	out := t.clone()
	out[tabID] = priority
	return out
}

// Without returns a copy of t lacking tabID, or t itself if absent.
func (t PriorityTable) Without(tabID int) PriorityTable {
	if _, ok := t[tabID]; !ok {
		return t
	}
	out := t.clone()
	delete(out, tabID)
	return out
}

// Retain returns a table holding only the entries whose tab ID is in keep.
func (t PriorityTable) Retain(keep map[int]bool) PriorityTable {
	drop := false
	for id := range t {
		if !keep[id] {
			drop = true
			break
		}
	}
	if !drop {
		return t
	}
	out := make(PriorityTable, len(keep))
	for id, p := range t {
		if keep[id] {
			out[id] = p
		}
	}
	return out
}

func (t PriorityTable) clone() PriorityTable {
	out := make(PriorityTable, len(t)+1)
	for k, v := range t {
		out[k] = v
	}
	return out
}
