package server

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lotas/autopin/internal/applog"
	"github.com/lotas/autopin/internal/pinner"
	"github.com/lotas/autopin/internal/types"
)

// Menu entry ids sent back in menuClicked messages.
const (
	MenuItemPinURL  = "pinUrl"
	MenuItemPinHost = "pinHost"
)

type wireTab struct {
	ID           int    `json:"id"`
	URL          string `json:"url"`
	Title        string `json:"title"`
	Pinned       bool   `json:"pinned"`
	LastAccessed int64  `json:"lastAccessed"`
	WindowID     int    `json:"windowId"`
	Index        int    `json:"index"`
}

func (wt wireTab) tab() types.Tab {
	t := types.Tab{
		ID:          wt.ID,
		URL:         wt.URL,
		Title:       wt.Title,
		Pinned:      wt.Pinned,
		WindowIndex: wt.WindowID,
		TabIndex:    wt.Index,
	}
	if wt.LastAccessed > 0 {
		t.LastAccessed = time.UnixMilli(wt.LastAccessed)
	}
	return t
}

// ParseSnapshot converts an IncomingMsg of type "snapshot" into a SessionData.
func ParseSnapshot(msg IncomingMsg) (*types.SessionData, error) {
	var tabs []wireTab
	if len(msg.Tabs) > 0 {
		if err := json.Unmarshal(msg.Tabs, &tabs); err != nil {
			return nil, fmt.Errorf("parse tabs: %w", err)
		}
	}
	out := make([]types.Tab, 0, len(tabs))
	for _, wt := range tabs {
		out = append(out, wt.tab())
	}
	return &types.SessionData{
		Tabs:     out,
		ParsedAt: time.Now(),
	}, nil
}

// ParseTab converts a raw JSON tab into a Tab.
func ParseTab(raw json.RawMessage) (*types.Tab, error) {
	var wt wireTab
	if err := json.Unmarshal(raw, &wt); err != nil {
		return nil, err
	}
	t := wt.tab()
	return &t, nil
}

// ToEvent maps an extension message to a dispatcher event. It reports
// false for messages that carry no event.
func ToEvent(msg IncomingMsg) (pinner.Event, bool) {
	switch msg.Type {
	case "snapshot":
		data, err := ParseSnapshot(msg)
		if err != nil {
			applog.Error("ws.snapshot", err)
			return nil, false
		}
		return pinner.Snapshot{Tabs: data.Tabs}, true

	case "tabUpdated":
		ev := pinner.TabUpdated{TabID: msg.TabID, Pinned: msg.Pinned}
		if msg.URL != nil {
			ev.URL = *msg.URL
			ev.HasURL = true
		}
		return ev, true

	case "tabRemoved":
		return pinner.TabRemoved{TabID: msg.TabID}, true

	case "tabActivated":
		return pinner.TabActivated{TabID: msg.TabID}, true

	case "menuClicked":
		if msg.URL == nil {
			return nil, false
		}
		switch msg.MenuItemID {
		case MenuItemPinURL:
			return pinner.MenuPinURL{URL: *msg.URL}, true
		case MenuItemPinHost:
			return pinner.MenuPinHost{URL: *msg.URL}, true
		}
		applog.Warn("ws.menu_unknown", "item", msg.MenuItemID)
		return nil, false

	case "reorder":
		return pinner.ReorderRequested{}, true
	}
	applog.Debug("ws.ignored", "type", msg.Type)
	return nil, false
}
