package pinner

import (
	"context"
	"errors"

	"github.com/lotas/autopin/internal/rules"
	"github.com/lotas/autopin/internal/types"
)

// Event is an input to Step.
type Event interface{ isEvent() }

// TabUpdated reports a navigation or update of a tab. HasURL is false
// when the update did not carry a URL (title or favicon changes).
type TabUpdated struct {
	TabID  int
	URL    string
	HasURL bool
	Pinned bool
}

// TabRemoved reports a closed tab.
type TabRemoved struct {
	TabID int
}

// TabActivated reports that a tab became the active one; the menu is
// refreshed for its URL once the tab has been looked up.
type TabActivated struct {
	TabID int
}

// TabInfo carries the result of a QueryTab command back into the loop.
type TabInfo struct {
	TabID int
	URL   string
}

// Snapshot lists every open tab, sent by the extension when it connects.
type Snapshot struct {
	Tabs []types.Tab
}

// MenuPinURL asks for an exact rule for URL.
type MenuPinURL struct {
	URL string
}

// MenuPinHost asks for an origin rule covering URL.
type MenuPinHost struct {
	URL string
}

// ReorderRequested asks for a reorder regardless of configuration.
type ReorderRequested struct{}

// ConfigChanged replaces the controller configuration.
type ConfigChanged struct {
	Config Config
}

func (TabUpdated) isEvent()       {}
func (TabRemoved) isEvent()       {}
func (TabActivated) isEvent()     {}
func (TabInfo) isEvent()          {}
func (Snapshot) isEvent()         {}
func (MenuPinURL) isEvent()       {}
func (MenuPinHost) isEvent()      {}
func (ReorderRequested) isEvent() {}
func (ConfigChanged) isEvent()    {}

// Command is an outbound instruction produced by Step.
type Command interface{ isCommand() }

// PinTab pins a tab.
type PinTab struct {
	TabID int
}

// MoveTabs moves TabIDs, in order, to Index.
type MoveTabs struct {
	TabIDs []int
	Index  int
}

// QueryTab looks a tab up on the tab surface and feeds a TabInfo back.
type QueryTab struct {
	TabID int
}

// UpdateMenu sets the state of the context menu entries for URL.
type UpdateMenu struct {
	Menu MenuState
}

// SaveRules persists a rule appended from the menu. Rules is the whole
// set after the append.
type SaveRules struct {
	Rules []rules.Rule
	Added rules.Rule
}

func (PinTab) isCommand()     {}
func (MoveTabs) isCommand()   {}
func (QueryTab) isCommand()   {}
func (UpdateMenu) isCommand() {}
func (SaveRules) isCommand()  {}

// MenuState describes the "pin this URL" and "pin this host" entries.
type MenuState struct {
	URL            string `json:"url"`
	Origin         string `json:"origin"`
	PinURLEnabled  bool   `json:"pinUrlEnabled"`
	PinHostEnabled bool   `json:"pinHostEnabled"`
}

// Config holds the controller settings that come from the settings store.
type Config struct {
	Reorder bool
}

// ErrTabNotFound is returned by TabSurface.GetTab for unknown tabs.
var ErrTabNotFound = errors.New("tab not found")

// TabSurface is the browser's tab management API.
type TabSurface interface {
	UpdateTabPinned(ctx context.Context, tabID int, pinned bool) error
	MoveTabs(ctx context.Context, tabIDs []int, index int) error
	GetTab(ctx context.Context, tabID int) (*types.Tab, error)
	UpdateMenu(ctx context.Context, menu MenuState) error
}

// RuleSaver persists rules added from the menu. Only the added rule is
// validated, so an invalid rule already in the store does not block it.
type RuleSaver interface {
	AppendRule(ctx context.Context, r rules.Rule) error
}
