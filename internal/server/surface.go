package server

import (
	"context"
	"fmt"

	"github.com/lotas/autopin/internal/pinner"
	"github.com/lotas/autopin/internal/types"
)

// Surface drives the browser's tabs through the connected extension.
type Surface struct {
	srv *Server
}

// NewSurface returns a pinner.TabSurface backed by srv.
func NewSurface(srv *Server) *Surface {
	return &Surface{srv: srv}
}

func (s *Surface) UpdateTabPinned(ctx context.Context, tabID int, pinned bool) error {
	return s.srv.Send(OutgoingMsg{Action: "pin", TabID: tabID, Pinned: &pinned})
}

func (s *Surface) MoveTabs(ctx context.Context, tabIDs []int, index int) error {
	return s.srv.Send(OutgoingMsg{Action: "move", TabIDs: tabIDs, Index: &index})
}

func (s *Surface) UpdateMenu(ctx context.Context, menu pinner.MenuState) error {
	return s.srv.Send(OutgoingMsg{Action: "menu", MenuState: &menu})
}

// GetTab asks the extension for a tab. A negative response means the
// tab no longer exists.
func (s *Surface) GetTab(ctx context.Context, tabID int) (*types.Tab, error) {
	resp, err := s.srv.Request(ctx, OutgoingMsg{Action: "get", TabID: tabID})
	if err != nil {
		return nil, err
	}
	if resp.OK != nil && !*resp.OK {
		return nil, fmt.Errorf("tab %d: %w", tabID, pinner.ErrTabNotFound)
	}
	if len(resp.Tab) == 0 {
		return nil, fmt.Errorf("tab %d: empty response", tabID)
	}
	tab, err := ParseTab(resp.Tab)
	if err != nil {
		return nil, fmt.Errorf("parse tab %d: %w", tabID, err)
	}
	return tab, nil
}
