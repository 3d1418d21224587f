package pinner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/lotas/autopin/internal/rules"
	"github.com/lotas/autopin/internal/types"
)

// fakeSurface records every call as a string and signals on calls.
type fakeSurface struct {
	mu     sync.Mutex
	calls  []string
	tabs   map[int]string
	pinErr error
	called chan string
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{tabs: map[int]string{}, called: make(chan string, 64)}
}

func (f *fakeSurface) record(s string) {
	f.mu.Lock()
	f.calls = append(f.calls, s)
	f.mu.Unlock()
	f.called <- s
}

func (f *fakeSurface) UpdateTabPinned(_ context.Context, tabID int, pinned bool) error {
	f.record(fmt.Sprintf("pin %d %v", tabID, pinned))
	return f.pinErr
}

func (f *fakeSurface) MoveTabs(_ context.Context, tabIDs []int, index int) error {
	f.record(fmt.Sprintf("move %v %d", tabIDs, index))
	return nil
}

func (f *fakeSurface) GetTab(_ context.Context, tabID int) (*types.Tab, error) {
	f.mu.Lock()
	url, ok := f.tabs[tabID]
	f.mu.Unlock()
	if !ok {
		return nil, ErrTabNotFound
	}
	return &types.Tab{ID: tabID, URL: url}, nil
}

func (f *fakeSurface) UpdateMenu(_ context.Context, m MenuState) error {
	f.record(fmt.Sprintf("menu %s %v %v", m.URL, m.PinURLEnabled, m.PinHostEnabled))
	return nil
}

func (f *fakeSurface) wait(t *testing.T) string {
	t.Helper()
	select {
	case s := <-f.called:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for surface call")
		return ""
	}
}

type fakeSaver struct {
	mu    sync.Mutex
	saved []rules.Rule
}

func (s *fakeSaver) AppendRule(_ context.Context, r rules.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, r)
	return nil
}

func startDispatcher(t *testing.T, repo *rules.Repository, surface TabSurface, saver RuleSaver, cfg Config) *Dispatcher {
	t.Helper()
	d := NewDispatcher(repo, surface, saver, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- d.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-errc; !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v", err)
		}
	})
	return d
}

func TestDispatcherPinsAndReorders(t *testing.T) {
	repo := rules.NewRepository([]rules.Rule{
		rules.NewRule("https://a/", false),
		rules.NewRule("https://b/", false),
	})
	surface := newFakeSurface()
	d := startDispatcher(t, repo, surface, nil, Config{Reorder: true})

	d.Post(TabUpdated{TabID: 2, URL: "https://b/", HasURL: true})
	if got := surface.wait(t); got != "pin 2 true" {
		t.Errorf("got %q", got)
	}
	if got := surface.wait(t); got != "move [2] 0" {
		t.Errorf("got %q", got)
	}

	d.Post(TabUpdated{TabID: 1, URL: "https://a/", HasURL: true})
	surface.wait(t)
	if got := surface.wait(t); got != "move [1 2] 0" {
		t.Errorf("got %q", got)
	}

	d.Post(TabRemoved{TabID: 1})
	d.Post(ReorderRequested{})
	if got := surface.wait(t); got != "move [2] 0" {
		t.Errorf("got %q", got)
	}
	if diff := cmp.Diff(PriorityTable{2: 1}, d.Table()); diff != "" {
		t.Errorf("table (-want +got):\n%s", diff)
	}
}

func TestDispatcherSeesReplacedRules(t *testing.T) {
	repo := rules.NewRepository(nil)
	surface := newFakeSurface()
	d := startDispatcher(t, repo, surface, nil, Config{})

	repo.Replace([]rules.Rule{rules.NewRule("https://late/", false)})
	d.Post(TabUpdated{TabID: 3, URL: "https://late/", HasURL: true})
	if got := surface.wait(t); got != "pin 3 true" {
		t.Errorf("got %q", got)
	}
}

func TestDispatcherConfigChange(t *testing.T) {
	repo := rules.NewRepository([]rules.Rule{rules.NewRule("x", true)})
	surface := newFakeSurface()
	d := startDispatcher(t, repo, surface, nil, Config{})

	d.SetConfig(Config{Reorder: true})
	d.Post(TabUpdated{TabID: 1, URL: "x", HasURL: true})
	surface.wait(t)
	if got := surface.wait(t); got != "move [1] 0" {
		t.Errorf("got %q", got)
	}
	if !d.Config().Reorder {
		t.Error("Config() not updated")
	}
}

func TestDispatcherSwallowsPinErrors(t *testing.T) {
	repo := rules.NewRepository([]rules.Rule{rules.NewRule("x", true)})
	surface := newFakeSurface()
	surface.pinErr = errors.New("no tab with id 1")
	d := startDispatcher(t, repo, surface, nil, Config{})

	d.Post(TabUpdated{TabID: 1, URL: "x", HasURL: true})
	surface.wait(t)
	d.Post(TabUpdated{TabID: 2, URL: "x", HasURL: true})
	if got := surface.wait(t); got != "pin 2 true" {
		t.Errorf("dispatcher stopped after error, got %q", got)
	}
}

func TestDispatcherMenuFlow(t *testing.T) {
	repo := rules.NewRepository(nil)
	surface := newFakeSurface()
	surface.tabs[4] = "https://site.org/page"
	saver := &fakeSaver{}
	d := startDispatcher(t, repo, surface, saver, Config{})

	d.Post(TabActivated{TabID: 4})
	if got := surface.wait(t); got != "menu https://site.org/page true true" {
		t.Errorf("got %q", got)
	}

	d.Post(MenuPinHost{URL: "https://site.org/page"})
	if got := surface.wait(t); got != "menu https://site.org/page false false" {
		t.Errorf("got %q", got)
	}
	saver.mu.Lock()
	saved := saver.saved
	saver.mu.Unlock()
	if len(saved) != 1 || !saved[0].IsRegex {
		t.Fatalf("saved = %v", saved)
	}
	if repo.Len() != 1 {
		t.Errorf("repository not updated after save, len %d", repo.Len())
	}
}

func TestDispatcherUnknownTabIgnored(t *testing.T) {
	repo := rules.NewRepository([]rules.Rule{rules.NewRule("x", true)})
	surface := newFakeSurface()
	d := startDispatcher(t, repo, surface, nil, Config{})

	d.Post(TabActivated{TabID: 99})
	d.Post(TabUpdated{TabID: 1, URL: "x", HasURL: true})
	if got := surface.wait(t); got != "pin 1 true" {
		t.Errorf("got %q", got)
	}
}

func TestDispatcherPostAfterStop(t *testing.T) {
	d := NewDispatcher(rules.NewRepository(nil), newFakeSurface(), nil, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Run(ctx)
	if d.Post(TabRemoved{TabID: 1}) {
		t.Error("Post should fail once the dispatcher has stopped")
	}
}
