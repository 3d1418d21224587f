package pinner

import (
	"context"
	"errors"
	"sync"

	"github.com/lotas/autopin/internal/applog"
	"github.com/lotas/autopin/internal/rules"
)

// Dispatcher runs Step on a single goroutine and carries out the
// resulting commands. It owns the priority table; other goroutines only
// ever Post events.
type Dispatcher struct {
	repo    *rules.Repository
	surface TabSurface
	saver   RuleSaver

	events chan Event
	done   chan struct{}

	mu    sync.Mutex
	table PriorityTable
	cfg   Config
}

// NewDispatcher creates a dispatcher reading rules from repo. saver may
// be nil, in which case menu actions are ignored.
func NewDispatcher(repo *rules.Repository, surface TabSurface, saver RuleSaver, cfg Config) *Dispatcher {
	return &Dispatcher{
		repo:    repo,
		surface: surface,
		saver:   saver,
		events:  make(chan Event, 256),
		done:    make(chan struct{}),
		table:   PriorityTable{},
		cfg:     cfg,
	}
}

// Post queues an event. It blocks while the queue is full and returns
// false once the dispatcher has stopped.
func (d *Dispatcher) Post(ev Event) bool {
	select {
	case <-d.done:
		return false
	default:
	}
	select {
	case d.events <- ev:
		return true
	case <-d.done:
		return false
	}
}

// SetConfig queues a configuration change so it is ordered with tab events.
func (d *Dispatcher) SetConfig(cfg Config) {
	d.Post(ConfigChanged{Config: cfg})
}

// SetReorder turns reordering of pinned tabs on or off.
func (d *Dispatcher) SetReorder(on bool) {
	d.SetConfig(Config{Reorder: on})
}

// Table returns a copy of the current priority table.
func (d *Dispatcher) Table() PriorityTable {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(PriorityTable, len(d.table))
	for k, v := range d.table {
		out[k] = v
	}
	return out
}

// Config returns the active configuration.
func (d *Dispatcher) Config() Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// Run processes events until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer close(d.done)
	applog.Info("dispatcher.start", "rules", d.repo.Len())
	for {
		select {
		case <-ctx.Done():
			applog.Info("dispatcher.stop")
			return ctx.Err()
		case ev := <-d.events:
			d.handle(ctx, ev)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, ev Event) {
	if c, ok := ev.(ConfigChanged); ok {
		d.mu.Lock()
		d.cfg = c.Config
		d.mu.Unlock()
		applog.Info("config.changed", "reorder", c.Config.Reorder)
		return
	}

	d.mu.Lock()
	table, cfg := d.table, d.cfg
	d.mu.Unlock()

	next, cmds := Step(d.repo.Rules(), table, cfg, ev)

	d.mu.Lock()
	d.table = next
	d.mu.Unlock()

	for _, cmd := range cmds {
		d.exec(ctx, cmd)
	}
}

// exec carries out a command. Tab surface failures are logged and
// dropped: the tab is usually gone, which makes the command moot.
func (d *Dispatcher) exec(ctx context.Context, cmd Command) {
	switch c := cmd.(type) {
	case PinTab:
		applog.Info("pin.send", "tab", c.TabID)
		if err := d.surface.UpdateTabPinned(ctx, c.TabID, true); err != nil {
			applog.Error("pin.failed", err, "tab", c.TabID)
		}

	case MoveTabs:
		applog.Info("move.send", "tabs", c.TabIDs, "index", c.Index)
		if err := d.surface.MoveTabs(ctx, c.TabIDs, c.Index); err != nil {
			applog.Error("move.failed", err, "tabs", c.TabIDs)
		}

	case UpdateMenu:
		if err := d.surface.UpdateMenu(ctx, c.Menu); err != nil {
			applog.Error("menu.failed", err, "url", c.Menu.URL)
		}

	case QueryTab:
		go func() {
			tab, err := d.surface.GetTab(ctx, c.TabID)
			if err != nil {
				if !errors.Is(err, ErrTabNotFound) && !errors.Is(err, context.Canceled) {
					applog.Error("tab.get", err, "tab", c.TabID)
				}
				return
			}
			d.Post(TabInfo{TabID: c.TabID, URL: tab.URL})
		}()

	case SaveRules:
		if d.saver == nil {
			return
		}
		if err := d.saver.AppendRule(ctx, c.Added); err != nil {
			applog.Error("rules.save", err, "pattern", c.Added.Pattern)
			return
		}
		// The store's change notification installs the same list again.
		d.repo.Replace(c.Rules)
		applog.Info("rules.added", "count", len(c.Rules))
	}
}
