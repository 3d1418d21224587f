// Package settings connects the persisted settings record to the
// in-memory rule repository.
package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/lotas/autopin/internal/applog"
	"github.com/lotas/autopin/internal/rules"
	"github.com/lotas/autopin/internal/storage"
)

// Settings keys.
const (
	KeyPatterns      = "patterns"
	KeyReorderPinned = "reorderPinned"
)

// Store is the settings contract the adapter consumes.
type Store interface {
	Load(ctx context.Context, key string) (json.RawMessage, bool, error)
	Save(ctx context.Context, key string, value any) error
	Subscribe(fn func(storage.Change)) (cancel func())
}

// RuleError is the validation result of one rule in a rule set.
type RuleError struct {
	Index  int
	Fields rules.ValidationResult
}

// ValidationError lists every invalid rule in a rule set.
type ValidationError struct {
	Rules []RuleError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Rules))
	for _, r := range e.Rules {
		parts = append(parts, fmt.Sprintf("rule %d: %s", r.Index+1, r.Fields.Error()))
	}
	return "invalid rules: " + strings.Join(parts, ", ")
}

// ValidateAll validates rs and returns a *ValidationError when any rule
// fails, nil otherwise.
func ValidateAll(rs []rules.Rule) error {
	var errs []RuleError
	for i, r := range rs {
		if res := r.Validate(); !res.OK() {
			errs = append(errs, RuleError{Index: i, Fields: res})
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Rules: errs}
}

// Adapter keeps a rules.Repository in step with the settings store.
type Adapter struct {
	store Store
	repo  *rules.Repository

	// OnReorder, if set, receives the reorder flag at start-up and on
	// every change.
	OnReorder func(bool)

	cancel func()
}

// NewAdapter returns an adapter feeding repo from store.
func NewAdapter(store Store, repo *rules.Repository) *Adapter {
	return &Adapter{store: store, repo: repo}
}

// Start loads the current settings and subscribes to changes. Missing or
// malformed values never fail start-up; they fall back to an empty rule
// set and reordering off.
func (a *Adapter) Start(ctx context.Context) error {
	raw, _, err := a.store.Load(ctx, KeyPatterns)
	if err != nil {
		return err
	}
	a.replaceRules(raw)

	reorder, err := a.Reorder(ctx)
	if err != nil {
		return err
	}
	if a.OnReorder != nil {
		a.OnReorder(reorder)
	}

	a.cancel = a.store.Subscribe(a.onChange)
	return nil
}

// Stop unsubscribes from the store.
func (a *Adapter) Stop() {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
}

// Rules returns the rule set currently in the repository.
func (a *Adapter) Rules() []rules.Rule {
	return a.repo.Rules()
}

// LoadRules reads the persisted rule set.
func (a *Adapter) LoadRules(ctx context.Context) ([]rules.Rule, error) {
	raw, _, err := a.store.Load(ctx, KeyPatterns)
	if err != nil {
		return nil, err
	}
	rs, err := rules.CoerceRules(raw)
	if err != nil {
		applog.Error("settings.patterns", err)
	}
	return rs, nil
}

// SaveRules validates and persists rs. Nothing is written when any rule
// is invalid.
func (a *Adapter) SaveRules(ctx context.Context, rs []rules.Rule) error {
	if err := ValidateAll(rs); err != nil {
		return err
	}
	data, err := rules.EncodeRules(rs)
	if err != nil {
		return err
	}
	return a.store.Save(ctx, KeyPatterns, json.RawMessage(data))
}

// AppendRule validates r alone and appends it to the persisted rule set.
// Rules already in the store are kept as they are, valid or not.
func (a *Adapter) AppendRule(ctx context.Context, r rules.Rule) error {
	rs, err := a.LoadRules(ctx)
	if err != nil {
		return err
	}
	if res := r.Validate(); !res.OK() {
		return &ValidationError{Rules: []RuleError{{Index: len(rs), Fields: res}}}
	}
	data, err := rules.EncodeRules(append(rs, r))
	if err != nil {
		return err
	}
	return a.store.Save(ctx, KeyPatterns, json.RawMessage(data))
}

// Reorder reads the reorder-pinned-tabs flag. Absent or non-boolean
// values read as false.
func (a *Adapter) Reorder(ctx context.Context) (bool, error) {
	raw, ok, err := a.store.Load(ctx, KeyReorderPinned)
	if err != nil || !ok {
		return false, err
	}
	return decodeBool(raw), nil
}

// SetReorder persists the reorder-pinned-tabs flag.
func (a *Adapter) SetReorder(ctx context.Context, on bool) error {
	return a.store.Save(ctx, KeyReorderPinned, on)
}

func (a *Adapter) onChange(ch storage.Change) {
	switch ch.Key {
	case KeyPatterns:
		a.replaceRules(ch.New)
	case KeyReorderPinned:
		on := decodeBool(ch.New)
		applog.Info("settings.reorder", "enabled", on)
		if a.OnReorder != nil {
			a.OnReorder(on)
		}
	}
}

func (a *Adapter) replaceRules(raw json.RawMessage) {
	rs, err := rules.CoerceRules(raw)
	if err != nil {
		applog.Error("settings.patterns", err, "action", "using empty rule set")
	}
	old := a.repo.Rules()
	a.repo.Replace(rs)
	if diff := cmp.Diff(old, rs); diff != "" {
		applog.Info("rules.replaced", "count", len(rs))
		applog.Debug("rules.diff", "diff", diff)
	}
}

func decodeBool(raw json.RawMessage) bool {
	var on bool
	if err := json.Unmarshal(bytes.TrimSpace(raw), &on); err != nil {
		return false
	}
	return on
}
