package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lotas/autopin/internal/rules"
	"github.com/lotas/autopin/internal/settings"
)

// RuleStore is the persisted rule set the view edits.
type RuleStore interface {
	LoadRules(ctx context.Context) ([]rules.Rule, error)
	SaveRules(ctx context.Context, rs []rules.Rule) error
	Reorder(ctx context.Context) (bool, error)
	SetReorder(ctx context.Context, on bool) error
}

// --- Messages ---

type rulesLoadedMsg struct {
	rules   []rules.Rule
	reorder bool
	err     error
}

type rulesSavedMsg struct {
	rules  []rules.Rule
	status string
	err    error
}

type reorderSavedMsg struct {
	on  bool
	err error
}

type mode int

const (
	modeList mode = iota
	modeAdd
	modeEdit
	modeTest
)

// --- Model ---

type Model struct {
	ctx   context.Context
	store RuleStore

	// Data
	rules   []rules.Rule
	reorder bool

	// UI state
	cursor  int
	offset  int
	mode    mode
	input   textinput.Model
	regex   bool // kind of the rule being added or edited
	loading bool
	width   int
	height  int

	invalid  map[int]string // rule index -> message from the last rejected save
	inputErr string
	testURL  string
	status   string
	err      error
}

// NewModel returns the rules view backed by store.
func NewModel(ctx context.Context, store RuleStore) Model {
	in := textinput.New()
	in.CharLimit = 2048
	return Model{
		ctx:     ctx,
		store:   store,
		input:   in,
		loading: true,
	}
}

func (m Model) Init() tea.Cmd {
	return m.load()
}

func (m Model) load() tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		rs, err := store.LoadRules(ctx)
		if err != nil {
			return rulesLoadedMsg{err: err}
		}
		on, err := store.Reorder(ctx)
		return rulesLoadedMsg{rules: rs, reorder: on, err: err}
	}
}

func (m Model) save(next []rules.Rule, status string) tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		err := store.SaveRules(ctx, next)
		return rulesSavedMsg{rules: next, status: status, err: err}
	}
}

func (m Model) setReorder(on bool) tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		return reorderSavedMsg{on: on, err: store.SetReorder(ctx, on)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 12
		return m, nil

	case rulesLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.rules = msg.rules
			m.reorder = msg.reorder
			m.invalid = nil
			m.clampCursor()
		}
		return m, nil

	case rulesSavedMsg:
		if msg.err != nil {
			var verr *settings.ValidationError
			if errors.As(msg.err, &verr) {
				m.invalid = make(map[int]string, len(verr.Rules))
				for _, re := range verr.Rules {
					m.invalid[re.Index] = re.Fields.Error()
				}
				m.status = "Not saved: fix the highlighted rules"
				return m, nil
			}
			m.err = msg.err
			return m, nil
		}
		m.rules = msg.rules
		m.invalid = nil
		m.err = nil
		m.status = msg.status
		m.clampCursor()
		return m, nil

	case reorderSavedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.reorder = msg.on
		if msg.on {
			m.status = "Pinned tabs will be kept in rule order"
		} else {
			m.status = "Pinned tabs will not be reordered"
		}
		return m, nil

	case tea.KeyMsg:
		if m.mode != modeList {
			return m.updateInput(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.ensureVisible()
		}

	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.rules)-1 {
			m.cursor++
			m.ensureVisible()
		}

	case key.Matches(msg, keys.MoveUp):
		if m.cursor > 0 && m.cursor < len(m.rules) {
			next := clone(m.rules)
			next[m.cursor-1], next[m.cursor] = next[m.cursor], next[m.cursor-1]
			m.cursor--
			m.ensureVisible()
			return m, m.save(next, "Moved rule up")
		}

	case key.Matches(msg, keys.MoveDown):
		if m.cursor < len(m.rules)-1 {
			next := clone(m.rules)
			next[m.cursor+1], next[m.cursor] = next[m.cursor], next[m.cursor+1]
			m.cursor++
			m.ensureVisible()
			return m, m.save(next, "Moved rule down")
		}

	case key.Matches(msg, keys.Toggle):
		if r, ok := m.current(); ok {
			next := clone(m.rules)
			next[m.cursor].Enabled = !r.Enabled
			status := "Enabled rule"
			if r.Enabled {
				status = "Disabled rule"
			}
			return m, m.save(next, status)
		}

	case key.Matches(msg, keys.Delete):
		if r, ok := m.current(); ok {
			next := make([]rules.Rule, 0, len(m.rules)-1)
			next = append(next, m.rules[:m.cursor]...)
			next = append(next, m.rules[m.cursor+1:]...)
			return m, m.save(next, "Deleted "+r.Pattern)
		}

	case key.Matches(msg, keys.AddExact):
		return m.startInput(modeAdd, false, "")

	case key.Matches(msg, keys.AddRegex):
		return m.startInput(modeAdd, true, "")

	case key.Matches(msg, keys.Edit):
		if r, ok := m.current(); ok {
			return m.startInput(modeEdit, r.IsRegex, r.Pattern)
		}

	case key.Matches(msg, keys.TestURL):
		return m.startInput(modeTest, false, m.testURL)

	case key.Matches(msg, keys.Reorder):
		return m, m.setReorder(!m.reorder)

	case key.Matches(msg, keys.Reload):
		m.loading = true
		m.status = ""
		return m, m.load()
	}
	return m, nil
}

func (m Model) startInput(md mode, regex bool, value string) (tea.Model, tea.Cmd) {
	m.mode = md
	m.regex = regex
	m.inputErr = ""
	m.status = ""
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m, m.input.Focus()
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Cancel):
		m.mode = modeList
		m.input.Blur()
		return m, nil

	case key.Matches(msg, keys.SwapRegex) && m.mode != modeTest:
		m.regex = !m.regex
		m.inputErr = ""
		return m, nil

	case key.Matches(msg, keys.Confirm):
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	value := m.input.Value()

	if m.mode == modeTest {
		m.testURL = value
		m.mode = modeList
		m.input.Blur()
		return m, nil
	}

	r := rules.NewRule(value, m.regex)
	if m.mode == modeEdit {
		if cur, ok := m.current(); ok {
			r.Enabled = cur.Enabled
		}
	}
	if res := r.Validate(); !res.OK() {
		m.inputErr = res[rules.FieldPattern]
		return m, nil
	}

	next := clone(m.rules)
	status := "Added " + r.Pattern
	if m.mode == modeEdit && m.cursor < len(next) {
		next[m.cursor] = r
		status = "Updated " + r.Pattern
	} else {
		next = append(next, r)
		m.cursor = len(next) - 1
		m.ensureVisible()
	}
	m.mode = modeList
	m.input.Blur()
	return m, m.save(next, status)
}

func (m Model) current() (rules.Rule, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rules) {
		return rules.Rule{}, false
	}
	return m.rules[m.cursor], true
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.rules) {
		m.cursor = len(m.rules) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.ensureVisible()
}

func (m *Model) ensureVisible() {
	visible := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

// listHeight is the number of rule rows that fit between the header and
// the footer. Before the first WindowSizeMsg every row is shown.
func (m Model) listHeight() int {
	if m.height == 0 {
		return len(m.rules) + 1
	}
	h := m.height - 6
	if h < 1 {
		h = 1
	}
	return h
}

func clone(rs []rules.Rule) []rules.Rule {
	return append([]rules.Rule(nil), rs...)
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
