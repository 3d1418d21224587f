package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lotas/autopin/internal/rules"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cursorStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	kindStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("44"))
	matchStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	onStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	bottomStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Padding(0, 1)
)

var inputBoxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("62")).
	Padding(0, 1)

func (m Model) View() string {
	var b strings.Builder

	reorder := dimStyle.Render("off")
	if m.reorder {
		reorder = onStyle.Render("on")
	}
	b.WriteString(titleStyle.Render("autopin rules") +
		statusStyle.Render(fmt.Sprintf("%s · reorder ", plural(len(m.rules), "rule"))) + reorder + "\n\n")

	switch {
	case m.loading:
		b.WriteString("  Loading rules...\n")
	case m.err != nil:
		b.WriteString(errStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n")
	case len(m.rules) == 0:
		b.WriteString(dimStyle.Render("  No rules yet. Press a to add a URL or r to add a regex.") + "\n")
	default:
		b.WriteString(m.viewList())
	}

	b.WriteString("\n")
	if m.mode != modeList {
		b.WriteString(m.viewInput() + "\n")
	} else if m.testURL != "" {
		b.WriteString(m.viewTest() + "\n")
	}
	if m.status != "" {
		b.WriteString(statusStyle.Render("  "+m.status) + "\n")
	}
	b.WriteString(bottomStyle.Render(m.helpLine()))
	return b.String()
}

func (m Model) viewList() string {
	matchIdx := -1
	if m.testURL != "" {
		if _, idx, ok := rules.FindMatch(m.rules, m.testURL); ok {
			matchIdx = idx
		}
	}

	end := m.offset + m.listHeight()
	if end > len(m.rules) {
		end = len(m.rules)
	}

	var b strings.Builder
	for i := m.offset; i < end; i++ {
		r := m.rules[i]
		check := "[x]"
		if !r.Enabled {
			check = "[ ]"
		}
		kind := "url  "
		if r.IsRegex {
			kind = "regex"
		}
		pattern := r.Pattern
		if !r.Enabled {
			pattern = dimStyle.Render(pattern)
		}
		line := fmt.Sprintf("  %2d. %s %s %s", i+1, check, kindStyle.Render(kind), pattern)
		if i == matchIdx {
			line += "  " + matchStyle.Render("◀ match")
		}
		if msg, bad := m.invalid[i]; bad {
			line += "  " + errStyle.Render(msg)
		}
		if i == m.cursor {
			line = cursorStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m Model) viewInput() string {
	var label string
	switch m.mode {
	case modeAdd:
		label = "New rule"
	case modeEdit:
		label = fmt.Sprintf("Edit rule %d", m.cursor+1)
	case modeTest:
		label = "Test URL"
	}
	if m.mode != modeTest {
		if m.regex {
			label += " (regex, tab for exact URL)"
		} else {
			label += " (exact URL, tab for regex)"
		}
	}
	body := label + "\n" + m.input.View()
	if m.inputErr != "" {
		body += "\n" + errStyle.Render(m.inputErr)
	}
	body += "\n" + dimStyle.Render("enter confirm · esc cancel")
	return inputBoxStyle.Render(body)
}

func (m Model) viewTest() string {
	r, idx, ok := rules.FindMatch(m.rules, m.testURL)
	if !ok {
		origin := rules.BuildRuleFromOrigin(m.testURL)
		return statusStyle.Render(fmt.Sprintf("  %s matches no rule; a host rule would be %s", m.testURL, origin.Pattern))
	}
	return matchStyle.Render(fmt.Sprintf("  %s is pinned by rule %d (%s)", m.testURL, idx+1, r.Pattern))
}

func (m Model) helpLine() string {
	parts := make([]string, 0, len(keys.listHelp()))
	for _, k := range keys.listHelp() {
		h := k.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " · ")
}
