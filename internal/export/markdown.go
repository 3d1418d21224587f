package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/lotas/autopin/internal/pinner"
	"github.com/lotas/autopin/internal/rules"
	"github.com/lotas/autopin/internal/types"
)

// Markdown formats rules as a markdown table in priority order.
func Markdown(rs []rules.Rule) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Pin rules\n")
	fmt.Fprintf(&b, "> Exported %s\n\n", time.Now().Format("2006-01-02 15:04"))

	if len(rs) == 0 {
		b.WriteString("No rules.\n")
		return b.String()
	}

	b.WriteString("| # | Pattern | Kind | Enabled |\n")
	b.WriteString("|---|---------|------|---------|\n")
	for i, r := range rs {
		kind := "exact"
		if r.IsRegex {
			kind = "regex"
		}
		enabled := "yes"
		if !r.Enabled {
			enabled = "no"
		}
		fmt.Fprintf(&b, "| %d | `%s` | %s | %s |\n", i+1, escapeCell(r.Pattern), kind, enabled)
	}
	return b.String()
}

// ScanMarkdown formats the result of a session scan.
func ScanMarkdown(data *types.SessionData, rs []rules.Rule, res pinner.ScanResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Pin scan: %s\n", data.Profile.Name)
	fmt.Fprintf(&b, "> %d open tabs, %d to pin, %d pinned in total\n", len(data.Tabs), len(res.Pin), len(res.Order))

	fmt.Fprintf(&b, "\n## Would pin (%d %s)\n\n", len(res.Pin), plural(len(res.Pin), "tab"))
	for _, tab := range res.Pin {
		fmt.Fprintf(&b, "- %s%s\n", link(tab), ruleSuffix(rs, res.Rule[tab.ID]))
	}

	fmt.Fprintf(&b, "\n## Pinned order\n\n")
	for i, tab := range res.Order {
		fmt.Fprintf(&b, "%d. %s%s\n", i+1, link(tab), ruleSuffix(rs, res.Rule[tab.ID]))
	}
	return b.String()
}

func link(tab types.Tab) string {
	title := tab.Title
	if title == "" {
		title = tab.URL
	}
	s := fmt.Sprintf("[%s](%s)", title, tab.URL)
	if !tab.LastAccessed.IsZero() {
		s += " (" + relativeTime(tab.LastAccessed) + ")"
	}
	return s
}

func ruleSuffix(rs []rules.Rule, idx int) string {
	if idx < 0 || idx >= len(rs) {
		return ""
	}
	return fmt.Sprintf(" by rule %d `%s`", idx+1, escapeCell(rs[idx].Pattern))
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func plural(n int, noun string) string {
	if n == 1 {
		return noun
	}
	return noun + "s"
}

func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
