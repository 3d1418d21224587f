package export

import (
	"encoding/json"
	"net/url"
	"time"

	"github.com/lotas/autopin/internal/pinner"
	"github.com/lotas/autopin/internal/rules"
	"github.com/lotas/autopin/internal/types"
)

// JSON formats rules as an indented JSON array that Import reads back.
func JSON(rs []rules.Rule) (string, error) {
	if rs == nil {
		rs = []rules.Rule{}
	}
	b, err := json.MarshalIndent(rs, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}

type scanExport struct {
	Profile    string    `json:"profile"`
	ExportedAt time.Time `json:"exported_at"`
	Tabs       int       `json:"tabs"`
	Pin        []scanTab `json:"pin"`
	Order      []scanTab `json:"order"`
}

type scanTab struct {
	Title              string    `json:"title"`
	URL                string    `json:"url"`
	Domain             string    `json:"domain"`
	Pinned             bool      `json:"pinned"`
	Rule               int       `json:"rule"`
	Pattern            string    `json:"pattern"`
	LastAccessed       time.Time `json:"last_accessed"`
	LastAccessedPretty string    `json:"last_accessed_pretty,omitempty"`
}

// ScanJSON formats the result of a session scan as a JSON document.
// Rule numbers are 1-based, as shown to users.
func ScanJSON(data *types.SessionData, rs []rules.Rule, res pinner.ScanResult) (string, error) {
	out := scanExport{
		Profile:    data.Profile.Name,
		ExportedAt: time.Now(),
		Tabs:       len(data.Tabs),
		Pin:        make([]scanTab, 0, len(res.Pin)),
		Order:      make([]scanTab, 0, len(res.Order)),
	}
	conv := func(tab types.Tab) scanTab {
		idx := res.Rule[tab.ID]
		st := scanTab{
			Title:        tab.Title,
			URL:          tab.URL,
			Domain:       extractDomain(tab.URL),
			Pinned:       tab.Pinned,
			Rule:         idx + 1,
			LastAccessed: tab.LastAccessed,
		}
		if idx >= 0 && idx < len(rs) {
			st.Pattern = rs[idx].Pattern
		}
		if !tab.LastAccessed.IsZero() {
			st.LastAccessedPretty = relativeTime(tab.LastAccessed)
		}
		return st
	}
	for _, tab := range res.Pin {
		out.Pin = append(out.Pin, conv(tab))
	}
	for _, tab := range res.Order {
		out.Order = append(out.Order, conv(tab))
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}

func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Hostname()
}
