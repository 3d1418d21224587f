package export

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/lotas/autopin/internal/pinner"
	"github.com/lotas/autopin/internal/rules"
	"github.com/lotas/autopin/internal/types"
)

func sampleRules() []rules.Rule {
	return []rules.Rule{
		rules.NewRule("https://mail.example.com/", false),
		{Pattern: `^https://chat\.example/`, IsRegex: true},
	}
}

func TestJSONRoundTrip(t *testing.T) {
	out, err := JSON(sampleRules())
	if err != nil {
		t.Fatal(err)
	}
	got, err := Import(FormatJSON, []byte(out))
	if err != nil {
		t.Fatalf("Import: %v\noutput:\n%s", err, out)
	}
	if diff := cmp.Diff(sampleRules(), got); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}
}

func TestJSONEmpty(t *testing.T) {
	out, err := JSON(nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != "[]\n" {
		t.Errorf("JSON(nil) = %q", out)
	}
}

func TestScanJSON(t *testing.T) {
	now := time.Now()
	data := &types.SessionData{
		Profile: types.Profile{Name: "default"},
		Tabs: []types.Tab{
			{ID: 1, Title: "Mail", URL: "https://mail.example.com/", Pinned: true, LastAccessed: now.Add(-2 * time.Hour)},
			{ID: 2, Title: "Chat", URL: "https://chat.example/room"},
			{ID: 3, Title: "News", URL: "https://news.example/"},
		},
	}
	rs := sampleRules()
	rs[1].Enabled = true
	res := pinner.Scan(rs, data.Tabs)

	out, err := ScanJSON(data, rs, res)
	if err != nil {
		t.Fatal(err)
	}
	var parsed scanExport
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v\noutput:\n%s", err, out)
	}

	if parsed.Profile != "default" || parsed.Tabs != 3 {
		t.Errorf("header = %q, %d tabs", parsed.Profile, parsed.Tabs)
	}
	if len(parsed.Pin) != 1 || parsed.Pin[0].URL != "https://chat.example/room" {
		t.Fatalf("pin = %+v", parsed.Pin)
	}
	if parsed.Pin[0].Rule != 2 || parsed.Pin[0].Pattern != `^https://chat\.example/` || parsed.Pin[0].Domain != "chat.example" {
		t.Errorf("pin[0] = %+v", parsed.Pin[0])
	}
	if len(parsed.Order) != 2 || parsed.Order[0].Title != "Mail" || parsed.Order[1].Title != "Chat" {
		t.Errorf("order = %+v", parsed.Order)
	}
	if parsed.Order[0].LastAccessedPretty != "2h ago" {
		t.Errorf("pretty time = %q", parsed.Order[0].LastAccessedPretty)
	}
}

func TestFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"json":     FormatJSON,
		"YAML":     FormatYAML,
		"yml":      FormatYAML,
		"markdown": FormatMarkdown,
	} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("toml"); err == nil {
		t.Error("expected error for toml")
	}

	for path, want := range map[string]Format{
		"rules.yaml":    FormatYAML,
		"/tmp/r.json":   FormatJSON,
		"notes.md":      FormatMarkdown,
		"no-extension":  FormatJSON,
		"weird.ext.txt": FormatJSON,
	} {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	out, err := Rules(FormatYAML, sampleRules())
	if err != nil {
		t.Fatal(err)
	}
	got, err := Import(FormatYAML, []byte(out))
	if err != nil {
		t.Fatalf("Import: %v\noutput:\n%s", err, out)
	}
	if diff := cmp.Diff(sampleRules(), got); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}
}

func TestImportRejects(t *testing.T) {
	if _, err := Import(FormatMarkdown, []byte("# x")); err == nil {
		t.Error("markdown import should fail")
	}
	if _, err := Import(FormatJSON, []byte(`[{"pattern":"x","extra":1}]`)); err == nil {
		t.Error("unknown field should fail")
	}
	if _, err := Import(FormatYAML, []byte("pattern: x\n")); err == nil {
		t.Error("non-list YAML should fail")
	}
}
