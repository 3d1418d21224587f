package firefox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lotas/autopin/internal/types"
)

func TestParseProfilesINI(t *testing.T) {
	dir := t.TempDir()
	absProfileDir := t.TempDir()
	iniContent := `[General]
StartWithLastProfile=1
Version=2

[Profile0]
Name=default-release
IsRelative=1
Path=abc123.default-release
Default=1

[Profile1]
Name=dev-edition
IsRelative=0
Path=` + absProfileDir + `
Default=0

[Profile2]
Name=never-started
IsRelative=1
Path=zzz.never-started

[Install308046B0AF4A39CB]
Default=abc123.default-release
Locked=1
`
	iniPath := filepath.Join(dir, "profiles.ini")
	os.WriteFile(iniPath, []byte(iniContent), 0o644)

	writeSession(t, filepath.Join(dir, "abc123.default-release"), "recovery.jsonlz4", `{"windows":[]}`)
	writeSession(t, absProfileDir, "previous.jsonlz4", `{"windows":[]}`)

	profiles, err := ParseProfilesINI(iniPath, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d: %+v", len(profiles), profiles)
	}

	if profiles[0].Name != "default-release" {
		t.Errorf("expected name 'default-release', got %q", profiles[0].Name)
	}
	if profiles[0].Path != filepath.Join(dir, "abc123.default-release") {
		t.Errorf("expected resolved path, got %q", profiles[0].Path)
	}
	if !profiles[0].IsDefault {
		t.Error("expected profile 0 to be default")
	}

	if profiles[1].Path != absProfileDir {
		t.Errorf("expected absolute path %q, got %q", absProfileDir, profiles[1].Path)
	}
	if profiles[1].IsDefault {
		t.Error("expected profile 1 to not be default")
	}
}

func TestParseProfilesINIMissing(t *testing.T) {
	if _, err := ParseProfilesINI(filepath.Join(t.TempDir(), "profiles.ini"), ""); err == nil {
		t.Error("expected error for missing profiles.ini")
	}
}

func TestSelectProfile(t *testing.T) {
	profiles := []types.Profile{
		{Name: "work", Path: "/p/work"},
		{Name: "home", Path: "/p/home", IsDefault: true},
	}

	tests := []struct {
		name    string
		in      []types.Profile
		want    string
		wantErr bool
	}{
		{name: "", in: profiles, want: "home"},
		{name: "work", in: profiles, want: "work"},
		{name: "missing", in: profiles, wantErr: true},
		{name: "", in: profiles[:1], want: "work"},
		{name: "", in: nil, wantErr: true},
	}
	for _, tt := range tests {
		p, err := SelectProfile(tt.in, tt.name)
		if tt.wantErr {
			if err == nil {
				t.Errorf("SelectProfile(%d profiles, %q): expected error", len(tt.in), tt.name)
			}
			continue
		}
		if err != nil || p.Name != tt.want {
			t.Errorf("SelectProfile(%d profiles, %q) = %q, %v, want %q", len(tt.in), tt.name, p.Name, err, tt.want)
		}
	}
}

func TestFindFirefoxDir(t *testing.T) {
	dir := FindFirefoxDir()
	if dir == "" {
		t.Skip("no Firefox directory found on this system")
	}
	t.Logf("found Firefox dir: %s", dir)
}
