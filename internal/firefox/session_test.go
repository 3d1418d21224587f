package firefox

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/lotas/autopin/internal/types"
	"github.com/pierrec/lz4/v4"
)

// mozlz4 wraps data the way Firefox writes session files.
func mozlz4(t *testing.T, data []byte) []byte {
	t.Helper()
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, dst, nil)
	if err != nil {
		t.Fatalf("lz4.CompressBlock: %v", err)
	}
	out := make([]byte, 0, 12+n)
	out = append(out, mozLz4Magic...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(data)))
	return append(out, dst[:n]...)
}

// writeSession creates profileDir/sessionstore-backups/name.
func writeSession(t *testing.T, profileDir, name, sessionJSON string) {
	t.Helper()
	dir := filepath.Join(profileDir, "sessionstore-backups")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), mozlz4(t, []byte(sessionJSON)), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDecompressMozLz4(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		original := []byte(`{"windows":[{"tabs":[]}]}`)
		got, err := DecompressMozLz4(mozlz4(t, original))
		if err != nil {
			t.Fatalf("DecompressMozLz4: %v", err)
		}
		if string(got) != string(original) {
			t.Errorf("got %q, want %q", got, original)
		}
	})

	t.Run("invalid header", func(t *testing.T) {
		if _, err := DecompressMozLz4([]byte("BADMAGIC\x00\x00\x00\x00some data here")); err == nil {
			t.Fatal("expected error for invalid header")
		}
	})

	t.Run("too short", func(t *testing.T) {
		if _, err := DecompressMozLz4([]byte("mozLz40")); err == nil {
			t.Fatal("expected error for short data")
		}
	})
}

const twoWindows = `{
	"windows": [
		{"tabs": [
			{"entries": [{"url": "https://mail.example.com/", "title": "Mail"}], "index": 1, "pinned": true, "lastAccessed": 1707654321000},
			{"entries": [{"url": "https://old.example/", "title": "Old"}, {"url": "https://docs.example/a", "title": "Doc"}], "index": 2},
			{"entries": [], "index": 0}
		]},
		{"tabs": [
			{"entries": [{"url": "https://chat.example/", "title": "Chat"}], "index": 7}
		]}
	]
}`

func TestParseSession(t *testing.T) {
	sd, err := ParseSession([]byte(twoWindows))
	if err != nil {
		t.Fatalf("ParseSession: %v", err)
	}
	if len(sd.Tabs) != 3 {
		t.Fatalf("got %d tabs, want 3", len(sd.Tabs))
	}

	mail := sd.Tabs[0]
	if mail.ID != 1 || !mail.Pinned || mail.URL != "https://mail.example.com/" {
		t.Errorf("tab 0 = %+v", mail)
	}
	if mail.LastAccessed.UnixMilli() != 1707654321000 {
		t.Errorf("LastAccessed = %d", mail.LastAccessed.UnixMilli())
	}

	// index=2 selects the second history entry.
	doc := sd.Tabs[1]
	if doc.ID != 2 || doc.URL != "https://docs.example/a" || doc.Pinned {
		t.Errorf("tab 1 = %+v", doc)
	}
	if !doc.LastAccessed.IsZero() {
		t.Error("missing lastAccessed should give the zero time")
	}

	// Out of range index falls back to the last entry.
	chat := sd.Tabs[2]
	if chat.ID != 3 || chat.URL != "https://chat.example/" || chat.WindowIndex != 1 || chat.TabIndex != 0 {
		t.Errorf("tab 2 = %+v", chat)
	}
}

func TestParseSessionInvalid(t *testing.T) {
	if _, err := ParseSession([]byte("{")); err == nil {
		t.Error("expected error for truncated JSON")
	}
}

func TestReadSessionFile(t *testing.T) {
	profileDir := t.TempDir()
	writeSession(t, profileDir, "previous.jsonlz4", `{"windows":[{"tabs":[{"entries":[{"url":"https://prev/"}],"index":1}]}]}`)

	sd, err := ReadSessionFile(profileDir)
	if err != nil {
		t.Fatalf("ReadSessionFile: %v", err)
	}
	if len(sd.Tabs) != 1 || sd.Tabs[0].URL != "https://prev/" {
		t.Errorf("tabs from previous session = %+v", sd.Tabs)
	}

	// The live session wins once it exists.
	writeSession(t, profileDir, "recovery.jsonlz4", twoWindows)
	sd, err = ReadProfileSession(types.Profile{Name: "work", Path: profileDir})
	if err != nil {
		t.Fatal(err)
	}
	if len(sd.Tabs) != 3 {
		t.Errorf("got %d tabs from recovery session, want 3", len(sd.Tabs))
	}
	if sd.Profile.Name != "work" {
		t.Errorf("Profile = %+v", sd.Profile)
	}
}

func TestReadSessionFileMissing(t *testing.T) {
	if _, err := ReadSessionFile(t.TempDir()); err == nil {
		t.Error("expected error when no session file exists")
	}
}
