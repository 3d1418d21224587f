package firefox

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lotas/autopin/internal/types"
	"github.com/pierrec/lz4/v4"
)

var mozLz4Magic = []byte("mozLz40\x00")

// Session files tried in order: the live session first, then the one
// saved when the browser last closed.
var sessionFiles = []string{"recovery.jsonlz4", "previous.jsonlz4"}

// DecompressMozLz4 decompresses data in Mozilla's mozlz4 format:
// the magic, a little-endian uint32 uncompressed size, then one lz4 block.
func DecompressMozLz4(data []byte) ([]byte, error) {
	const headerSize = 12

	if len(data) < headerSize {
		return nil, fmt.Errorf("mozlz4: data too short (%d bytes)", len(data))
	}
	if !bytes.Equal(data[:len(mozLz4Magic)], mozLz4Magic) {
		return nil, errors.New("mozlz4: invalid header magic")
	}

	size := binary.LittleEndian.Uint32(data[8:12])
	dst := make([]byte, size)
	n, err := lz4.UncompressBlock(data[headerSize:], dst)
	if err != nil {
		return nil, fmt.Errorf("mozlz4: decompress failed: %w", err)
	}
	return dst[:n], nil
}

type rawEntry struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type rawTab struct {
	Entries      []rawEntry `json:"entries"`
	Index        int        `json:"index"`
	LastAccessed int64      `json:"lastAccessed"`
	Pinned       bool       `json:"pinned"`
}

type rawWindow struct {
	Tabs []rawTab `json:"tabs"`
}

type rawSession struct {
	Windows []rawWindow `json:"windows"`
}

// ParseSession parses decompressed session JSON. Session files carry no
// live tab ids, so tabs are numbered from 1 in window and tab order.
func ParseSession(data []byte) (*types.SessionData, error) {
	var raw rawSession
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse session JSON: %w", err)
	}

	sd := &types.SessionData{ParsedAt: time.Now()}
	for winIdx, window := range raw.Windows {
		for tabIdx, rt := range window.Tabs {
			if len(rt.Entries) == 0 {
				continue
			}
			// index is 1-based; the current page is entries[index-1].
			entryIdx := rt.Index - 1
			if entryIdx < 0 || entryIdx >= len(rt.Entries) {
				entryIdx = len(rt.Entries) - 1
			}
			entry := rt.Entries[entryIdx]

			tab := types.Tab{
				ID:          len(sd.Tabs) + 1,
				URL:         entry.URL,
				Title:       entry.Title,
				Pinned:      rt.Pinned,
				WindowIndex: winIdx,
				TabIndex:    tabIdx,
			}
			if rt.LastAccessed > 0 {
				tab.LastAccessed = time.UnixMilli(rt.LastAccessed)
			}
			sd.Tabs = append(sd.Tabs, tab)
		}
	}
	return sd, nil
}

// ReadSessionFile reads and parses the session of a profile directory.
func ReadSessionFile(profileDir string) (*types.SessionData, error) {
	path, err := sessionFile(profileDir)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	decompressed, err := DecompressMozLz4(data)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", filepath.Base(path), err)
	}
	return ParseSession(decompressed)
}

// ReadProfileSession reads the session of p and records p on the result.
func ReadProfileSession(p types.Profile) (*types.SessionData, error) {
	sd, err := ReadSessionFile(p.Path)
	if err != nil {
		return nil, err
	}
	sd.Profile = p
	return sd, nil
}

func sessionFile(profileDir string) (string, error) {
	backupDir := filepath.Join(profileDir, "sessionstore-backups")
	for _, name := range sessionFiles {
		path := filepath.Join(backupDir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no session file found in %s", backupDir)
}
