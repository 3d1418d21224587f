package types

import "time"

// Tab represents a single browser tab.
type Tab struct {
	ID           int // browser tab ID; session files number tabs from 1
	URL          string
	Title        string
	Pinned       bool
	WindowIndex  int
	TabIndex     int
	LastAccessed time.Time
}

// Profile represents a Firefox profile.
type Profile struct {
	Name       string
	Path       string // absolute path to profile directory
	IsDefault  bool
	IsRelative bool
}

// SessionData holds the tabs parsed from a Firefox session.
type SessionData struct {
	Tabs     []Tab
	Profile  Profile
	ParsedAt time.Time
}
