// Package prefs persists the last-opened video paths between sessions.
// Persistence is best-effort: a missing, unreadable or corrupt file is
// treated as no prior session, and write failures are logged and
// swallowed. Nothing here ever surfaces an error to the user.
package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/sidereel/pkg/util"
)

const fileName = "preferences.json"

// Preferences records the two last-opened video paths. Either may be
// empty. The JSON keys predate the Go port and are kept for existing
// preference files.
type Preferences struct {
	VideoA string `json:"video1_path"`
	VideoB string `json:"video2_path"`
}

// Store reads and writes a Preferences record at a fixed path.
type Store struct {
	logger zerolog.Logger
	path   string
}

// NewStore creates a store at path. An empty path uses
// DefaultPath().
func NewStore(logger zerolog.Logger, path string) *Store {
	if path == "" {
		path = DefaultPath()
	}
	return &Store{
		logger: logger.With().Str("component", "prefs").Logger(),
		path:   path,
	}
}

// DefaultPath returns the per-user preference file location, falling
// back to the working directory when the user config dir is unknown.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return fileName
	}
	return filepath.Join(dir, "sidereel", fileName)
}

// Load reads the persisted record. Any failure yields empty
// Preferences.
func (s *Store) Load() Preferences {
	var p Preferences

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("failed to read preferences")
		}
		return p
	}

	if err := json.Unmarshal(data, &p); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("failed to parse preferences")
		return Preferences{}
	}

	return p
}

// Save writes the record. Failures are logged and swallowed.
func (s *Store) Save(p Preferences) {
	data, err := json.Marshal(p)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode preferences")
		return
	}

	if err := util.EnsureDir(filepath.Dir(s.path)); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("failed to create preference dir")
		return
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("failed to write preferences")
	}
}
