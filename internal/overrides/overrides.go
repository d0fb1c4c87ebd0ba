// Package overrides loads the user-editable column override file.
//
// The file is a JSON (or, by extension, YAML) list of {key, label, type, enableSorting}
// entries. A missing file means no overrides. The parsed list is cached and
// reloaded when the file changes on disk.
package overrides

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/canvasql/pkg/core"
)

type entry struct {
	Key           string `json:"key" yaml:"key"`
	Label         string `json:"label" yaml:"label"`
	Type          string `json:"type" yaml:"type"`
	EnableSorting *bool  `json:"enableSorting" yaml:"enableSorting"`
}

// Source is a cached view of the override file. It is safe for concurrent
// use.
type Source struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	columns []core.ColumnDescriptor
}

// New creates a source for the file at path. Nothing is read until Load.
// An empty path disables overrides. If logger is nil, a discard logger is used.
func New(path string, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Source{path: path, logger: logger}
}

// Path returns the watched file path.
func (s *Source) Path() string {
	return s.path
}

// Columns returns a copy of the cached overrides.
func (s *Source) Columns() []core.ColumnDescriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.columns) == 0 {
		return nil
	}
	out := make([]core.ColumnDescriptor, len(s.columns))
	copy(out, s.columns)
	return out
}

// Load reads and parses the file, replacing the cache. A missing file
// clears the cache. On a parse error the previous cache is kept.
func (s *Source) Load() error {
	if s.path == "" {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.set(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read column overrides: %w", err)
	}

	cols, err := s.parse(data)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", s.path, err)
	}

	s.set(cols)
	s.logger.Debug("column overrides loaded", "path", s.path, "columns", len(cols))
	return nil
}

func (s *Source) set(cols []core.ColumnDescriptor) {
	s.mu.Lock()
	s.columns = cols
	s.mu.Unlock()
}

// parse decodes the file by extension: .yaml and .yml as YAML, anything
// else as JSON. Invalid entries are dropped with a warning.
func (s *Source) parse(data []byte) ([]core.ColumnDescriptor, error) {
	var entries []entry
	switch strings.ToLower(filepath.Ext(s.path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, err
		}
	}

	cols := make([]core.ColumnDescriptor, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		if e.Key == "" {
			s.logger.Warn("skipping column override without key", "index", i)
			continue
		}
		if seen[e.Key] {
			s.logger.Warn("skipping duplicate column override", "key", e.Key)
			continue
		}

		var typ core.UIType
		if e.Type != "" {
			t, ok := core.ParseUIType(e.Type)
			if !ok {
				s.logger.Warn("skipping column override with unknown type", "key", e.Key, "type", e.Type)
				continue
			}
			typ = t
		}

		label := e.Label
		if label == "" {
			label = e.Key
		}
		sortable := true
		if e.EnableSorting != nil {
			sortable = *e.EnableSorting
		}

		seen[e.Key] = true
		cols = append(cols, core.ColumnDescriptor{
			Key:      e.Key,
			Label:    label,
			Type:     typ,
			Sortable: sortable,
		})
	}
	return cols, nil
}
