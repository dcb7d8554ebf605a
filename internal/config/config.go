// Package config implements C10: a hierarchical, read-only settings
// document loaded once at startup from a YAML file (spec.md §4.10, §6).
// Lookups are typed, dotted-path, and fall back to a caller-supplied
// default rather than erroring, except for keys explicitly declared
// required at startup (see MustGet*).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pitrac/pitrac-go/internal/geometry"
	"github.com/pitrac/pitrac-go/internal/logger"
)

// Store is frozen after Load: every read is lock-free since the backing
// document is never mutated post-construction (spec.md §5 Shared
// resources).
type Store struct {
	doc map[string]interface{}
}

// Load reads and parses a YAML document from path. The top-level keys are
// expected to include cameras, ipc_interface, user_interface, logging,
// modes, club_data, motion_detect_stage, testing, golf_simulator_interfaces
// per spec.md §6, though Store itself is schema-agnostic.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return LoadBytes(data)
}

// LoadBytes parses an in-memory YAML document, used by tests and by the
// pitrac command for its built-in default document when no -config path
// is given.
func LoadBytes(data []byte) (*Store, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	return &Store{doc: doc}, nil
}

// lookup walks a dotted path (e.g. "cameras.camera1.gain") through nested
// maps produced by yaml.v3's default map[string]interface{} decoding.
func (s *Store) lookup(path string) (interface{}, bool) {
	if s == nil || s.doc == nil {
		return nil, false
	}
	cur := interface{}(s.doc)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		v, ok := m[part]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

func (s *Store) GetString(path, def string) string {
	v, ok := s.lookup(path)
	if !ok {
		return def
	}
	if str, ok := v.(string); ok {
		return str
	}
	return def
}

func (s *Store) GetBool(path string, def bool) bool {
	v, ok := s.lookup(path)
	if !ok {
		return def
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return def
}

func (s *Store) GetInt(path string, def int) int {
	v, ok := s.lookup(path)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i
		}
	}
	return def
}

func (s *Store) GetFloat(path string, def float64) float64 {
	v, ok := s.lookup(path)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f
		}
	}
	return def
}

// GetVector3 reads a 3-element sequence (e.g. "[x, y, z]" in YAML) as a
// geometry.Vec3, falling back to def on any shape mismatch.
func (s *Store) GetVector3(path string, def geometry.Vec3) geometry.Vec3 {
	v, ok := s.lookup(path)
	if !ok {
		return def
	}
	seq, ok := v.([]interface{})
	if !ok || len(seq) != 3 {
		logger.Log.Warn().Str("path", path).Msg("config: expected 3-element vector, using default")
		return def
	}
	var out geometry.Vec3
	for i, raw := range seq {
		f, ok := toFloat32(raw)
		if !ok {
			return def
		}
		out[i] = f
	}
	return out
}

// GetMatrix3x3 reads a 3x3 nested sequence as a geometry.Matrix3x3.
func (s *Store) GetMatrix3x3(path string, def geometry.Matrix3x3) geometry.Matrix3x3 {
	v, ok := s.lookup(path)
	if !ok {
		return def
	}
	rows, ok := v.([]interface{})
	if !ok || len(rows) != 3 {
		logger.Log.Warn().Str("path", path).Msg("config: expected 3x3 matrix, using default")
		return def
	}
	var out geometry.Matrix3x3
	for i, rawRow := range rows {
		row, ok := rawRow.([]interface{})
		if !ok || len(row) != 3 {
			return def
		}
		for j, raw := range row {
			f, ok := toFloat32(raw)
			if !ok {
				return def
			}
			out[i][j] = f
		}
	}
	return out
}

func toFloat32(raw interface{}) (float32, bool) {
	switch n := raw.(type) {
	case float64:
		return float32(n), true
	case int:
		return float32(n), true
	default:
		return 0, false
	}
}

// MustGetString aborts the process with a log+exit when a required
// configuration key is missing, per spec.md §7's "Configuration" error
// policy: unrecoverable at startup.
func (s *Store) MustGetString(path string) string {
	v, ok := s.lookup(path)
	if !ok {
		logger.Log.Fatal().Str("path", path).Msg("config: required key missing")
	}
	str, ok := v.(string)
	if !ok {
		logger.Log.Fatal().Str("path", path).Msg("config: required key has wrong type")
	}
	return str
}
