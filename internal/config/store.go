// Package config provides the dotted-key configuration store consumed by
// the orchestration engine and gateway (spec §6 "Config contract"). Values
// may come from a YAML file, programmatic defaults, or the environment;
// environment variables always win.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store is a dotted-key/value configuration store with typed getters and an
// environment-variable override layer under the TASKFLOW_ prefix.
//
// Override rule: a key "gateway.max_retries" is overridden by the
// environment variable TASKFLOW_GATEWAY_MAX_RETRIES (dots become
// underscores, the whole key is upper-cased).
type Store struct {
	values map[string]any
	prefix string
}

// New creates an empty Store. Use Load or Set to populate it.
func New() *Store {
	return &Store{values: make(map[string]any), prefix: "TASKFLOW_"}
}

// Load reads a YAML document into a new Store. Nested maps are flattened
// into dotted keys.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	s := New()
	flatten("", raw, s.values)
	return s, nil
}

func flatten(prefix string, in map[string]any, out map[string]any) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flatten(key, nested, out)
			continue
		}
		out[key] = v
	}
}

// Set stores a value under a dotted key, overwriting any existing value.
func (s *Store) Set(key string, value any) {
	s.values[key] = value
}

// envKey converts a dotted key to its TASKFLOW_ environment variable name.
func (s *Store) envKey(key string) string {
	return s.prefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// lookup returns the environment override for key, if one is set. Stored
// values are read by the typed getters themselves.
func (s *Store) lookup(key string) (string, bool) {
	if v, ok := os.LookupEnv(s.envKey(key)); ok {
		return v, true
	}
	return "", false
}

// GetString returns a string value, or def if the key is unset.
func (s *Store) GetString(key, def string) string {
	if v, ok := s.lookup(key); ok {
		return v
	}
	if v, ok := s.values[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return def
}

// GetInt returns an int value, or def if the key is unset or malformed.
func (s *Store) GetInt(key string, def int) int {
	if v, ok := s.lookup(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		return def
	}
	if v, ok := s.values[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		}
	}
	return def
}

// GetFloat returns a float64 value, or def if the key is unset or malformed.
func (s *Store) GetFloat(key string, def float64) float64 {
	if v, ok := s.lookup(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		return def
	}
	if v, ok := s.values[key]; ok {
		switch f := v.(type) {
		case float64:
			return f
		case int:
			return float64(f)
		}
	}
	return def
}

// GetBool returns a bool value, or def if the key is unset or malformed.
func (s *Store) GetBool(key string, def bool) bool {
	if v, ok := s.lookup(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		return def
	}
	if v, ok := s.values[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// GetDuration returns a duration value parsed with time.ParseDuration, or
// def if the key is unset or malformed.
func (s *Store) GetDuration(key string, def time.Duration) time.Duration {
	if v, ok := s.lookup(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		return def
	}
	if v, ok := s.values[key]; ok {
		if str, ok := v.(string); ok {
			if d, err := time.ParseDuration(str); err == nil {
				return d
			}
		}
	}
	return def
}

// GetStringMap returns a string-keyed map of strings stored under key, or
// nil if unset. Environment override is not supported for map values.
func (s *Store) GetStringMap(key string) map[string]string {
	v, ok := s.values[key]
	if !ok {
		return nil
	}
	raw, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, val := range raw {
		if str, ok := val.(string); ok {
			out[k] = str
		}
	}
	return out
}
