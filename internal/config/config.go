// Package config loads pusher.Options from a JSON file. Grounded on the
// teacher's internal/config.Load/LoadWithDefaults: read the file, unmarshal
// into a plain struct, applyDefaults, validate — no third-party config
// library, because the teacher itself reaches for nothing beyond the
// standard library here either.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// File is the on-disk shape of a Client's configuration. It mirrors
// pusher.Options field-for-field minus Authorizer and Logger, which are
// Go values an application wires in code, never JSON, plus the APIKey.
type File struct {
	APIKey    string `json:"apiKey"`
	Cluster   string `json:"cluster"`
	Host      string `json:"host"`
	WSPort    int    `json:"wsPort"`
	WSSPort   int    `json:"wssPort"`
	Encrypted *bool  `json:"encrypted"`
}

// defaults mirror pusher.DefaultOptions.
const (
	DefaultCluster = "mt1"
)

// Load reads path, applies defaults, and validates the result.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	f := &File{}
	if err := json.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(f)

	if err := validate(f); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return f, nil
}

func applyDefaults(f *File) {
	if f.Cluster == "" && f.Host == "" {
		f.Cluster = DefaultCluster
	}
	if f.Encrypted == nil {
		enabled := true
		f.Encrypted = &enabled
	}
}

func validate(f *File) error {
	if f.APIKey == "" {
		return fmt.Errorf("apiKey is required")
	}
	if f.WSPort != 0 && (f.WSPort < 1 || f.WSPort > 65535) {
		return fmt.Errorf("wsPort must be between 1 and 65535")
	}
	if f.WSSPort != 0 && (f.WSSPort < 1 || f.WSSPort > 65535) {
		return fmt.Errorf("wssPort must be between 1 and 65535")
	}
	return nil
}
