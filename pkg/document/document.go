package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/SonghaiFan/metroflow/pkg/errors"
	"github.com/SonghaiFan/metroflow/pkg/metro"
)

// =============================================================================
// Map Serialization API
// =============================================================================

// Marshal converts a map to compact JSON bytes.
func Marshal(m *metro.Map) ([]byte, error) {
	data, err := json.Marshal(FromMap(m))
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a JSON snapshot and rebuilds the map.
func Unmarshal(data []byte) (*metro.Map, error) {
	return Read(bytes.NewReader(data))
}

// Parse decodes a JSON snapshot without building a map.
func Parse(data []byte) (Document, error) {
	return decode(bytes.NewReader(data))
}

// WriteFile writes a map to an indented JSON file.
// The file is created with 0644 permissions.
func WriteFile(m *metro.Map, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(m, f)
}

// Write writes a map as indented JSON to an io.Writer.
// Use Marshal for compact in-memory serialization.
func Write(m *metro.Map, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromMap(m)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadFile reads a JSON snapshot file and rebuilds the map.
func ReadFile(path string) (*metro.Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes a JSON snapshot from an io.Reader and rebuilds the map.
func Read(r io.Reader) (*metro.Map, error) {
	d, err := decode(r)
	if err != nil {
		return nil, err
	}
	return ToMap(d)
}

// =============================================================================
// Internal Implementation
// =============================================================================

func decode(r io.Reader) (Document, error) {
	var raw struct {
		Tracks      *[]Track     `json:"tracks"`
		Connections []Connection `json:"connections"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeInvalidSnapshot, err, "decode map")
	}
	if raw.Tracks == nil {
		return Document{}, errors.New(errors.ErrCodeInvalidSnapshot, "decode map: missing tracks")
	}
	return Document{Tracks: *raw.Tracks, Connections: raw.Connections}, nil
}
