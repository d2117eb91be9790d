package score

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// LoadFile reads and validates a TOML score file
func LoadFile(path string) (*Score, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("score: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates TOML score data
func Parse(data []byte) (*Score, error) {
	var s Score
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("score: parse: %w", err)
	}
	if s.BPM == 0 {
		s.BPM = 120
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
