package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so config fields accept either a Go
// duration string ("5s", "500ms") or a bare number of seconds (5, 0.5)
// in the YAML file.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	// Numbers are tried first: yaml.v3 also decodes a numeric scalar into a
	// string, which time.ParseDuration would then reject for lacking a unit.
	var asSeconds float64
	if err := value.Decode(&asSeconds); err == nil {
		*d = Duration(asSeconds * float64(time.Second))
		return nil
	}

	var asString string
	if err := value.Decode(&asString); err != nil {
		return fmt.Errorf("config: duration must be a string or number of seconds: %w", err)
	}
	parsed, err := time.ParseDuration(asString)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", asString, err)
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the wrapped time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
