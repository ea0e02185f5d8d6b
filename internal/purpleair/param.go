package purpleair

import (
	"fmt"
	"strings"
)

// Parameter is the parsed widget parameter: "<sensorIndex>" or
// "<sensorIndex>:<apiKey>".
type Parameter struct {
	SensorIndex string
	APIKey      string
}

func ParseParameter(s string) (Parameter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Parameter{}, fmt.Errorf("%w: empty", ErrInvalidParameter)
	}

	index, key, hasKey := strings.Cut(s, ":")
	index = strings.TrimSpace(index)
	key = strings.TrimSpace(key)

	if !isDigits(index) {
		return Parameter{}, fmt.Errorf("%w: sensor index %q is not numeric", ErrInvalidParameter, index)
	}
	if hasKey && key == "" {
		return Parameter{}, fmt.Errorf("%w: empty api key after ':'", ErrInvalidParameter)
	}

	return Parameter{SensorIndex: index, APIKey: key}, nil
}

// HasKey reports whether the parameter carries its own api key.
func (p Parameter) HasKey() bool {
	return p.APIKey != ""
}

// String is safe to log: the api key is never included.
func (p Parameter) String() string {
	if p.HasKey() {
		return p.SensorIndex + ":***"
	}
	return p.SensorIndex
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
