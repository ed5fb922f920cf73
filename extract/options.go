package extract

import "fmt"

// NumberMode controls how JSON numbers in records are represented.
type NumberMode uint8

const (
	// LosslessDecimal keeps numbers as json.Number, exactly as written.
	LosslessDecimal NumberMode = iota

	// NativeFloat converts numbers to float64.
	NativeFloat
)

func (m NumberMode) String() string {
	switch m {
	case LosslessDecimal:
		return "lossless"
	case NativeFloat:
		return "float"
	default:
		return fmt.Sprintf("NumberMode(%d)", uint8(m))
	}
}

// ParseNumberMode is the inverse of NumberMode.String.
func ParseNumberMode(s string) (NumberMode, error) {
	switch s {
	case "", "lossless":
		return LosslessDecimal, nil
	case "float":
		return NativeFloat, nil
	default:
		return 0, fmt.Errorf("unknown number mode %q (want lossless or float)", s)
	}
}

// Config holds the settings of an Extractor.
type Config struct {
	// Path of the array whose elements are extracted.  A nil Path means
	// DefaultPath; use Path{} to extract the elements of a root array.
	Path Path

	Numbers NumberMode
}

func defaultConfig() Config {
	return Config{Path: DefaultPath, Numbers: LosslessDecimal}
}

type Option func(*Config)

// WithPath sets the path of the array to extract elements from.
func WithPath(p Path) Option {
	return func(c *Config) {
		if p == nil {
			p = Path{}
		}
		c.Path = p
	}
}

func WithNumberMode(m NumberMode) Option {
	return func(c *Config) {
		c.Numbers = m
	}
}
