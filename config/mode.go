package config

import (
	"os"
	"strings"
)

// ModeKey is the environment variable selecting the overlay config file.
const ModeKey = "IMGRESIZE_ENV"

type Mode string

const (
	DevMode  Mode = "development"
	ProMode  Mode = "production"
	TestMode Mode = "test"
)

func ParseMode(env string) Mode {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "pro":
		return ProMode
	case "test", "testing":
		return TestMode
	default:
		return DevMode
	}
}

// CurrentMode reads ModeKey; unset or unknown values mean DevMode.
func CurrentMode() Mode {
	return ParseMode(os.Getenv(ModeKey))
}

// aliases lists the file name suffixes accepted for m, canonical name first.
func (m Mode) aliases() []string {
	switch m {
	case ProMode:
		return []string{"production", "prod", "pro"}
	case TestMode:
		return []string{"test"}
	default:
		return []string{"development", "dev"}
	}
}
