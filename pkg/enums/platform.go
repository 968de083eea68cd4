package enums

import "fmt"

// Platform identifies a ticketing source platform.
type Platform string

const (
	PlatformHumanitix  Platform = "humanitix"
	PlatformEventbrite Platform = "eventbrite"
)

var validPlatforms = []Platform{
	PlatformHumanitix,
	PlatformEventbrite,
}

// Platforms returns every supported platform.
func Platforms() []Platform {
	out := make([]Platform, len(validPlatforms))
	copy(out, validPlatforms)
	return out
}

// String implements fmt.Stringer.
func (p Platform) String() string {
	return string(p)
}

// IsValid reports whether the platform is recognized.
func (p Platform) IsValid() bool {
	for _, candidate := range validPlatforms {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePlatform converts a raw string into a Platform.
func ParsePlatform(value string) (Platform, error) {
	for _, candidate := range validPlatforms {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid platform %q", value)
}
