package service

import "time"

// expiryPresets are the durations the creation API accepts.
var expiryPresets = map[string]time.Duration{
	"6h":  6 * time.Hour,
	"12h": 12 * time.Hour,
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
}

// ExpiryFromPreset resolves an expiration preset to an absolute time.
// An empty preset defaults to 24h, "never" means no expiry, unknown presets
// report false.
func ExpiryFromPreset(preset string, now time.Time) (*time.Time, bool) {
	if preset == "" {
		preset = "24h"
	}
	if preset == "never" {
		return nil, true
	}
	d, ok := expiryPresets[preset]
	if !ok {
		return nil, false
	}
	t := now.Add(d)
	return &t, true
}
