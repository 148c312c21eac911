package provider

import (
	"fmt"
	"time"
)

// parseProviderTime accepts the timestamp formats the provider is known to
// emit.
func parseProviderTime(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized provider timestamp: %q", value)
}
