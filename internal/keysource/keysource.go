// Package keysource discovers banned IP addresses from a firewall rule listing.
package keysource

import (
	"regexp"
	"strings"
)

var ipPattern = regexp.MustCompile(`(\d+\.\d+\.\d+\.\d+)`)

// Extract pulls the first IPv4-shaped token from each line of a firewall
// listing and returns the keys deduplicated in first-seen order. The batch
// snapshot ordering downstream derives from this order.
func Extract(text string) []string {
	seen := make(map[string]struct{})
	var keys []string

	for _, line := range strings.Split(text, "\n") {
		match := ipPattern.FindString(line)
		if match == "" {
			continue
		}
		if _, ok := seen[match]; ok {
			continue
		}
		seen[match] = struct{}{}
		keys = append(keys, match)
	}

	return keys
}
