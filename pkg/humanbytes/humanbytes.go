// Package humanbytes renders byte counts into the narrative form
// detector output embeds directly in cluster and alert text ("12.3
// MB"). It intentionally does not delegate to go-humanize's byte
// helpers: those use SI-adjacent suffixes ("kB"/"KiB") that don't match
// the "B/KB/MB/GB/TB" labels baked into existing narratives.
package humanbytes

import "fmt"

var units = [...]string{"B", "KB", "MB", "GB", "TB"}

// Format renders value as a base-1024 byte count with one decimal place.
func Format(value float64) string {
	if value <= 0 {
		return "0 B"
	}
	idx := 0
	for value >= 1024 && idx < len(units)-1 {
		value /= 1024
		idx++
	}
	return fmt.Sprintf("%.1f %s", value, units[idx])
}
