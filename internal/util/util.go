package util

import "fmt"

// FormatSize renders a byte count for humans, dividing by 1024 per unit
// step. Values show two decimals, so 1536 bytes comes out as "1.50 KB".
func FormatSize(size int64) string {
	value := float64(size)

	for _, unit := range []string{"B", "KB", "MB", "GB", "TB"} {
		if value < 1024 {
			return fmt.Sprintf("%.2f %s", value, unit)
		}

		value /= 1024
	}

	return fmt.Sprintf("%.2f PB", value)
}
