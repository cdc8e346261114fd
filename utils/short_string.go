package utils

import "fmt"

// ShortenLog abbreviates a hex key or order id for log lines.
func ShortenLog(id string) string {
	cut := 8
	if len(id) <= 8 {
		return id
	} else if len(id) <= 16 {
		cut = 4
	}
	return fmt.Sprintf("%s...%s", id[:cut], id[len(id)-cut:])
}
