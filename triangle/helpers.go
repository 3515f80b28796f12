package triangle

import (
	"strings"
)

// nullTerm makes a string safe to hand to the C side of the binding. Vulkan
// name lists must be NUL terminated.
func nullTerm(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return s + "\x00"
}
