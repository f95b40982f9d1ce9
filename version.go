package recio

import "fmt"

// Version constants.
const (
	Major = 0
	Minor = 1
	Patch = 0
)

// FormatVersion identifies the on-disk layout this build reads and writes.
// It is not stored in the files, and Open does not check it.
const FormatVersion = 1

// Version returns the library's version string.
func Version() string {
	return fmt.Sprintf("recio %d.%d.%d", Major, Minor, Patch)
}
