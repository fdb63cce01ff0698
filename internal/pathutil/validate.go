package pathutil

import (
	"errors"
	"fmt"
	"strings"
)

// Validation failures. Wrapped in *ValidationError.
var (
	ErrEmptyName    = errors.New("name cannot be empty")
	ErrInvalidChars = errors.New("invalid characters in name")
	ErrReservedName = errors.New("reserved device name")
)

// ValidationError reports why a proposed file or folder name was rejected.
type ValidationError struct {
	Name string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid name %q: %v", e.Name, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

const invalidChars = `<>:"/\|?*`

var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// ValidateName checks that name can be used for a file or folder.
// Reserved device names are matched on the part before the first dot,
// so "con.txt" is rejected as well.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Name: name, Err: ErrEmptyName}
	}
	if name == "." || name == ".." || strings.ContainsAny(name, invalidChars) {
		return &ValidationError{Name: name, Err: ErrInvalidChars}
	}
	for _, r := range name {
		if r < 0x20 {
			return &ValidationError{Name: name, Err: ErrInvalidChars}
		}
	}
	stem, _, _ := strings.Cut(name, ".")
	if reservedNames[strings.ToUpper(stem)] {
		return &ValidationError{Name: name, Err: ErrReservedName}
	}
	return nil
}
