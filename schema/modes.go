/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package schema

import "fmt"

// ValidationMode controls how resolvers react to recoverable problems
// such as an unresolved alias inside a $value.
type ValidationMode int

const (
	// ModeError fails the resolution. This is the default.
	ModeError ValidationMode = iota

	// ModeWarn keeps the offending value in place and fires the
	// caller-supplied warning callback.
	ModeWarn

	// ModeOff skips the check entirely.
	ModeOff
)

// String returns the string representation of the mode.
func (m ValidationMode) String() string {
	switch m {
	case ModeError:
		return "error"
	case ModeWarn:
		return "warn"
	case ModeOff:
		return "off"
	default:
		return "unknown"
	}
}

// ModeFromString parses a validation mode name.
func ModeFromString(s string) (ValidationMode, error) {
	switch s {
	case "", "error":
		return ModeError, nil
	case "warn":
		return ModeWarn, nil
	case "off":
		return ModeOff, nil
	default:
		return ModeError, fmt.Errorf("unrecognized validation mode: %s", s)
	}
}

// WarnFunc receives warning messages in ModeWarn.
type WarnFunc func(format string, args ...any)
