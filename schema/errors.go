/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package schema provides the shared error taxonomy and validation modes
// for resolver document processing.
package schema

import "errors"

// Sentinel errors for resolution failures. Callers dispatch on these with
// errors.Is; messages wrapped around them carry the offending pointer,
// token name, or cycle chain.
var (
	// ErrConfiguration indicates a malformed resolver document: missing
	// resolutionOrder, a modifier with fewer than two contexts, an invalid
	// default, a wrong reference-target kind, or a bad modifier input.
	ErrConfiguration = errors.New("invalid resolver configuration")

	// ErrInvalidReference indicates an unresolvable $ref: a missing path
	// segment, an out-of-range array index, or a pointer into a forbidden
	// document region.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrValidation indicates a $extends problem: a missing or wrong-kind
	// target, or malformed group reference syntax.
	ErrValidation = errors.New("validation failed")

	// ErrCircularReference indicates a reference cycle, direct or indirect.
	ErrCircularReference = errors.New("circular reference detected")

	// ErrTokenReference indicates an alias whose target token does not
	// exist, or whose declared $type contradicts the resolved target's.
	ErrTokenReference = errors.New("unresolved token reference")
)
