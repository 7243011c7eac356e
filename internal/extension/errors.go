// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

package extension

import "github.com/samber/oops"

// Error codes for extension loading.
const (
	CodeIncompatible   = "INCOMPATIBLE_EXTENSION"
	CodeInvalidGrants  = "INVALID_GRANTS"
	CodeNotLoaded      = "EXTENSION_NOT_LOADED"
	CodeInvalidVersion = "INVALID_ENGINE_VERSION"
)

// ErrIncompatible creates an error for an extension whose requires
// constraint excludes the running engine.
func ErrIncompatible(name, requires, engine string) error {
	return oops.In("extension").
		Code(CodeIncompatible).
		With("extension", name).
		With("requires", requires).
		With("engine", engine).
		Errorf("extension %s requires engine %s, running %s", name, requires, engine)
}

// ErrNotLoaded creates an error for an operation on an unknown extension.
func ErrNotLoaded(name string) error {
	return oops.In("extension").
		Code(CodeNotLoaded).
		With("extension", name).
		Errorf("extension %s is not loaded", name)
}
