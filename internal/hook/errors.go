// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

package hook

import "github.com/samber/oops"

// Error codes for hook registration failures.
const (
	CodeEmptyHookName = "EMPTY_HOOK_NAME"
	CodeNilHandler    = "NIL_HANDLER"
)

// ErrEmptyHookName creates an error for a registration without a hook name.
func ErrEmptyHookName() error {
	return oops.In("hook").
		Code(CodeEmptyHookName).
		Errorf("hook name cannot be empty")
}

// ErrNilHandler creates an error for a registration without a handler.
func ErrNilHandler(name string) error {
	return oops.In("hook").
		Code(CodeNilHandler).
		With("hook", name).
		Errorf("handler for %s cannot be nil", name)
}
