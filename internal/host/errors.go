// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

package host

import "github.com/samber/oops"

// Error codes for the host runtime.
const (
	CodeNoEnvironment = "NO_ENVIRONMENT"
	CodeNilBus        = "NIL_BUS"
	CodeUnknownKind   = "UNKNOWN_KIND"
)

// ErrNoEnvironment creates an error for a runtime started outside a host
// installation. Nothing may be attached or fired in that case.
func ErrNoEnvironment() error {
	return oops.In("host").
		Code(CodeNoEnvironment).
		Hint("set the host root directory").
		Errorf("host environment is not defined")
}

// ErrNilBus creates an error for a runtime without a hook bus.
func ErrNilBus() error {
	return oops.In("host").
		Code(CodeNilBus).
		Errorf("hook bus is nil")
}

// ErrUnknownKind creates an error for an unsupported request kind.
func ErrUnknownKind(kind string) error {
	return oops.In("host").
		Code(CodeUnknownKind).
		With("kind", kind).
		Errorf("request kind must be 'public' or 'admin', got %q", kind)
}
