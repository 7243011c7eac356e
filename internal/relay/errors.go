// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

package relay

import "github.com/samber/oops"

// Error codes for attaching the relay. Dispatch errors are never wrapped;
// they come from downstream handlers and propagate unchanged.
const (
	CodeNilBus          = "NIL_BUS"
	CodeAlreadyAttached = "ALREADY_ATTACHED"
	CodeAttachFailed    = "ATTACH_FAILED"
)

// ErrNilBus creates an error for attaching to a nil bus.
func ErrNilBus() error {
	return oops.In("relay").
		Code(CodeNilBus).
		Errorf("hook bus is nil")
}

// ErrAlreadyAttached creates an error for attaching a namespace twice.
func ErrAlreadyAttached(namespace string) error {
	return oops.In("relay").
		Code(CodeAlreadyAttached).
		With("namespace", namespace).
		Errorf("relay %s is already attached to this bus", namespace)
}

// ErrAttach wraps a registration failure for a table entry.
func ErrAttach(namespace, callback string, cause error) error {
	return oops.In("relay").
		Code(CodeAttachFailed).
		With("namespace", namespace).
		With("callback", callback).
		Wrapf(cause, "attach %s", callback)
}
