// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

package lua

import "github.com/samber/oops"

// Error codes returned by the Lua host.
const (
	CodeHookDenied    = "HOOK_DENIED"
	CodeHostClosed    = "HOST_CLOSED"
	CodeNotLoaded     = "EXTENSION_NOT_LOADED"
	CodeScriptFailed  = "SCRIPT_FAILED"
	CodeHandlerFailed = "HANDLER_FAILED"
)

// ErrHookDenied creates an error for a subscription outside the
// extension's grants.
func ErrHookDenied(extension, hookName string) error {
	return oops.In("lua").
		Code(CodeHookDenied).
		With("extension", extension).
		With("hook", hookName).
		Errorf("extension %s may not subscribe to %s", extension, hookName)
}

func errHostClosed(extension, operation string) error {
	return oops.In("lua").
		Code(CodeHostClosed).
		With("extension", extension).
		With("operation", operation).
		New("host is closed")
}

func errNotLoaded(extension string) error {
	return oops.In("lua").
		Code(CodeNotLoaded).
		With("extension", extension).
		With("operation", "unload").
		New("extension not loaded")
}
