// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

package extension

import (
	"context"
	"io"

	"github.com/gnistdesign/gnist/internal/hook"
)

// Host manages a specific extension runtime type.
type Host interface {
	// Load validates an extension and keeps it ready for attaching.
	Load(ctx context.Context, manifest *Manifest, dir string) error

	// Unload forgets an extension. Buses it is already attached to keep
	// their registrations until their attachment is closed.
	Unload(ctx context.Context, name string) error

	// Attach runs every loaded extension against bus so it can subscribe to
	// namespaced hooks. Closing the returned attachment removes those
	// subscriptions and releases runtime resources.
	Attach(ctx context.Context, bus *hook.Bus) (io.Closer, error)

	// Extensions returns names of all loaded extensions.
	Extensions() []string

	// Close shuts down the host and all extensions.
	Close(ctx context.Context) error
}
