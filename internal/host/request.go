// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

package host

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex
)

// NewID generates a monotonic request ULID.
func NewID() ulid.ULID {
	entropyLock.Lock()
	defer entropyLock.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
}

// Kind selects which lifecycle a request runs after boot.
type Kind string

// Request kinds.
const (
	KindPublic Kind = "public"
	KindAdmin  Kind = "admin"
)

// ParseKind validates a request kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindPublic, KindAdmin:
		return k, nil
	default:
		return "", ErrUnknownKind(s)
	}
}

// Request is the scope of one lifecycle run.
type Request struct {
	ID         ulid.ULID
	Kind       Kind
	HookSuffix string
}

// NewRequest creates a request with a fresh ID. hookSuffix identifies the
// admin page and is ignored for public requests.
func NewRequest(kind Kind, hookSuffix string) Request {
	return Request{
		ID:         NewID(),
		Kind:       kind,
		HookSuffix: hookSuffix,
	}
}

type requestKey struct{}

// WithRequest returns a context carrying req.
func WithRequest(ctx context.Context, req Request) context.Context {
	return context.WithValue(ctx, requestKey{}, req)
}

// RequestFromContext returns the request ctx is running under.
func RequestFromContext(ctx context.Context) (Request, bool) {
	req, ok := ctx.Value(requestKey{}).(Request)
	return req, ok
}
