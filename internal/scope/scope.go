// Package scope suspends access checks and cache write-through for the
// duration of a call.
//
// A suspension lives in a derived context.Context, so the caller's context is
// never changed and concurrent requests do not observe each other's
// suspensions. Every Suspend must be paired with its release func, normally
// via defer; the release is idempotent.
//
//	ctx, release := scope.Suspend(ctx)
//	defer release()
package scope

import (
	"context"
	"sync"
	"sync/atomic"
)

type ctxKey int

const (
	securityKey ctxKey = iota
	cacheWritesKey
)

// active counts suspensions that have been entered and not yet released.
var active atomic.Int64

// Suspend returns a context in which access checks and cache write-through
// are both disabled.
func Suspend(ctx context.Context) (context.Context, func()) {
	ctx = context.WithValue(ctx, securityKey, true)
	ctx = context.WithValue(ctx, cacheWritesKey, true)
	return ctx, enter()
}

// DisableSecurity returns a context in which access checks are disabled.
func DisableSecurity(ctx context.Context) (context.Context, func()) {
	return context.WithValue(ctx, securityKey, true), enter()
}

// DisableCacheWrites returns a context in which reads do not populate caches.
func DisableCacheWrites(ctx context.Context) (context.Context, func()) {
	return context.WithValue(ctx, cacheWritesKey, true), enter()
}

// Run calls fn with a suspended context and releases it on every exit path,
// including a panic in fn.
func Run[T any](ctx context.Context, fn func(ctx context.Context) T) T {
	sctx, release := Suspend(ctx)
	defer release()
	return fn(sctx)
}

// SecurityDisabled reports whether access checks are disabled in ctx.
func SecurityDisabled(ctx context.Context) bool {
	v, _ := ctx.Value(securityKey).(bool)
	return v
}

// CacheWritesDisabled reports whether cache write-through is disabled in ctx.
func CacheWritesDisabled(ctx context.Context) bool {
	v, _ := ctx.Value(cacheWritesKey).(bool)
	return v
}

// Active returns the number of suspensions currently entered.
func Active() int64 {
	return active.Load()
}

func enter() func() {
	active.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() { active.Add(-1) })
	}
}
