package ratelimit

import (
	"context"
	"encoding/json"
)

// Thunk is a deferred network call.
type Thunk func(ctx context.Context) (json.RawMessage, error)

// Track runs fn and feeds a successful result into store before returning it
// unchanged. Errors pass through untouched and never update the store.
//
// Concurrent calls are not ordered: whichever completes last wins. If ctx is
// done by the time fn returns, the result is dropped and ctx.Err() returned
// so a departed caller never writes quota state.
func Track(ctx context.Context, store *Store, fn Thunk) (json.RawMessage, error) {
	raw, err := fn(ctx)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if store != nil {
		store.Update(raw)
	}
	return raw, nil
}
