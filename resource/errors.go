package resource

import "errors"

// Sentinel errors for inspection with errors.Is.
var (
	// ErrConfiguration reports invalid wrap/cache parameters, such as a
	// non-positive MaxInstances or a non-function constructor. It is
	// returned at decoration time and is fatal to that decoration.
	ErrConfiguration = errors.New("resource: invalid configuration")

	// ErrUnhashableArgument reports that the call arguments cannot form a
	// cache key. It is returned at call time, before the constructor runs.
	ErrUnhashableArgument = errors.New("resource: argument cannot be keyed")

	// ErrClosed is returned by GetOrCreate on a closed cache.
	ErrClosed = errors.New("resource: cache is closed")
)

// Constructor errors are deliberately not represented here: whatever a
// user-supplied constructor returns on a miss is propagated unchanged,
// not wrapped and not memoized.
