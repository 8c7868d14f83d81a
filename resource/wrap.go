package resource

import (
	"context"
	"fmt"
	"reflect"
)

// WrapOption configures a single Wrap call. Configuration is immutable
// after decoration.
type WrapOption func(*wrapConfig)

type wrapConfig struct {
	maxInstances  int
	typeSensitive bool
	keyer         Keyer
	metrics       Metrics
	onEvict       func(key string)
}

// WithMaxInstances caps the number of cached resources for this
// constructor. Inserting past the cap evicts the least-recently-used
// entry. Must be positive; Wrap reports ErrConfiguration otherwise.
//
// Default: DefaultMaxInstances.
func WithMaxInstances(n int) WrapOption {
	return func(c *wrapConfig) { c.maxInstances = n }
}

// WithTypeSensitive makes argument runtime types participate in key
// equality, so values like int(1) and float64(1) are cached separately.
func WithTypeSensitive() WrapOption {
	return func(c *wrapConfig) { c.typeSensitive = true }
}

// WithKeyer replaces the default CanonicalKeyer. A custom keyer also takes
// over type-sensitivity handling; WithTypeSensitive has no effect on it.
func WithKeyer(k Keyer) WrapOption {
	return func(c *wrapConfig) { c.keyer = k }
}

// WithMetrics wires an observability backend into the backing cache.
func WithMetrics(m Metrics) WrapOption {
	return func(c *wrapConfig) { c.metrics = m }
}

// WithOnEvict registers a callback invoked when a cached resource is
// dropped to respect the instance cap. Eviction does not finalize the
// resource; the callback is observational.
func WithOnEvict(fn func(key string)) WrapOption {
	return func(c *wrapConfig) { c.onEvict = fn }
}

var (
	ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType = reflect.TypeOf((*error)(nil)).Elem()
)

// Wrap memoizes constructor: the returned function has the identical
// signature, serves repeated calls with equal arguments from a bounded
// LRU cache, and runs the underlying constructor exactly once per key.
//
// Calling convention is inspected once, at wrap time:
//   - a first parameter of type context.Context marks a suspending
//     constructor: calls block while the resource is created, and
//     concurrent misses for the same key coalesce into one run;
//   - any other function is a direct constructor, memoized the same way
//     with lookup/insert atomic per key.
//
// If the constructor's last result is an error, a non-nil error is
// propagated unchanged and never memoized. Arguments that cannot be keyed
// surface as ErrUnhashableArgument through that error result; a
// constructor without an error result panics on unkeyable arguments, since
// it has no way to report them.
//
// Wrap returns ErrConfiguration (wrapped) if constructor is not a non-nil
// function or an option carries an invalid value.
func Wrap[F any](constructor F, opts ...WrapOption) (F, error) {
	var zero F

	fv := reflect.ValueOf(constructor)
	if fv.Kind() != reflect.Func || fv.IsNil() {
		return zero, fmt.Errorf("%w: constructor must be a non-nil function, got %T",
			ErrConfiguration, constructor)
	}
	ft := fv.Type()

	cfg := wrapConfig{maxInstances: DefaultMaxInstances}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.maxInstances <= 0 {
		return zero, fmt.Errorf("%w: max instances must be a positive integer, got %d",
			ErrConfiguration, cfg.maxInstances)
	}
	if cfg.keyer == nil {
		cfg.keyer = CanonicalKeyer{TypeSensitive: cfg.typeSensitive}
	}

	// Calling-convention dispatch happens here, once per decoration.
	suspending := ft.NumIn() > 0 && ft.In(0) == ctxType
	nOut := ft.NumOut()
	tailErr := nOut > 0 && ft.Out(nOut-1) == errType

	var onEvict func(k string, v []reflect.Value, reason EvictReason)
	if cfg.onEvict != nil {
		cb := cfg.onEvict
		onEvict = func(k string, _ []reflect.Value, _ EvictReason) { cb(k) }
	}
	cache, err := New[string, []reflect.Value](Options[string, []reflect.Value]{
		MaxInstances: cfg.maxInstances,
		Metrics:      cfg.metrics,
		OnEvict:      onEvict,
	})
	if err != nil {
		return zero, err
	}

	wrapped := reflect.MakeFunc(ft, func(in []reflect.Value) []reflect.Value {
		ctx := context.Background()
		keyArgs := in
		if suspending {
			if c, ok := in[0].Interface().(context.Context); ok && c != nil {
				ctx = c
			}
			keyArgs = in[1:]
		}

		args := make([]any, len(keyArgs))
		for i, v := range keyArgs {
			args[i] = v.Interface()
		}
		key, err := cfg.keyer.Key(args)
		if err != nil {
			return failure(ft, tailErr, err)
		}

		outs, err := cache.GetOrCreate(ctx, key, func(context.Context) ([]reflect.Value, error) {
			var out []reflect.Value
			if ft.IsVariadic() {
				out = fv.CallSlice(in)
			} else {
				out = fv.Call(in)
			}
			if tailErr {
				if e, _ := out[nOut-1].Interface().(error); e != nil {
					return nil, e
				}
				out = out[:nOut-1]
			}
			return out, nil
		})
		if err != nil {
			return failure(ft, tailErr, err)
		}

		if !tailErr {
			return outs
		}
		res := make([]reflect.Value, 0, nOut)
		res = append(res, outs...)
		res = append(res, reflect.Zero(errType))
		return res
	})

	return wrapped.Interface().(F), nil
}

// MustWrap is Wrap that panics on configuration error. Decoration normally
// happens during test setup with compile-time constant options, where an
// invalid value is a programmer error (the [regexp.MustCompile] pattern).
func MustWrap[F any](constructor F, opts ...WrapOption) F {
	f, err := Wrap(constructor, opts...)
	if err != nil {
		panic(err)
	}
	return f
}

// failure assembles the return values for an error outcome. Constructors
// without an error result have no channel to surface key-construction
// failures, so those panic.
func failure(ft reflect.Type, tailErr bool, err error) []reflect.Value {
	if !tailErr {
		panic(err)
	}
	nOut := ft.NumOut()
	res := make([]reflect.Value, nOut)
	for i := 0; i < nOut-1; i++ {
		res[i] = reflect.Zero(ft.Out(i))
	}
	ev := reflect.New(errType).Elem()
	ev.Set(reflect.ValueOf(err))
	res[nOut-1] = ev
	return res
}
