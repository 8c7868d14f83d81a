package resource

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Keyer builds a cache key from a constructor's call arguments.
//
// Contract:
//   - Determinism: value-equal argument lists must produce the same key,
//     regardless of map iteration order.
//   - Arguments that cannot be keyed must yield an error wrapping
//     ErrUnhashableArgument; the constructor is never invoked in that case.
//   - Implementations must be safe for concurrent use.
type Keyer interface {
	Key(args []any) (string, error)
}

// KeyMarshaler lets a type control its own key fragment. Useful for types
// whose identity lives in unexported fields, which the canonical encoder
// cannot see.
type KeyMarshaler interface {
	CacheKey() string
}

// CanonicalKeyer derives keys from a deterministic canonical encoding of
// the arguments, hashed with SHA-256.
//
// Encoding rules:
//   - scalars are rendered in their shortest decimal form, so int(1) and
//     float64(1) collide unless TypeSensitive is set;
//   - maps are encoded with their entries sorted by encoded key, so
//     argument maps differing only in insertion order key identically;
//   - pointers are dereferenced (pointees that compare equal key equal);
//   - structs are encoded by their exported fields in declaration order;
//   - with TypeSensitive, every value is wrapped in its runtime type name,
//     so equal-but-differently-typed values never collide.
//
// Functions, channels, unsafe pointers, and values nested beyond the
// encoder's depth bound (unbounded self-reference) cannot be keyed and
// yield ErrUnhashableArgument.
type CanonicalKeyer struct {
	TypeSensitive bool
}

// maxKeyDepth bounds recursion so self-referential values fail key
// construction instead of hanging it.
const maxKeyDepth = 32

// Key encodes the argument list canonically and returns the first 8 bytes
// of its SHA-256 as 16 hex characters.
func (k CanonicalKeyer) Key(args []any) (string, error) {
	var b strings.Builder
	b.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			b.WriteByte(',')
		}
		if err := k.encode(&b, reflect.ValueOf(a), maxKeyDepth); err != nil {
			return "", err
		}
	}
	b.WriteByte(')')

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:8]), nil
}

func (k CanonicalKeyer) encode(b *strings.Builder, v reflect.Value, depth int) error {
	if depth <= 0 {
		return fmt.Errorf("%w: nesting exceeds %d levels (self-referential value?)",
			ErrUnhashableArgument, maxKeyDepth)
	}
	// Untyped nil argument or nil interface element.
	if !v.IsValid() {
		b.WriteString("null")
		return nil
	}
	// Unwrap interface elements so the tag below reflects the dynamic type.
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			b.WriteString("null")
			return nil
		}
		return k.encode(b, v.Elem(), depth-1)
	}

	if m, ok := v.Interface().(KeyMarshaler); ok {
		if k.TypeSensitive {
			b.WriteString(v.Type().String())
			b.WriteByte('(')
			b.WriteString(strconv.Quote(m.CacheKey()))
			b.WriteByte(')')
			return nil
		}
		b.WriteString(strconv.Quote(m.CacheKey()))
		return nil
	}

	if k.TypeSensitive {
		b.WriteString(v.Type().String())
		b.WriteByte('(')
		if err := k.encodeValue(b, v, depth); err != nil {
			return err
		}
		b.WriteByte(')')
		return nil
	}
	return k.encodeValue(b, v, depth)
}

func (k CanonicalKeyer) encodeValue(b *strings.Builder, v reflect.Value, depth int) error {
	switch v.Kind() {
	case reflect.Bool:
		b.WriteString(strconv.FormatBool(v.Bool()))

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		b.WriteString(strconv.FormatInt(v.Int(), 10))

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		b.WriteString(strconv.FormatUint(v.Uint(), 10))

	case reflect.Float32, reflect.Float64:
		// Shortest form: float64(1) renders as "1", matching int(1) when
		// type sensitivity is off.
		b.WriteString(strconv.FormatFloat(v.Float(), 'g', -1, 64))

	case reflect.Complex64, reflect.Complex128:
		b.WriteString(strconv.FormatComplex(v.Complex(), 'g', -1, 128))

	case reflect.String:
		b.WriteString(strconv.Quote(v.String()))

	case reflect.Pointer:
		if v.IsNil() {
			b.WriteString("null")
			return nil
		}
		return k.encode(b, v.Elem(), depth-1)

	case reflect.Slice:
		if v.IsNil() {
			b.WriteString("null")
			return nil
		}
		return k.encodeList(b, v, depth)

	case reflect.Array:
		return k.encodeList(b, v, depth)

	case reflect.Map:
		if v.IsNil() {
			b.WriteString("null")
			return nil
		}
		return k.encodeMap(b, v, depth)

	case reflect.Struct:
		return k.encodeStruct(b, v, depth)

	default:
		// func, chan, unsafe.Pointer
		return fmt.Errorf("%w: %s value of type %s",
			ErrUnhashableArgument, v.Kind(), v.Type())
	}
	return nil
}

func (k CanonicalKeyer) encodeList(b *strings.Builder, v reflect.Value, depth int) error {
	b.WriteByte('[')
	for i := 0; i < v.Len(); i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		if err := k.encode(b, v.Index(i), depth-1); err != nil {
			return err
		}
	}
	b.WriteByte(']')
	return nil
}

// encodeMap sorts entries by their encoded key so iteration order never
// leaks into the cache key.
func (k CanonicalKeyer) encodeMap(b *strings.Builder, v reflect.Value, depth int) error {
	type pair struct{ key, val string }
	pairs := make([]pair, 0, v.Len())

	iter := v.MapRange()
	for iter.Next() {
		var kb, vb strings.Builder
		if err := k.encode(&kb, iter.Key(), depth-1); err != nil {
			return err
		}
		if err := k.encode(&vb, iter.Value(), depth-1); err != nil {
			return err
		}
		pairs = append(pairs, pair{kb.String(), vb.String()})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })

	b.WriteByte('{')
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.key)
		b.WriteByte(':')
		b.WriteString(p.val)
	}
	b.WriteByte('}')
	return nil
}

func (k CanonicalKeyer) encodeStruct(b *strings.Builder, v reflect.Value, depth int) error {
	t := v.Type()
	b.WriteByte('{')
	first := true
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if !first {
			b.WriteByte(',')
		}
		first = false
		b.WriteString(f.Name)
		b.WriteByte(':')
		if err := k.encode(b, v.Field(i), depth-1); err != nil {
			return err
		}
	}
	b.WriteByte('}')
	return nil
}

var _ Keyer = CanonicalKeyer{}
