package cache

import (
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// MaxKeyLength is the longest key stored verbatim. Longer keys keep their
// namespace and operation prefix and replace the argument segment with a hash.
const MaxKeyLength = 200

// Spec describes one decorated operation.
//
// Key is the explicit key builder for the operation: it returns the argument
// values that identify a call. Two calls whose Key results serialize to the same
// string share a cache entry.
type Spec[A any] struct {
	Namespace string
	Operation string
	TTL       time.Duration
	Key       func(args A) []any
}

// Prefix returns the key prefix shared by every entry of the operation.
func (s Spec[A]) Prefix() string {
	return Prefix(s.Namespace, s.Operation)
}

func (s Spec[A]) parts(args A) []any {
	if s.Key == nil {
		return nil
	}
	return s.Key(args)
}

// Prefix joins namespace and operation the same way keys are built.
func Prefix(namespace, operation string) string {
	if operation == "" {
		return namespace
	}
	return namespace + KeySeparator + operation
}

// KeyFor returns the key a call with args is cached under.
func KeyFor[A any](serializer KeySerializer, spec Spec[A], args A) string {
	prefix := spec.Prefix()
	return Fingerprint(prefix, serializer.SerializeKey(prefix, spec.parts(args)...))
}

// BatchKeyFor returns the key the value for id is cached under by a batch memo.
// The id segment is never hashed so single entries stay addressable.
func BatchKeyFor[A any](serializer KeySerializer, spec Spec[A], args A, id string) string {
	return KeyFor(serializer, spec, args) + KeySeparator + id
}

// Fingerprint compacts key when it exceeds MaxKeyLength. The result starts with
// prefix so prefix based invalidation keeps working.
func Fingerprint(prefix, key string) string {
	if len(key) <= MaxKeyLength {
		return key
	}
	var b strings.Builder
	b.Grow(len(prefix) + len(KeySeparator) + 17)
	b.WriteString(prefix)
	b.WriteString(KeySeparator)
	b.WriteByte('#')
	b.WriteString(strconv.FormatUint(xxhash.Sum64String(key), 16))
	return b.String()
}
