package wireenc

import "unsafe"

// GoMap adapts an ordinary Go map[K]V to the Map interface, so that
// message types built on native Go maps (rather than a generated
// structure-of-arrays layout) can still be encoded. K and V must match
// the key/value Repr declared on the map field.
type GoMap[K comparable, V any] struct {
	M map[K]V
}

func (g GoMap[K, V]) Len() int { return len(g.M) }

// Range yields one MapEntry per map entry. Key and Val point at fresh
// copies made for each entry, not at anything inside g.M directly (Go
// maps give no stable addresses for their keys/values), so they stay
// valid after yield returns.
func (g GoMap[K, V]) Range(yield func(MapEntry) bool) {
	for k, v := range g.M {
		key, val := k, v
		if !yield(MapEntry{
			Key: unsafe.Pointer(&key),
			Val: unsafe.Pointer(&val),
		}) {
			return
		}
	}
}
