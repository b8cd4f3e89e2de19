// Package aggregate folds cleaned tables into entity indexes, merges
// storefront inventory into businesses and flattens the result into summary
// rows.
package aggregate

// Index is an insertion-ordered map from canonical name to entity. The first
// insert for a key wins; later inserts are ignored.
type Index[T any] struct {
	keys  []string
	items map[string]T
}

// NewIndex returns an empty Index.
func NewIndex[T any]() *Index[T] {
	return &Index[T]{items: make(map[string]T)}
}

// Insert adds v under key unless key is already present. It reports whether
// v was stored.
func (idx *Index[T]) Insert(key string, v T) bool {
	if _, ok := idx.items[key]; ok {
		return false
	}
	idx.keys = append(idx.keys, key)
	idx.items[key] = v
	return true
}

// Get returns the entity stored under key.
func (idx *Index[T]) Get(key string) (T, bool) {
	v, ok := idx.items[key]
	return v, ok
}

// Len returns the number of entities.
func (idx *Index[T]) Len() int { return len(idx.keys) }

// Keys returns the keys in first-seen order.
func (idx *Index[T]) Keys() []string { return append([]string(nil), idx.keys...) }

// Values returns the entities in first-seen order.
func (idx *Index[T]) Values() []T {
	out := make([]T, len(idx.keys))
	for i, k := range idx.keys {
		out[i] = idx.items[k]
	}
	return out
}

// Filter returns a new Index holding the entities for which keep is true, in
// the same order. Entities are shared, not copied.
func (idx *Index[T]) Filter(keep func(T) bool) *Index[T] {
	out := NewIndex[T]()
	for _, k := range idx.keys {
		if v := idx.items[k]; keep(v) {
			out.Insert(k, v)
		}
	}
	return out
}
