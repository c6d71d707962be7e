package dataloader

// KeyFunc extracts the batch key from a fetched value.
type KeyFunc[K comparable, V any] func(V) K

// OrderByKeys arranges values to match keys. A key without a value gets the
// zero value of V, which single-valued loaders treat as absence.
func OrderByKeys[K comparable, V any](keys []K, values []V, keyFn KeyFunc[K, V]) []V {
	lookup := make(map[K]V, len(values))
	for _, v := range values {
		k := keyFn(v)
		if _, ok := lookup[k]; !ok {
			lookup[k] = v
		}
	}
	out := make([]V, len(keys))
	for i, k := range keys {
		out[i] = lookup[k]
	}
	return out
}

// GroupByKey buckets values by key, keeping their input order.
func GroupByKey[K comparable, V any](values []V, keyFn KeyFunc[K, V]) map[K][]V {
	groups := make(map[K][]V)
	for _, v := range values {
		k := keyFn(v)
		groups[k] = append(groups[k], v)
	}
	return groups
}

// OrderGroupsByKeys returns the group of each key in key order. Keys without
// a group get an empty, non-nil slice.
func OrderGroupsByKeys[K comparable, V any](keys []K, groups map[K][]V) [][]V {
	out := make([][]V, len(keys))
	for i, k := range keys {
		if g, ok := groups[k]; ok {
			out[i] = g
		} else {
			out[i] = []V{}
		}
	}
	return out
}
