package reconcile

// Index builds a key-to-item map and the ordered list of unique keys.
// When two items share a key the first one wins.
func Index[K comparable, T any](items []T, key func(T) K) (map[K]T, []K) {
	index := make(map[K]T, len(items))
	order := make([]K, 0, len(items))
	for _, item := range items {
		k := key(item)
		if _, exists := index[k]; exists {
			continue
		}
		index[k] = item
		order = append(order, k)
	}
	return index, order
}

// Diff partitions the union of remote and local keys by presence.
// The result depends only on the input order, never on map iteration.
func Diff[K comparable, R, L any](remote []R, remoteKey func(R) K, local []L, localKey func(L) K) Partition[K] {
	remoteIndex, remoteOrder := Index(remote, remoteKey)
	localIndex, localOrder := Index(local, localKey)

	p := Partition[K]{
		OnlyRemote: []K{},
		Both:       []K{},
		OnlyLocal:  []K{},
	}

	for _, k := range remoteOrder {
		if _, ok := localIndex[k]; ok {
			p.Both = append(p.Both, k)
		} else {
			p.OnlyRemote = append(p.OnlyRemote, k)
		}
	}

	for _, k := range localOrder {
		if _, ok := remoteIndex[k]; !ok {
			p.OnlyLocal = append(p.OnlyLocal, k)
		}
	}

	return p
}

// FirstOverlap returns a key that appears in more than one of sets.
func FirstOverlap[K comparable](sets ...[]K) (K, bool) {
	seen := make(map[K]int)
	for i, set := range sets {
		for _, k := range set {
			if owner, ok := seen[k]; ok && owner != i {
				return k, true
			}
			seen[k] = i
		}
	}
	var zero K
	return zero, false
}
