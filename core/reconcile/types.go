package reconcile

// Partition is the result of comparing a remote keyed collection against a local one.
// Every key appears in exactly one of the three slices.
type Partition[K comparable] struct {
	// OnlyRemote holds keys present remotely but not locally, in remote order.
	OnlyRemote []K `json:"only_remote"`

	// Both holds keys present on both sides, in remote order.
	Both []K `json:"both"`

	// OnlyLocal holds keys present locally but absent remotely, in local order.
	OnlyLocal []K `json:"only_local"`
}

// Summary provides aggregate counts for a partition.
type Summary struct {
	// Total is the number of unique keys across both sides.
	Total int `json:"total"`

	// OnlyRemote counts keys missing locally.
	OnlyRemote int `json:"only_remote"`

	// OnlyLocal counts keys missing remotely.
	OnlyLocal int `json:"only_local"`

	// Both counts keys present on both sides.
	Both int `json:"both"`
}

// Summary returns aggregate counts for p.
func (p Partition[K]) Summary() Summary {
	return Summary{
		Total:      len(p.OnlyRemote) + len(p.OnlyLocal) + len(p.Both),
		OnlyRemote: len(p.OnlyRemote),
		OnlyLocal:  len(p.OnlyLocal),
		Both:       len(p.Both),
	}
}
