package roster

import (
	"sort"
	"strconv"
	"strings"

	"guild-sync/feature/guild/models"
)

// Classification labels a member within its player group.
type Classification string

const (
	Main Classification = "main"
	Alt  Classification = "alt"
)

// Classified is a member annotated with its group and label.
// GroupKey is the owning user id or the toy fingerprint, nil for ungrouped members.
type Classified struct {
	Member          models.MemberView
	Classification  Classification
	GroupKey        *string
	MainCharacterID *uint
}

// Classify groups members by owner, then by toy hash, and labels one Main per group.
// The output is sorted by rank, name and character id whatever the input order.
func Classify(members []models.MemberView) []Classified {
	sorted := append([]models.MemberView(nil), members...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})

	var order []string
	groups := make(map[string][]int)
	labels := make(map[string]string)
	out := make([]Classified, len(sorted))

	for i, m := range sorted {
		out[i] = Classified{Member: m, Classification: Main}

		key, label, ok := groupKey(m)
		if !ok {
			continue
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
			labels[key] = label
		}
		groups[key] = append(groups[key], i)
	}

	for _, key := range order {
		idx := groups[key]
		main := idx[0]
		if strings.HasPrefix(key, userPrefix) {
			for _, i := range idx {
				if sorted[i].IsMain {
					main = i
					break
				}
			}
		}

		mainID := sorted[main].CharacterID
		for _, i := range idx {
			label := labels[key]
			out[i].GroupKey = &label
			if i == main {
				continue
			}
			id := mainID
			out[i].Classification = Alt
			out[i].MainCharacterID = &id
		}
	}

	return out
}

// Counts returns how many Mains and Alts a classification holds.
func Counts(results []Classified) (mains, alts int) {
	for _, r := range results {
		if r.Classification == Main {
			mains++
		} else {
			alts++
		}
	}
	return mains, alts
}

// Grouping keys are prefixed so a user id never collides with a fingerprint.
const (
	userPrefix = "user:"
	toyPrefix  = "toy:"
)

// groupKey returns the internal grouping key and the reported group label.
func groupKey(m models.MemberView) (string, string, bool) {
	if m.UserID != nil {
		id := strconv.FormatUint(uint64(*m.UserID), 10)
		return userPrefix + id, id, true
	}
	if m.ToyHash != nil && *m.ToyHash != "" {
		return toyPrefix + *m.ToyHash, *m.ToyHash, true
	}
	return "", "", false
}

func less(a, b models.MemberView) bool {
	if a.Rank != b.Rank {
		return a.Rank < b.Rank
	}
	an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
	if an != bn {
		return an < bn
	}
	return a.CharacterID < b.CharacterID
}
