package roster_test

import (
	"fmt"
	"testing"

	"guild-sync/feature/guild/models"
	"guild-sync/feature/roster"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func uintPtr(v uint) *uint { return &v }
func strPtr(v string) *string { return &v }

func byName(results []roster.Classified) map[string]roster.Classified {
	out := make(map[string]roster.Classified, len(results))
	for _, r := range results {
		out[r.Member.Name] = r
	}
	return out
}

func TestClassify(t *testing.T) {
	t.Run("ExplicitMainWins", func(t *testing.T) {
		members := []models.MemberView{
			{CharacterID: 1, Name: "Aaa", Rank: 0, UserID: uintPtr(5)},
			{CharacterID: 2, Name: "Bbb", Rank: 1, UserID: uintPtr(5)},
			{CharacterID: 3, Name: "Zzz", Rank: 9, UserID: uintPtr(5), IsMain: true},
		}
		res := byName(roster.Classify(members))

		assert.Equal(t, roster.Main, res["Zzz"].Classification)
		assert.Nil(t, res["Zzz"].MainCharacterID)
		for _, name := range []string{"Aaa", "Bbb"} {
			assert.Equal(t, roster.Alt, res[name].Classification)
			require.NotNil(t, res[name].MainCharacterID)
			assert.Equal(t, uint(3), *res[name].MainCharacterID)
			assert.Equal(t, "5", *res[name].GroupKey)
		}
	})

	t.Run("OwnerWithoutMainUsesRankThenName", func(t *testing.T) {
		members := []models.MemberView{
			{CharacterID: 1, Name: "Zed", Rank: 2, UserID: uintPtr(5)},
			{CharacterID: 2, Name: "Amy", Rank: 2, UserID: uintPtr(5)},
			{CharacterID: 3, Name: "Bob", Rank: 4, UserID: uintPtr(5)},
		}
		res := byName(roster.Classify(members))

		assert.Equal(t, roster.Main, res["Amy"].Classification)
		assert.Equal(t, uint(2), *res["Zed"].MainCharacterID)
		assert.Equal(t, uint(2), *res["Bob"].MainCharacterID)
	})

	t.Run("FingerprintIgnoresExplicitMain", func(t *testing.T) {
		members := []models.MemberView{
			{CharacterID: 1, Name: "Low", Rank: 1, ToyHash: strPtr("abc"), IsMain: true},
			{CharacterID: 2, Name: "High", Rank: 0, ToyHash: strPtr("abc")},
		}
		res := byName(roster.Classify(members))

		assert.Equal(t, roster.Main, res["High"].Classification)
		assert.Equal(t, roster.Alt, res["Low"].Classification)
		assert.Equal(t, "abc", *res["Low"].GroupKey)
	})

	t.Run("GroupKeyIsRawOwnerOrFingerprint", func(t *testing.T) {
		members := []models.MemberView{
			{CharacterID: 1, Name: "Owned", Rank: 0, UserID: uintPtr(7)},
			{CharacterID: 2, Name: "Hashed", Rank: 1, ToyHash: strPtr("7")},
		}
		res := byName(roster.Classify(members))

		// same label, separate groups
		assert.Equal(t, "7", *res["Owned"].GroupKey)
		assert.Equal(t, "7", *res["Hashed"].GroupKey)
		assert.Equal(t, roster.Main, res["Owned"].Classification)
		assert.Equal(t, roster.Main, res["Hashed"].Classification)
	})

	t.Run("LoneMemberIsMain", func(t *testing.T) {
		res := roster.Classify([]models.MemberView{{CharacterID: 1, Name: "Solo", Rank: 5}})
		require.Len(t, res, 1)
		assert.Equal(t, roster.Main, res[0].Classification)
		assert.Nil(t, res[0].GroupKey)
		assert.Nil(t, res[0].MainCharacterID)
	})

	t.Run("OwnerTakesPrecedenceOverFingerprint", func(t *testing.T) {
		members := []models.MemberView{
			{CharacterID: 1, Name: "A", Rank: 0, UserID: uintPtr(1), ToyHash: strPtr("h")},
			{CharacterID: 2, Name: "B", Rank: 1, ToyHash: strPtr("h")},
		}
		res := byName(roster.Classify(members))
		assert.Equal(t, roster.Main, res["A"].Classification)
		assert.Equal(t, roster.Main, res["B"].Classification)

		mains, alts := roster.Counts(roster.Classify(members))
		assert.Equal(t, 2, mains)
		assert.Equal(t, 0, alts)
	})
}

func TestProperty_ClassifyOrderIndependent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 30).Draw(rt, "n")
		members := make([]models.MemberView, n)
		for i := range members {
			m := models.MemberView{
				CharacterID: uint(i + 1),
				Name:        fmt.Sprintf("c%d", rapid.IntRange(0, 9).Draw(rt, fmt.Sprintf("name_%d", i))),
				Rank:        rapid.IntRange(0, 5).Draw(rt, fmt.Sprintf("rank_%d", i)),
				IsMain:      rapid.Bool().Draw(rt, fmt.Sprintf("main_%d", i)),
			}
			switch rapid.IntRange(0, 2).Draw(rt, fmt.Sprintf("kind_%d", i)) {
			case 0:
				m.UserID = uintPtr(uint(rapid.IntRange(1, 3).Draw(rt, fmt.Sprintf("user_%d", i))))
			case 1:
				m.ToyHash = strPtr(fmt.Sprintf("h%d", rapid.IntRange(1, 3).Draw(rt, fmt.Sprintf("toy_%d", i))))
			}
			members[i] = m
		}

		perm := rapid.Permutation(members).Draw(rt, "perm")
		a := roster.Classify(members)
		b := roster.Classify(perm)

		if len(a) != len(b) {
			rt.Fatalf("length mismatch %d != %d", len(a), len(b))
		}
		groupMains := map[string]int{}
		for i := range a {
			if a[i].Member.CharacterID != b[i].Member.CharacterID || a[i].Classification != b[i].Classification {
				rt.Fatalf("order dependent result at %d", i)
			}
			if (a[i].MainCharacterID == nil) != (b[i].MainCharacterID == nil) {
				rt.Fatalf("main link differs at %d", i)
			}
			if a[i].GroupKey != nil && a[i].Classification == roster.Main {
				groupMains[*a[i].GroupKey]++
			}
		}
		for key, count := range groupMains {
			if count != 1 {
				rt.Fatalf("group %s has %d mains", key, count)
			}
		}
	})
}
