package models

import "strings"

// CharacterKey is the case-insensitive identity of a character within a region.
type CharacterKey struct {
	Name  string
	Realm string
}

// NewCharacterKey normalises name and realm into a key.
func NewCharacterKey(name, realm string) CharacterKey {
	return CharacterKey{
		Name:  strings.ToLower(strings.TrimSpace(name)),
		Realm: strings.ToLower(strings.TrimSpace(realm)),
	}
}

func (k CharacterKey) String() string {
	return k.Name + "@" + k.Realm
}

// Slug converts a display name into the form used in upstream URLs.
func Slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "'", "")
	return strings.Join(strings.Fields(s), "-")
}
