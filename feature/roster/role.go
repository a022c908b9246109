package roster

// Roles assigned to newly discovered characters.
const (
	RoleTank   = "Tank"
	RoleHealer = "Healer"
	RoleDPS    = "DPS"
)

// defaultRoles is a best guess per class; hybrids default to damage until a
// player sets their role.
var defaultRoles = map[string]string{
	"Warrior": RoleTank,
	"Priest":  RoleHealer,
}

// GuessRole returns the starting role for a class.
func GuessRole(class string) string {
	if role, ok := defaultRoles[class]; ok {
		return role
	}
	return RoleDPS
}
