package models

// RoleAdmin grants elevated privilege: survey flag updates, deletion approval
// and document deletion.
const RoleAdmin = "admin"

// Actor is the capability token passed through every guarded call.
type Actor struct {
	ID    string
	Email string
	Roles []string
}

// Authenticated reports whether the actor carries an identity.
func (a Actor) Authenticated() bool {
	return a.ID != ""
}

// HasRole reports whether the actor holds role.
func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasElevatedPrivilege reports whether the actor may mutate dossiers and
// approve deletions.
func (a Actor) HasElevatedPrivilege() bool {
	return a.Authenticated() && a.HasRole(RoleAdmin)
}
