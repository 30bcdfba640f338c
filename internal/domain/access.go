package domain

// CanManage is the capability check for owned resources: admins may act on
// anything, everyone else only on resources listing them as an owner.
func CanManage(actor Actor, ownerIDs ...string) bool {
	if actor.Role == RoleAdmin {
		return true
	}
	if actor.ID == "" {
		return false
	}
	return contains(ownerIDs, actor.ID)
}

// CanAuthor reports whether the actor's role may create classes and quizzes.
func CanAuthor(actor Actor) bool {
	return actor.Role == RoleAdmin || actor.Role == RoleMentor
}
