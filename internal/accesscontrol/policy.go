package accesscontrol

// Write policy for the API, expressed as small predicates composed
// per-endpoint. Reads are open to everyone, including anonymous callers,
// so there is no read predicate.

// CanManageCatalog reports whether the caller may create, update or delete
// categories, genres and titles.
func CanManageCatalog(caller Identity) bool {
	return IsAdmin(caller)
}

// CanManageUsers reports whether the caller may list other accounts or
// mutate an account other than their own.
func CanManageUsers(caller Identity) bool {
	return IsAdmin(caller)
}

// CanModifyContent reports whether the caller may update or delete a review
// or comment authored by authorID. The author may, and so may moderators
// and admins regardless of authorship.
func CanModifyContent(caller Identity, callerID, authorID int64) bool {
	return callerID == authorID || IsModerator(caller)
}

// CanChangeRole reports whether a profile patch from the caller may carry a
// role change. Used by the self-service endpoint to decide whether to drop
// the role field from the patch; the rest of the patch still applies.
func CanChangeRole(caller Identity) bool {
	return IsAdmin(caller)
}
