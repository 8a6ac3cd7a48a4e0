package auth

// RequireOwner enforces the single authorization rule of the API: a
// mutating operation on an owned resource is permitted only for the
// resource's owner. Returns ErrForbidden otherwise.
//
// Read endpoints carry no ownership restriction; callers apply this only
// to update and delete paths.
func RequireOwner(id *Identity, ownerID int64) error {
	if id == nil || id.UserID != ownerID {
		return ErrForbidden
	}
	return nil
}
