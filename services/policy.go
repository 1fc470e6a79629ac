package services

// Owned is implemented by every resource that has a single owning user.
type Owned interface {
	OwnerID() uint
}

// CanRead reports whether the actor may read the resource. Posts and
// comments are public.
func CanRead(a Actor, r Owned) bool { return true }

// CanWrite reports whether the actor may update or delete the resource:
// its owner or a superuser.
func CanWrite(a Actor, r Owned) bool {
	if a.IsAnonymous() {
		return false
	}
	return a.IsSuperuser || a.UserID == r.OwnerID()
}

// CanPublish reports whether the actor may use the publish action. It is
// independent of ownership: owners who are not staff may not publish.
func CanPublish(a Actor) bool {
	return !a.IsAnonymous() && (a.IsStaff || a.IsSuperuser)
}

// RequireIdentity fails for anonymous actors.
func RequireIdentity(a Actor) error {
	if a.IsAnonymous() {
		return ErrUnauthenticated
	}
	return nil
}

// AuthorizeWrite is the single ownership check used by every mutation entry
// point (REST, GraphQL, admin, CLI).
func AuthorizeWrite(a Actor, r Owned) error {
	if err := RequireIdentity(a); err != nil {
		return err
	}
	if !CanWrite(a, r) {
		return ErrForbidden
	}
	return nil
}

// AuthorizeStaff guards publish and the admin bulk actions.
func AuthorizeStaff(a Actor) error {
	if err := RequireIdentity(a); err != nil {
		return err
	}
	if !CanPublish(a) {
		return ErrForbidden
	}
	return nil
}
