// internal/services/identity.go
package services

import (
	"github.com/google/uuid"

	"github.com/javajoker/fanstore-backend/internal/models"
)

// Identity is what a caller presented: an optional user id and an optional
// guest id. A registered user wins over a guest id when both are given.
type Identity struct {
	UserID  *uint
	GuestID string
}

func UserIdentity(id uint) Identity { return Identity{UserID: &id} }

func GuestIdentity(id string) Identity { return Identity{GuestID: id} }

func (i Identity) IsEmpty() bool {
	return i.UserID == nil && i.GuestID == ""
}

// Owner resolves the identity to the key scoping cart and order rows.
func (i Identity) Owner() (models.Owner, error) {
	switch {
	case i.UserID != nil:
		return models.UserOwner(*i.UserID), nil
	case i.GuestID != "":
		return models.GuestOwner(i.GuestID), nil
	default:
		return models.Owner{}, ErrMissingIdentity
	}
}

// Owns reports whether the identity may mutate a row owned by owner.
// A user-owned row only accepts the exact user id and a guest-owned row only
// accepts the exact guest id; the other credential is ignored.
func (i Identity) Owns(owner models.Owner) bool {
	if id, ok := owner.UserID(); ok {
		return i.UserID != nil && *i.UserID == id
	}
	if id, ok := owner.GuestID(); ok {
		return i.GuestID != "" && i.GuestID == id
	}
	return false
}

// IdentityResolver mints guest ids for first-time shoppers.
type IdentityResolver struct {
	newID func() string
}

func NewIdentityResolver() *IdentityResolver {
	return &IdentityResolver{newID: func() string { return uuid.NewString() }}
}

// ResolveForWrite returns the owner for a cart-mutating call, minting a
// guest id when the caller has none. minted is true when a new id was issued.
func (r *IdentityResolver) ResolveForWrite(id Identity) (owner models.Owner, minted bool) {
	if owner, err := id.Owner(); err == nil {
		return owner, false
	}
	return models.GuestOwner(r.newID()), true
}

// ResolveForRead never mints; a caller with no identity gets ErrMissingIdentity.
func (r *IdentityResolver) ResolveForRead(id Identity) (models.Owner, error) {
	return id.Owner()
}
