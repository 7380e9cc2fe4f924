// internal/models/owner.go
package models

import "strconv"

// OwnerKind tells which identity scopes a cart item or an order.
type OwnerKind int

const (
	OwnerNone OwnerKind = iota
	OwnerUser
	OwnerGuest
)

// Owner is either a registered user or a guest, never both.
// The zero value is no owner.
type Owner struct {
	kind    OwnerKind
	userID  uint
	guestID string
}

func UserOwner(id uint) Owner {
	return Owner{kind: OwnerUser, userID: id}
}

func GuestOwner(id string) Owner {
	return Owner{kind: OwnerGuest, guestID: id}
}

func (o Owner) Kind() OwnerKind { return o.kind }
func (o Owner) IsZero() bool    { return o.kind == OwnerNone }
func (o Owner) IsUser() bool    { return o.kind == OwnerUser }
func (o Owner) IsGuest() bool   { return o.kind == OwnerGuest }

// UserID returns the user id and whether the owner is a user.
func (o Owner) UserID() (uint, bool) {
	return o.userID, o.kind == OwnerUser
}

// GuestID returns the guest id and whether the owner is a guest.
func (o Owner) GuestID() (string, bool) {
	return o.guestID, o.kind == OwnerGuest
}

func (o Owner) String() string {
	switch o.kind {
	case OwnerUser:
		return "user:" + strconv.FormatUint(uint64(o.userID), 10)
	case OwnerGuest:
		return "guest:" + o.guestID
	default:
		return "none"
	}
}

// columns maps the owner onto the two nullable ownership columns.
func (o Owner) columns() (*uint, *string) {
	switch o.kind {
	case OwnerUser:
		id := o.userID
		return &id, nil
	case OwnerGuest:
		id := o.guestID
		return nil, &id
	default:
		return nil, nil
	}
}

func ownerFromColumns(userID *uint, guestID *string) Owner {
	switch {
	case userID != nil:
		return UserOwner(*userID)
	case guestID != nil && *guestID != "":
		return GuestOwner(*guestID)
	default:
		return Owner{}
	}
}

// OwnerCondition returns the WHERE fragment and argument selecting rows
// owned by o.
func OwnerCondition(o Owner) (string, interface{}) {
	if id, ok := o.UserID(); ok {
		return "user_id = ?", id
	}
	return "guest_id = ?", o.guestID
}
