package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/fanstore-backend/internal/models"
)

func TestIdentityOwner(t *testing.T) {
	userID := uint(9)

	owner, err := Identity{UserID: &userID, GuestID: "g-1"}.Owner()
	require.NoError(t, err)
	assert.Equal(t, models.UserOwner(9), owner)

	owner, err = GuestIdentity("g-1").Owner()
	require.NoError(t, err)
	assert.Equal(t, models.GuestOwner("g-1"), owner)

	_, err = Identity{}.Owner()
	assert.ErrorIs(t, err, ErrMissingIdentity)
}

func TestIdentityOwns(t *testing.T) {
	userID, otherID := uint(1), uint(2)

	tests := []struct {
		name  string
		id    Identity
		owner models.Owner
		want  bool
	}{
		{"same user", UserIdentity(userID), models.UserOwner(userID), true},
		{"other user", UserIdentity(otherID), models.UserOwner(userID), false},
		{"guest on user row", GuestIdentity("g-1"), models.UserOwner(userID), false},
		{"same guest", GuestIdentity("g-1"), models.GuestOwner("g-1"), true},
		{"same guest with a user id", Identity{UserID: &userID, GuestID: "g-1"}, models.GuestOwner("g-1"), true},
		{"other guest", GuestIdentity("g-2"), models.GuestOwner("g-1"), false},
		{"user on guest row", UserIdentity(userID), models.GuestOwner("g-1"), false},
		{"empty identity", Identity{}, models.GuestOwner("g-1"), false},
		{"no owner", UserIdentity(userID), models.Owner{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.id.Owns(tt.owner))
		})
	}
}

func TestResolveForWrite(t *testing.T) {
	r := &IdentityResolver{newID: func() string { return "minted" }}

	owner, minted := r.ResolveForWrite(Identity{})
	assert.True(t, minted)
	assert.Equal(t, models.GuestOwner("minted"), owner)

	owner, minted = r.ResolveForWrite(GuestIdentity("kept"))
	assert.False(t, minted)
	assert.Equal(t, models.GuestOwner("kept"), owner)

	_, err := r.ResolveForRead(Identity{})
	assert.ErrorIs(t, err, ErrMissingIdentity)
}

func TestNewIdentityResolverMintsDistinctIDs(t *testing.T) {
	r := NewIdentityResolver()
	a, _ := r.ResolveForWrite(Identity{})
	b, _ := r.ResolveForWrite(Identity{})

	ga, _ := a.GuestID()
	gb, _ := b.GuestID()
	assert.Len(t, ga, 36)
	assert.NotEqual(t, ga, gb)
}
