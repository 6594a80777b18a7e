package auth

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var allActions = []Action{
	CreateMessage, EditMessage, DeleteMessage,
	ViewFollowers, ViewFollowing,
	Follow, Unfollow, LikeMessage, UpdateProfile,
}

func TestDecideAnonymousIsAlwaysForbidden(t *testing.T) {
	for _, action := range allActions {
		for _, owner := range []int{0, 1, 2} {
			d := Decide(Anonymous(), action, owner)
			assert.Equal(t, Forbidden, d, "%s on owner %d", action, owner)
			assert.Equal(t, http.StatusForbidden, d.Status())
		}
	}
}

func TestDecideAuthenticated(t *testing.T) {
	const me, other = 1, 2
	tests := []struct {
		action  Action
		owner   int
		allowed bool
	}{
		{CreateMessage, me, true},
		{CreateMessage, other, false},
		{EditMessage, me, true},
		{EditMessage, other, false},
		{DeleteMessage, me, true},
		{DeleteMessage, other, false},
		{ViewFollowers, me, true},
		{ViewFollowers, other, true},
		{ViewFollowing, me, true},
		{ViewFollowing, other, true},
		{Follow, me, true},
		{Follow, other, false},
		{Unfollow, me, true},
		{Unfollow, other, false},
		{LikeMessage, me, false},
		{LikeMessage, other, true},
		{UpdateProfile, me, true},
		{UpdateProfile, other, false},
		{Action(0), me, false},
		{Action(99), me, false},
	}
	for _, tt := range tests {
		t.Run(tt.action.String(), func(t *testing.T) {
			want := Forbidden
			if tt.allowed {
				want = Allow
			}
			assert.Equal(t, want, Decide(Authenticated(me), tt.action, tt.owner), "owner %d", tt.owner)
		})
	}
}

func TestDecideIsTotal(t *testing.T) {
	identities := []Identity{Anonymous(), Authenticated(1), Authenticated(2)}
	for _, id := range identities {
		for _, action := range append(allActions, Action(0)) {
			for owner := 0; owner <= 3; owner++ {
				d := Decide(id, action, owner)
				assert.Contains(t, []Decision{Allow, Forbidden}, d)
			}
		}
	}
}

func TestDecisionStatus(t *testing.T) {
	assert.Equal(t, http.StatusOK, Allow.Status())
	assert.Equal(t, http.StatusForbidden, Forbidden.Status())
	assert.Equal(t, "allow", Allow.String())
	assert.Equal(t, "forbidden", Forbidden.String())
}

func TestIdentity(t *testing.T) {
	_, ok := Anonymous().UserID()
	assert.False(t, ok)

	id, ok := Authenticated(7).UserID()
	assert.True(t, ok)
	assert.Equal(t, 7, id)
}
