package auth

import "net/http"

// Identity is the state of a session: either anonymous or authenticated as one user.
type Identity struct {
	userID        int
	authenticated bool
}

// Anonymous returns the identity of a caller that is not logged in.
func Anonymous() Identity {
	return Identity{}
}

// Authenticated returns the identity of a caller logged in as userID.
func Authenticated(userID int) Identity {
	return Identity{userID: userID, authenticated: true}
}

// UserID returns the logged in user's ID and whether there is one.
func (i Identity) UserID() (int, bool) {
	return i.userID, i.authenticated
}

// Action is the kind of request being authorized.
type Action int

const (
	CreateMessage Action = iota + 1
	EditMessage
	DeleteMessage
	ViewFollowers
	ViewFollowing
	Follow
	Unfollow
	LikeMessage
	UpdateProfile
)

var actionNames = map[Action]string{
	CreateMessage: "create_message",
	EditMessage:   "edit_message",
	DeleteMessage: "delete_message",
	ViewFollowers: "view_followers",
	ViewFollowing: "view_following",
	Follow:        "follow",
	Unfollow:      "unfollow",
	LikeMessage:   "like_message",
	UpdateProfile: "update_profile",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// Decision is the outcome of Decide.
type Decision int

const (
	Forbidden Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "forbidden"
}

// Status returns the http status code that goes with the decision.
func (d Decision) Status() int {
	if d == Allow {
		return http.StatusOK
	}
	return http.StatusForbidden
}

// Decide tells whether identity may perform action on a resource owned by ownerID.
// What ownerID means depends on the action: the author for messages, the follower for
// follow edges, the profile owner for profile updates and for follower lists.
// Anonymous callers are never allowed anything, and neither are unknown actions.
func Decide(identity Identity, action Action, ownerID int) Decision {
	userID, ok := identity.UserID()
	if !ok {
		return Forbidden
	}
	switch action {
	case CreateMessage, EditMessage, DeleteMessage, Follow, Unfollow, UpdateProfile:
		if ownerID == userID {
			return Allow
		}
	case ViewFollowers, ViewFollowing:
		return Allow
	case LikeMessage:
		// Liking your own message makes no sense.
		if ownerID != userID {
			return Allow
		}
	}
	return Forbidden
}
