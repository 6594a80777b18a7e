package http

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warbler/domain"
)

func TestEditMessageScenario(t *testing.T) {
	app := newApp(t)
	user := app.mustSignup("testuser", "testpassword")
	msg := app.mustPost(user.ID, "Test message")
	editPath := fmt.Sprintf("/messages/%d/edit", msg.ID)

	t.Run("anonymous", func(t *testing.T) {
		resp, _ := app.client().post(editPath, messageRequest{Text: "Edited message"})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "Test message", app.messageText(msg.ID))
	})

	t.Run("owner", func(t *testing.T) {
		c := app.client()
		c.login("testuser", "testpassword")
		resp, body := c.post(editPath, messageRequest{Text: "Edited message"})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		var got domain.Message
		decode(t, body, &got)
		assert.Equal(t, "Edited message", got.Text)
		assert.Equal(t, "Edited message", app.messageText(msg.ID))
	})
}

func TestMessageNonOwner(t *testing.T) {
	app := newApp(t)
	owner := app.mustSignup("owner", "password1")
	app.mustSignup("intruder", "password2")
	msg := app.mustPost(owner.ID, "Test message")

	c := app.client()
	c.login("intruder", "password2")

	resp, _ := c.post(fmt.Sprintf("/messages/%d/edit", msg.ID), messageRequest{Text: "Hacked"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = c.post(fmt.Sprintf("/messages/%d/delete", msg.ID), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	assert.Equal(t, "Test message", app.messageText(msg.ID))
}

func TestDeleteMessage(t *testing.T) {
	app := newApp(t)
	user := app.mustSignup("testuser", "testpassword")
	msg := app.mustPost(user.ID, "Test message")
	path := fmt.Sprintf("/messages/%d/delete", msg.ID)

	resp, _ := app.client().post(path, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	c := app.client()
	c.login("testuser", "testpassword")
	resp, _ = c.post(path, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = c.get(fmt.Sprintf("/messages/%d", msg.ID))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = c.post(path, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMissingMessageIsNotFoundForAnyone(t *testing.T) {
	app := newApp(t)
	resp, _ := app.client().post("/messages/999/edit", messageRequest{Text: "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateMessage(t *testing.T) {
	app := newApp(t)
	alice := app.mustSignup("alice", "password1")
	bob := app.mustSignup("bob", "password2")

	resp, _ := app.client().post("/messages/new", messageRequest{Text: "Hello"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	c := app.client()
	c.login("alice", "password1")

	resp, body := c.post("/messages/new", messageRequest{Text: "Hello"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var msg domain.Message
	decode(t, body, &msg)
	assert.Equal(t, alice.ID, msg.UserID)

	resp, _ = c.post(fmt.Sprintf("/users/%d/messages/new", alice.ID), messageRequest{Text: "Again"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = c.post(fmt.Sprintf("/users/%d/messages/new", bob.ID), messageRequest{Text: "As bob"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = c.post("/messages/new", messageRequest{Text: ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetMessage(t *testing.T) {
	app := newApp(t)
	user := app.mustSignup("testuser", "testpassword")
	msg := app.mustPost(user.ID, "Test message")

	resp, body := app.client().get(fmt.Sprintf("/messages/%d", msg.ID))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got domain.Message
	decode(t, body, &got)
	assert.Equal(t, "Test message", got.Text)
	require.NotNil(t, got.User)
	assert.Equal(t, "testuser", got.User.Username)
}
