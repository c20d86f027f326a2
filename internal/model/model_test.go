package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthorForRole(t *testing.T) {
	assert.Equal(t, AuthorUser, AuthorForRole("user"))
	assert.Equal(t, AuthorBot, AuthorForRole("assistant"))
	assert.Equal(t, AuthorBot, AuthorForRole("system"))
	assert.Equal(t, AuthorBot, AuthorForRole(""))
}

func TestNewMessageIDsUnique(t *testing.T) {
	a := NewMessage(AuthorUser, "x")
	b := NewMessage(AuthorUser, "x")
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEmpty(t, a.At)
}

func TestDisplayTitle(t *testing.T) {
	assert.Equal(t, "Billing", Conversation{Title: "Billing"}.DisplayTitle())
	assert.Equal(t, "New Conversation", Conversation{}.DisplayTitle())
}
