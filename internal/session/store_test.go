package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"briochat/internal/model"
)

func TestStoreResetReplacesWholesale(t *testing.T) {
	s := NewStore()
	s.Reset("c1", []model.Message{model.NewMessage(model.AuthorBot, "a")})
	s.Append(model.NewMessage(model.AuthorUser, "b"))
	require.Len(t, s.Messages(), 2)

	s.Reset("c2", nil)
	assert.Equal(t, "c2", s.ActiveID())
	assert.Empty(t, s.Messages())
}

func TestStoreMessageIDsUnique(t *testing.T) {
	s := NewStore()
	s.Reset("c1", nil)
	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		msg := model.NewMessage(model.AuthorUser, "x")
		s.Append(msg)
		assert.False(t, seen[msg.ID])
		seen[msg.ID] = true
	}
}

func TestSetConversationsDedupesLastWriteWins(t *testing.T) {
	s := NewStore()
	s.SetConversations([]model.Conversation{
		{ID: "c1", Title: "old"},
		{ID: "c2", Title: "other"},
		{ID: "c1", Title: "new"},
	})
	convs := s.Conversations()
	require.Len(t, convs, 2)
	assert.Equal(t, "new", convs[0].Title)
	assert.Equal(t, "c2", convs[1].ID)
}
