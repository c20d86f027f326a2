package session

import "briochat/internal/model"

// Store holds the active conversation's rendered messages and the sidebar
// set. It performs no I/O and is mutated only by the Controller; all access
// is serialized through the UI event loop.
type Store struct {
	activeID      string
	messages      []model.Message
	conversations []model.Conversation
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) ActiveID() string {
	return s.activeID
}

func (s *Store) Messages() []model.Message {
	return s.messages
}

func (s *Store) Conversations() []model.Conversation {
	return s.conversations
}

// Reset makes conversationID active and replaces the message sequence
// wholesale. The sequence is never a mix of old and new content.
func (s *Store) Reset(conversationID string, messages []model.Message) {
	s.activeID = conversationID
	s.messages = messages
}

func (s *Store) Append(msg model.Message) {
	s.messages = append(s.messages, msg)
}

// SetConversations replaces the sidebar set, keeping at most one entry per
// conversation id. Last write wins on duplicates.
func (s *Store) SetConversations(conversations []model.Conversation) {
	seen := make(map[string]int, len(conversations))
	out := make([]model.Conversation, 0, len(conversations))
	for _, conv := range conversations {
		if i, ok := seen[conv.ID]; ok {
			out[i] = conv
			continue
		}
		seen[conv.ID] = len(out)
		out = append(out, conv)
	}
	s.conversations = out
}
