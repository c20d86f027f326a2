// Package session implements the conversation session controller: the state
// machine over the active conversation, its optimistic message rendering,
// sidebar bookkeeping and send failure classification.
package session

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"briochat/internal/api"
	"briochat/internal/identity"
	"briochat/internal/model"
)

// Greeting seeds every brand-new conversation.
const Greeting = "Hello! I am your AI assistant. How can I help you today?"

// Banner texts shown on send failures. Rate limiting gets its own wording;
// everything else collapses into the generic retry message.
const (
	BannerRateLimited = "Whoa! You're sending messages too fast. Please wait a minute."
	BannerSendFailed  = "Something went wrong. Please try again later."
)

// State is the controller's position in the session lifecycle.
type State int

const (
	// StateIdle means no identity has been established yet.
	StateIdle State = iota
	// StateReady means a conversation is active and accepting sends.
	StateReady
	// StateSending means a message round trip is in flight.
	StateSending
)

// SendAttempt describes one in-flight round trip. ConversationID pins the
// conversation that was active when the send started, so a late completion
// is never applied to a different one.
type SendAttempt struct {
	Seq            uint64
	ConversationID string
	Email          string
	Text           string
}

// Controller drives the active chat session. It owns the Store exclusively
// and performs no network I/O itself: callers run the request described by
// each Begin* return value and feed the outcome back through the matching
// Apply*/Complete* method. All methods must be called from a single
// goroutine.
type Controller struct {
	logger   *zap.Logger
	identity identity.Provider
	store    *Store

	email  string
	state  State
	banner string

	// sidebarSeq is a monotonic token; only the response to the newest
	// sidebar request issued is ever applied.
	sidebarSeq uint64
	sendSeq    uint64
}

func NewController(provider identity.Provider, logger *zap.Logger) *Controller {
	return &Controller{
		logger:   logger,
		identity: provider,
		store:    NewStore(),
	}
}

// Initialize resolves the persisted identity and seeds a fresh conversation.
// It returns identity.ErrNoIdentity when no email is stored; the caller must
// fall back to the login view. Call it exactly once per mount.
func (c *Controller) Initialize() (string, error) {
	email, err := c.identity.Email()
	if err != nil {
		return "", err
	}
	c.email = email
	c.StartNewConversation()
	return email, nil
}

// Login persists the email and seeds a fresh conversation.
func (c *Controller) Login(email string) error {
	if err := c.identity.SetEmail(email); err != nil {
		return err
	}
	c.email = email
	c.StartNewConversation()
	return nil
}

// Logout clears the persisted identity and drops all session state.
func (c *Controller) Logout() {
	if err := c.identity.Clear(); err != nil {
		c.logger.Warn("failed to clear identity", zap.Error(err))
	}
	c.email = ""
	c.state = StateIdle
	c.banner = ""
	c.store = NewStore()
}

// StartNewConversation resets the session to a fresh local conversation
// seeded with the assistant greeting. The backend learns about the
// conversation only once a message is actually sent.
func (c *Controller) StartNewConversation() {
	c.store.Reset(uuid.NewString(), []model.Message{model.NewMessage(model.AuthorBot, Greeting)})
	c.banner = ""
	c.state = StateReady
}

// BeginSelect makes the conversation active and returns its id for the
// history fetch the caller must issue.
func (c *Controller) BeginSelect(conv model.Conversation) string {
	c.store.Reset(conv.ID, nil)
	c.banner = ""
	c.state = StateReady
	return conv.ID
}

// ApplyHistory installs a fetched history, mapping backend roles to display
// authors. A failed fetch clears the sequence; the conversation stays active
// so reselecting retries. A response for a conversation that is no longer
// active is discarded.
func (c *Controller) ApplyHistory(conversationID string, history []model.HistoryMessage, err error) {
	if conversationID != c.store.ActiveID() {
		c.logger.Debug("discarding history for inactive conversation",
			zap.String("conversationId", conversationID))
		return
	}
	if err != nil {
		c.logger.Error("failed to load conversation history",
			zap.String("conversationId", conversationID), zap.Error(err))
		c.store.Reset(conversationID, nil)
		return
	}
	messages := make([]model.Message, 0, len(history))
	for _, h := range history {
		msg := model.NewMessage(model.AuthorForRole(h.Role), h.Content)
		msg.At = "Previous"
		messages = append(messages, msg)
	}
	c.store.Reset(conversationID, messages)
}

// BeginSend applies the optimistic user append and flips into Sending. It
// reports false when the trimmed text is empty or a send is already in
// flight; in that case nothing changed and no request must be issued.
func (c *Controller) BeginSend(text string) (SendAttempt, bool) {
	text = strings.TrimSpace(text)
	if text == "" || c.state == StateSending {
		return SendAttempt{}, false
	}
	c.banner = ""
	c.store.Append(model.NewMessage(model.AuthorUser, text))
	c.state = StateSending
	c.sendSeq++
	return SendAttempt{
		Seq:            c.sendSeq,
		ConversationID: c.store.ActiveID(),
		Email:          c.email,
		Text:           text,
	}, true
}

// CompleteSend finishes a round trip. On success the assistant reply is
// appended and the caller should kick off a sidebar refresh: the exchange
// may have created a title or re-homed the conversation id server-side. On
// failure the optimistic user message stays put and only a banner is raised.
// A completion whose conversation is no longer active is discarded. Returns
// true when a sidebar refresh should follow.
func (c *Controller) CompleteSend(attempt SendAttempt, reply string, err error) bool {
	if attempt.ConversationID != c.store.ActiveID() {
		c.logger.Warn("discarding send result for inactive conversation",
			zap.String("conversationId", attempt.ConversationID))
		return false
	}
	c.state = StateReady
	if err != nil {
		if errors.Is(err, api.ErrRateLimited) {
			c.banner = BannerRateLimited
		} else {
			c.banner = BannerSendFailed
		}
		c.logger.Error("send failed",
			zap.String("conversationId", attempt.ConversationID), zap.Error(err))
		return false
	}
	c.store.Append(model.NewMessage(model.AuthorBot, reply))
	return true
}

// BeginSidebarRefresh issues a new request token. The matching ApplySidebar
// call only lands if no newer token has been issued in the meantime.
func (c *Controller) BeginSidebarRefresh() (seq uint64, email string) {
	c.sidebarSeq++
	return c.sidebarSeq, c.email
}

// ApplySidebar installs a sidebar response wholesale. Stale responses are
// dropped. A failed refresh keeps the previous set untouched: the sidebar is
// best effort and never blocks the user.
func (c *Controller) ApplySidebar(seq uint64, conversations []model.Conversation, err error) bool {
	if seq != c.sidebarSeq {
		c.logger.Debug("discarding stale sidebar response", zap.Uint64("seq", seq))
		return false
	}
	if err != nil {
		c.logger.Warn("sidebar refresh failed", zap.Error(err))
		return false
	}
	c.store.SetConversations(conversations)
	return true
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Sending() bool {
	return c.state == StateSending
}

// Banner returns the current user-facing error, or "" when there is none.
func (c *Controller) Banner() string {
	return c.banner
}

func (c *Controller) Email() string {
	return c.email
}

func (c *Controller) ActiveConversationID() string {
	return c.store.ActiveID()
}

func (c *Controller) Messages() []model.Message {
	return c.store.Messages()
}

func (c *Controller) Conversations() []model.Conversation {
	return c.store.Conversations()
}
