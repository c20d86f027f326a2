// Package stub is a self-contained stand-in for the help-desk backend, good
// enough to exercise the client end to end: conversation listing, history,
// plain text chat with title assignment on the first exchange, a per-email
// rate limit window and canned transcription.
package stub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"briochat/internal/model"
)

const (
	defaultLimit  = 6
	defaultWindow = time.Minute
)

type conversation struct {
	id        string
	email     string
	title     string
	updatedAt time.Time
	messages  []model.HistoryMessage
}

// Server holds all state in memory; restarting it wipes every conversation.
type Server struct {
	logger *zap.Logger
	http   *http.Server

	mu            sync.Mutex
	conversations map[string]*conversation // keyed by conversation id
	sends         map[string][]time.Time   // send timestamps per email
	limit         int
	window        time.Duration
}

func NewServer(logger *zap.Logger) *Server {
	return &Server{
		logger:        logger,
		conversations: make(map[string]*conversation),
		sends:         make(map[string][]time.Time),
		limit:         defaultLimit,
		window:        defaultWindow,
	}
}

// Router mounts the four backend contracts under /api/v1, matching the
// client's default base URL.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/conversations", s.handleConversations).Methods(http.MethodGet)
	api.HandleFunc("/conversations/{id}/messages", s.handleMessages).Methods(http.MethodGet)
	api.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)
	api.HandleFunc("/transcribe", s.handleTranscribe).Methods(http.MethodPost)
	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.http = &http.Server{Addr: addr, Handler: s.Router()}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.http.Shutdown(ctxShutdown)
	}()
	s.logger.Info("stub backend listening", zap.String("addr", addr))
	return s.http.ListenAndServe()
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		http.Error(w, "email query parameter required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	out := make([]model.Conversation, 0)
	for _, conv := range s.conversations {
		if conv.email != email {
			continue
		}
		out = append(out, model.Conversation{
			ID:        conv.id,
			Title:     conv.title,
			UpdatedAt: conv.updatedAt,
		})
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	writeJSON(w, out)
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	conv, ok := s.conversations[id]
	var history []model.HistoryMessage
	if ok {
		history = append(history, conv.messages...)
	}
	s.mu.Unlock()

	if !ok {
		http.Error(w, "conversation not found", http.StatusNotFound)
		return
	}
	writeJSON(w, history)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	conversationID := r.Header.Get("conversationId")
	email := r.Header.Get("userEmail")
	if conversationID == "" || email == "" {
		http.Error(w, "conversationId and userEmail headers required", http.StatusBadRequest)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		http.Error(w, "empty message", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	if !s.allowSend(email) {
		s.mu.Unlock()
		s.logger.Warn("rate limited", zap.String("email", email))
		http.Error(w, "too many requests", http.StatusTooManyRequests)
		return
	}
	conv, ok := s.conversations[conversationID]
	if !ok {
		// Adopt the client-generated id on the first message.
		conv = &conversation{
			id:    conversationID,
			email: email,
			title: title(text),
		}
		s.conversations[conversationID] = conv
	}
	reply := replyTo(text)
	conv.messages = append(conv.messages,
		model.HistoryMessage{Role: "user", Content: text},
		model.HistoryMessage{Role: "assistant", Content: reply},
	)
	conv.updatedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("chat exchange",
		zap.String("conversationId", conversationID),
		zap.String("email", email))
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte(reply))
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file form field required", http.StatusBadRequest)
		return
	}
	defer file.Close()
	n, err := io.Copy(io.Discard, file)
	if err != nil {
		http.Error(w, "failed to read upload", http.StatusBadRequest)
		return
	}

	s.logger.Info("transcription requested", zap.Int64("bytes", n))
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("Hello, I need some help with my account."))
}

// allowSend records a send and reports whether the email is still inside its
// rate window. Callers hold s.mu.
func (s *Server) allowSend(email string) bool {
	now := time.Now()
	recent := s.sends[email][:0]
	for _, t := range s.sends[email] {
		if now.Sub(t) < s.window {
			recent = append(recent, t)
		}
	}
	if len(recent) >= s.limit {
		s.sends[email] = recent
		return false
	}
	s.sends[email] = append(recent, now)
	return true
}

func title(text string) string {
	const max = 40
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}

func replyTo(text string) string {
	return fmt.Sprintf("Thanks for reaching out! I've noted your request (%s) and a specialist will follow up shortly.", title(text))
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	_ = enc.Encode(payload)
}
