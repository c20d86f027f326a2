// Package api is the HTTP client for the help-desk backend. It consumes the
// backend's contracts as-is: JSON for listings, plain text for the chat
// round trip and multipart upload for transcription.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"briochat/internal/model"
)

// ErrRateLimited marks a 429 from the chat endpoint so the session
// controller can raise the slow-down banner instead of the generic one.
var ErrRateLimited = errors.New("rate limited")

// Client talks to one backend. Timeouts are left to the transport defaults.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		logger:  logger,
	}
}

// Conversations lists every conversation the backend has for the email.
func (c *Client) Conversations(ctx context.Context, email string) ([]model.Conversation, error) {
	endpoint := fmt.Sprintf("%s/conversations?email=%s", c.baseURL, url.QueryEscape(email))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build conversations request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch conversations: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("conversations request failed: %s", resp.Status)
	}
	var conversations []model.Conversation
	if err := json.NewDecoder(resp.Body).Decode(&conversations); err != nil {
		return nil, fmt.Errorf("failed to decode conversations: %w", err)
	}
	return conversations, nil
}

// History fetches the full message log of one conversation.
func (c *Client) History(ctx context.Context, conversationID string) ([]model.HistoryMessage, error) {
	endpoint := fmt.Sprintf("%s/conversations/%s/messages", c.baseURL, url.PathEscape(conversationID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build history request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history request failed: %s", resp.Status)
	}
	var history []model.HistoryMessage
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return history, nil
}

// Send posts the raw message text and returns the assistant's plain text
// reply. Conversation and identity travel as headers, matching the backend
// contract.
func (c *Client) Send(ctx context.Context, conversationID, email, text string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", strings.NewReader(text))
	if err != nil {
		return "", fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("conversationId", conversationID)
	req.Header.Set("userEmail", email)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return "", ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("chat request failed: %s", resp.Status)
	}
	reply, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read chat reply: %w", err)
	}
	return string(reply), nil
}

// Transcribe uploads a recorded clip and returns the recognized text.
func (c *Client) Transcribe(ctx context.Context, clip []byte) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", "recording.wav")
	if err != nil {
		return "", fmt.Errorf("failed to build transcribe form: %w", err)
	}
	if _, err := part.Write(clip); err != nil {
		return "", fmt.Errorf("failed to write transcribe form: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize transcribe form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcribe", &body)
	if err != nil {
		return "", fmt.Errorf("failed to build transcribe request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcribe request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("transcribe request failed: %s", resp.Status)
	}
	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read transcription: %w", err)
	}
	c.logger.Debug("transcription received", zap.Int("bytes", len(text)))
	return string(text), nil
}
