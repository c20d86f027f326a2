package stub_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"briochat/internal/api"
	"briochat/internal/stub"
)

func newStubClient(t *testing.T) *api.Client {
	t.Helper()
	ts := httptest.NewServer(stub.NewServer(zap.NewNop()).Router())
	t.Cleanup(ts.Close)
	return api.NewClient(ts.URL+"/api/v1", zap.NewNop())
}

func TestChatFlow(t *testing.T) {
	client := newStubClient(t)
	ctx := context.Background()

	convs, err := client.Conversations(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Empty(t, convs)

	reply, err := client.Send(ctx, "conv-1", "a@b.com", "My printer is on fire")
	require.NoError(t, err)
	assert.NotEmpty(t, reply)

	convs, err = client.Conversations(ctx, "a@b.com")
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, "conv-1", convs[0].ID)
	assert.Equal(t, "My printer is on fire", convs[0].Title)
	assert.False(t, convs[0].UpdatedAt.IsZero())

	history, err := client.History(ctx, "conv-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "assistant", history[1].Role)
	assert.Equal(t, reply, history[1].Content)

	// Another user never sees this conversation.
	convs, err = client.Conversations(ctx, "other@b.com")
	require.NoError(t, err)
	assert.Empty(t, convs)
}

func TestRateLimit(t *testing.T) {
	client := newStubClient(t)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, err := client.Send(ctx, "conv-1", "a@b.com", "hello")
		require.NoError(t, err)
	}
	_, err := client.Send(ctx, "conv-1", "a@b.com", "hello")
	require.ErrorIs(t, err, api.ErrRateLimited)

	// Other identities are unaffected.
	_, err = client.Send(ctx, "conv-2", "other@b.com", "hello")
	require.NoError(t, err)
}

func TestHistoryUnknownConversation(t *testing.T) {
	client := newStubClient(t)
	_, err := client.History(context.Background(), "missing")
	require.Error(t, err)
}

func TestTranscribe(t *testing.T) {
	client := newStubClient(t)
	text, err := client.Transcribe(context.Background(), []byte("fake wav bytes"))
	require.NoError(t, err)
	assert.NotEmpty(t, text)
}

func TestConversationsRequiresEmail(t *testing.T) {
	ts := httptest.NewServer(stub.NewServer(zap.NewNop()).Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/conversations")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
