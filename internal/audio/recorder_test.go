package audio

import (
	"bytes"
	"errors"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeDevice struct {
	startErr error
	stopErr  error
	starts   int
	stops    int
	onChunk  func([]byte)
}

func (d *fakeDevice) Start(onChunk func([]byte)) error {
	if d.startErr != nil {
		return d.startErr
	}
	d.starts++
	d.onChunk = onChunk
	return nil
}

func (d *fakeDevice) Stop() error {
	d.stops++
	return d.stopErr
}

func TestRecorderAccumulatesChunks(t *testing.T) {
	dev := &fakeDevice{}
	rec := NewRecorder(dev, 16000, 1, zap.NewNop())

	require.NoError(t, rec.Start())
	assert.True(t, rec.Recording())
	dev.onChunk([]byte{1, 0, 2, 0})
	dev.onChunk([]byte{3, 0})

	clip, err := rec.Stop()
	require.NoError(t, err)
	assert.False(t, rec.Recording())
	assert.Equal(t, 1, dev.stops)

	decoder := wav.NewDecoder(bytes.NewReader(clip))
	require.True(t, decoder.IsValidFile())
	buf, err := decoder.FullPCMBuffer()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, buf.Data)
	assert.Equal(t, 16000, buf.Format.SampleRate)
	assert.Equal(t, 1, buf.Format.NumChannels)
}

func TestStopWithZeroChunksStillYieldsClip(t *testing.T) {
	dev := &fakeDevice{}
	rec := NewRecorder(dev, 16000, 1, zap.NewNop())

	require.NoError(t, rec.Start())
	clip, err := rec.Stop()
	require.NoError(t, err)
	require.NotEmpty(t, clip)
	assert.Equal(t, "RIFF", string(clip[:4]))
	assert.Equal(t, 1, dev.stops)
}

func TestStartWhileRecording(t *testing.T) {
	dev := &fakeDevice{}
	rec := NewRecorder(dev, 16000, 1, zap.NewNop())

	require.NoError(t, rec.Start())
	require.ErrorIs(t, rec.Start(), ErrBusy)
	assert.Equal(t, 1, dev.starts)
}

func TestStartDeviceFailureIsTerminalForAttempt(t *testing.T) {
	dev := &fakeDevice{startErr: errors.New("permission denied")}
	rec := NewRecorder(dev, 16000, 1, zap.NewNop())

	require.Error(t, rec.Start())
	assert.False(t, rec.Recording())

	// A later attempt may succeed once the device is available again.
	dev.startErr = nil
	require.NoError(t, rec.Start())
}

func TestStopWithoutStart(t *testing.T) {
	rec := NewRecorder(&fakeDevice{}, 16000, 1, zap.NewNop())
	_, err := rec.Stop()
	require.ErrorIs(t, err, ErrNotRecording)
}

func TestDeviceReleasedEvenWhenStopFails(t *testing.T) {
	dev := &fakeDevice{stopErr: errors.New("device wedged")}
	rec := NewRecorder(dev, 16000, 1, zap.NewNop())

	require.NoError(t, rec.Start())
	clip, err := rec.Stop()
	require.NoError(t, err, "a stop failure must not lose the recording")
	assert.NotEmpty(t, clip)
	assert.Equal(t, 1, dev.stops)
}

func TestChunksAfterStopIgnored(t *testing.T) {
	dev := &fakeDevice{}
	rec := NewRecorder(dev, 16000, 1, zap.NewNop())

	require.NoError(t, rec.Start())
	_, err := rec.Stop()
	require.NoError(t, err)

	// A straggling callback from the capture thread must not resurrect the
	// buffer.
	dev.onChunk([]byte{9, 0})
	require.NoError(t, rec.Start())
	clip, err := rec.Stop()
	require.NoError(t, err)

	empty, err := encodeWAV(nil, 16000, 1)
	require.NoError(t, err)
	assert.Equal(t, empty, clip)
}
