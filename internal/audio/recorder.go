// Package audio captures microphone input into a single WAV clip per
// recording session. Chunks accumulate in a buffer owned solely by the
// Recorder; the capture device is released on every stop path.
package audio

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrBusy is returned when a recording session is already running.
	ErrBusy = errors.New("recording already in progress")
	// ErrNotRecording is returned by Stop without a matching Start.
	ErrNotRecording = errors.New("no recording in progress")
)

// Device is a capture source that delivers PCM chunks through a callback
// until stopped. Start acquires the underlying input; Stop must release it.
type Device interface {
	Start(onChunk func([]byte)) error
	Stop() error
}

// Recorder accumulates capture chunks and finalizes them into a WAV clip.
// At most one recording session runs at a time.
type Recorder struct {
	device     Device
	logger     *zap.Logger
	sampleRate int
	channels   int

	// The device callback runs on the capture thread; the mutex guards the
	// buffer against it.
	mu        sync.Mutex
	recording bool
	chunks    [][]byte
}

func NewRecorder(device Device, sampleRate, channels int, logger *zap.Logger) *Recorder {
	return &Recorder{
		device:     device,
		logger:     logger,
		sampleRate: sampleRate,
		channels:   channels,
	}
}

func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Start begins a capture session. Failure to acquire the device (denied
// permission, no input available) is terminal for this attempt; the recorder
// reverts to idle and the caller may try again later.
func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.recording {
		r.mu.Unlock()
		return ErrBusy
	}
	r.recording = true
	r.chunks = nil
	r.mu.Unlock()

	if err := r.device.Start(r.append); err != nil {
		r.mu.Lock()
		r.recording = false
		r.mu.Unlock()
		return fmt.Errorf("failed to acquire capture device: %w", err)
	}
	r.logger.Debug("recording started")
	return nil
}

func (r *Recorder) append(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	buf := make([]byte, len(chunk))
	copy(buf, chunk)
	r.mu.Lock()
	if r.recording {
		r.chunks = append(r.chunks, buf)
	}
	r.mu.Unlock()
}

// Stop finalizes the accumulated buffer into a WAV clip. The device is
// released unconditionally, even when encoding fails. A session with zero
// captured chunks still yields a valid, silent clip.
func (r *Recorder) Stop() ([]byte, error) {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return nil, ErrNotRecording
	}
	r.recording = false
	chunks := r.chunks
	r.chunks = nil
	r.mu.Unlock()

	if err := r.device.Stop(); err != nil {
		r.logger.Warn("failed to release capture device", zap.Error(err))
	}

	clip, err := encodeWAV(chunks, r.sampleRate, r.channels)
	if err != nil {
		return nil, fmt.Errorf("failed to encode recording: %w", err)
	}
	r.logger.Debug("recording finalized", zap.Int("bytes", len(clip)))
	return clip, nil
}
