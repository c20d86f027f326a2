package audio

import (
	"fmt"
	"strings"

	"github.com/gen2brain/malgo"
	"go.uber.org/zap"
)

// MalgoDevice captures microphone PCM through the miniaudio bindings. One
// instance drives at most one capture session at a time; the Recorder
// enforces that ordering.
type MalgoDevice struct {
	sampleRate uint32
	channels   uint32
	logger     *zap.Logger

	ctx    *malgo.AllocatedContext
	device *malgo.Device
}

func NewMalgoDevice(sampleRate, channels uint32, logger *zap.Logger) *MalgoDevice {
	return &MalgoDevice{
		sampleRate: sampleRate,
		channels:   channels,
		logger:     logger,
	}
}

// Start acquires the default capture device and begins delivering S16LE
// chunks to onChunk from the capture thread.
func (d *MalgoDevice) Start(onChunk func([]byte)) error {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		d.logger.Debug("miniaudio", zap.String("message", strings.TrimSpace(message)))
	})
	if err != nil {
		return fmt.Errorf("failed to init audio context: %w", err)
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatS16
	cfg.Capture.Channels = d.channels
	cfg.SampleRate = d.sampleRate

	device, err := malgo.InitDevice(ctx.Context, cfg, malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			onChunk(input)
		},
	})
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("failed to open capture device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		_ = ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("failed to start capture device: %w", err)
	}

	d.ctx = ctx
	d.device = device
	return nil
}

// Stop releases the device and the audio context unconditionally.
func (d *MalgoDevice) Stop() error {
	if d.device != nil {
		d.device.Uninit()
		d.device = nil
	}
	if d.ctx != nil {
		err := d.ctx.Uninit()
		d.ctx.Free()
		d.ctx = nil
		if err != nil {
			return fmt.Errorf("failed to release audio context: %w", err)
		}
	}
	return nil
}
