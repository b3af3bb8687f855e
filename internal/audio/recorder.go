// Package audio captures microphone input with malgo (miniaudio) and
// converts it into buffers the transcriber can consume.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
)

// DeviceError reports that the capture device could not be opened or
// stopped delivering audio. It aborts the current session only.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("audio: %s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

var (
	errAlreadyRecording = errors.New("already recording")
	errDeviceStopped    = errors.New("capture device stopped unexpectedly")
)

// Device describes one capture device.
type Device struct {
	Index   int
	Name    string
	Default bool
}

// Recorder captures audio from one input device into a float32 buffer.
// The device is opened on Start and released on Stop, so the microphone
// is only held while a session is recording.
type Recorder struct {
	ctx         *malgo.AllocatedContext
	deviceIndex int // -1 selects the system default
	sampleRate  uint32
	channels    uint32

	mu        sync.Mutex
	device    *malgo.Device
	buf       []float32
	recording bool
	stopping  bool
	failure   error
}

// NewRecorder creates a new audio recorder. Call Close() when done.
func NewRecorder(deviceIndex int, sampleRate, channels uint32) (*Recorder, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, &DeviceError{Op: "init context", Err: err}
	}

	return &Recorder{
		ctx:         ctx,
		deviceIndex: deviceIndex,
		sampleRate:  sampleRate,
		channels:    channels,
	}, nil
}

// ListDevices enumerates the capture devices visible to the audio backend.
func (r *Recorder) ListDevices() ([]Device, error) {
	infos, err := r.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, &DeviceError{Op: "list devices", Err: err}
	}
	devices := make([]Device, len(infos))
	for i := range infos {
		devices[i] = Device{
			Index:   i,
			Name:    infos[i].Name(),
			Default: infos[i].IsDefault != 0,
		}
	}
	return devices, nil
}

// Start begins capturing audio from the configured device.
// Audio samples are accumulated in an internal buffer as float32 values.
func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.recording {
		r.mu.Unlock()
		return &DeviceError{Op: "start", Err: errAlreadyRecording}
	}
	r.buf = r.buf[:0] // reset buffer but keep capacity
	r.failure = nil
	r.stopping = false
	r.recording = true
	r.mu.Unlock()

	device, err := r.openDevice()
	if err != nil {
		r.mu.Lock()
		r.recording = false
		r.mu.Unlock()
		return err
	}

	r.mu.Lock()
	r.device = device
	r.mu.Unlock()

	return nil
}

func (r *Recorder) openDevice() (*malgo.Device, error) {
	deviceCfg := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceCfg.Capture.Format = malgo.FormatF32
	deviceCfg.Capture.Channels = r.channels
	deviceCfg.SampleRate = r.sampleRate

	if r.deviceIndex >= 0 {
		infos, err := r.ctx.Devices(malgo.Capture)
		if err != nil {
			return nil, &DeviceError{Op: "list devices", Err: err}
		}
		if r.deviceIndex >= len(infos) {
			return nil, &DeviceError{
				Op:  "select device",
				Err: fmt.Errorf("device index %d out of range (%d capture devices)", r.deviceIndex, len(infos)),
			}
		}
		deviceCfg.Capture.DeviceID = infos[r.deviceIndex].ID.Pointer()
	}

	callbacks := malgo.DeviceCallbacks{
		Data: r.onData,
		Stop: r.onStop,
	}

	device, err := malgo.InitDevice(r.ctx.Context, deviceCfg, callbacks)
	if err != nil {
		return nil, &DeviceError{Op: "init capture device", Err: err}
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return nil, &DeviceError{Op: "start capture device", Err: err}
	}
	return device, nil
}

// Stop ends the audio capture, releases the device and returns the
// recorded audio. A device that stopped on its own during the session
// yields a *DeviceError and the partial buffer is discarded.
func (r *Recorder) Stop() (Buffer, error) {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return Buffer{}, nil
	}
	device := r.device
	r.device = nil
	r.recording = false
	r.stopping = true
	r.mu.Unlock()

	// Uninit waits for in-flight callbacks, so it must run without r.mu held.
	if device != nil {
		device.Uninit()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopping = false

	if r.failure != nil {
		err := r.failure
		r.failure = nil
		return Buffer{}, &DeviceError{Op: "capture", Err: err}
	}

	// Return a copy of the buffer
	samples := make([]float32, len(r.buf))
	copy(samples, r.buf)

	return Buffer{Samples: samples, SampleRate: r.sampleRate, Channels: r.channels}, nil
}

// IsRecording returns whether the recorder is currently capturing audio.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Close releases all audio resources.
func (r *Recorder) Close() error {
	r.mu.Lock()
	device := r.device
	r.device = nil
	r.recording = false
	r.stopping = true
	r.mu.Unlock()

	if device != nil {
		device.Uninit()
	}

	if r.ctx != nil {
		if err := r.ctx.Uninit(); err != nil {
			return fmt.Errorf("audio: uninitializing context: %w", err)
		}
		r.ctx.Free()
		r.ctx = nil
	}

	return nil
}

// onData is the malgo callback invoked when audio data is available.
// pSample contains the captured audio frames as raw bytes (float32 format).
func (r *Recorder) onData(_, pSample []byte, frameCount uint32) {
	sampleCount := frameCount * r.channels
	samples := bytesToFloat32(pSample, sampleCount)

	r.mu.Lock()
	if r.recording {
		r.buf = append(r.buf, samples...)
	}
	r.mu.Unlock()
}

// onStop fires whenever the device stops. Outside of Stop/Close that means
// the device went away mid-session.
func (r *Recorder) onStop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording && !r.stopping {
		r.failure = errDeviceStopped
	}
}

// bytesToFloat32 converts raw bytes (little-endian float32) to a float32 slice.
func bytesToFloat32(data []byte, sampleCount uint32) []float32 {
	samples := make([]float32, 0, sampleCount)
	for i := uint32(0); i < sampleCount; i++ {
		offset := i * 4
		if offset+4 > uint32(len(data)) {
			break
		}
		bits := binary.LittleEndian.Uint32(data[offset : offset+4])
		samples = append(samples, math.Float32frombits(bits))
	}
	return samples
}
