package transcribe

import (
	"errors"
	"fmt"
	"log/slog"
)

// Compute devices a model can be loaded on.
const (
	DeviceGPU = "gpu"
	DeviceCPU = "cpu"
)

// Loader loads a model on one compute device.
type Loader func() (Transcriber, error)

// DeviceOrder turns the compute_device preference into the ordered list of
// devices to try. GPU is preferred whenever it is allowed; CPU is always
// the last resort.
func DeviceOrder(pref string) []string {
	switch pref {
	case DeviceCPU:
		return []string{DeviceCPU}
	default: // "auto", "gpu"
		return []string{DeviceGPU, DeviceCPU}
	}
}

// LoadFirst walks order once and returns the first backend that loads,
// together with the device it was loaded on. It is meant to run once at
// startup; inference never re-probes.
func LoadFirst(order []string, loaders map[string]Loader, logger *slog.Logger) (Transcriber, string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var errs []error
	for _, device := range order {
		load, ok := loaders[device]
		if !ok {
			continue
		}
		t, err := load()
		if err == nil {
			logger.Info("model loaded", "device", device)
			return t, device, nil
		}
		logger.Warn("model load failed, trying next device", "device", device, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", device, err))
	}

	if len(errs) == 0 {
		return nil, "", fmt.Errorf("transcribe: no loader for devices %v", order)
	}
	return nil, "", fmt.Errorf("transcribe: load model: %w", errors.Join(errs...))
}
