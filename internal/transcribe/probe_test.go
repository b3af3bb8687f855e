package transcribe

import (
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"
)

type fakeTranscriber struct {
	name   string
	closed bool
}

func (f *fakeTranscriber) Process([]float32) (string, error) { return f.name, nil }
func (f *fakeTranscriber) Close() error                      { f.closed = true; return nil }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDeviceOrder(t *testing.T) {
	tests := []struct {
		pref string
		want []string
	}{
		{"auto", []string{DeviceGPU, DeviceCPU}},
		{"gpu", []string{DeviceGPU, DeviceCPU}},
		{"", []string{DeviceGPU, DeviceCPU}},
		{"cpu", []string{DeviceCPU}},
	}
	for _, tt := range tests {
		if got := DeviceOrder(tt.pref); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("DeviceOrder(%q) = %v, want %v", tt.pref, got, tt.want)
		}
	}
}

func TestLoadFirstPrefersGPU(t *testing.T) {
	var cpuCalls int
	loaders := map[string]Loader{
		DeviceGPU: func() (Transcriber, error) { return &fakeTranscriber{name: "gpu"}, nil },
		DeviceCPU: func() (Transcriber, error) { cpuCalls++; return &fakeTranscriber{name: "cpu"}, nil },
	}

	tr, device, err := LoadFirst(DeviceOrder("auto"), loaders, quietLogger())
	if err != nil {
		t.Fatalf("LoadFirst() error = %v", err)
	}
	if device != DeviceGPU {
		t.Errorf("device = %q, want %q", device, DeviceGPU)
	}
	if got, _ := tr.Process(nil); got != "gpu" {
		t.Errorf("loaded %q backend, want gpu", got)
	}
	if cpuCalls != 0 {
		t.Errorf("CPU loader called %d times after GPU succeeded", cpuCalls)
	}
}

func TestLoadFirstFallsBackToCPU(t *testing.T) {
	loaders := map[string]Loader{
		DeviceGPU: func() (Transcriber, error) { return nil, errors.New("no CUDA device") },
		DeviceCPU: func() (Transcriber, error) { return &fakeTranscriber{name: "cpu"}, nil },
	}

	_, device, err := LoadFirst(DeviceOrder("gpu"), loaders, quietLogger())
	if err != nil {
		t.Fatalf("LoadFirst() error = %v", err)
	}
	if device != DeviceCPU {
		t.Errorf("device = %q, want %q", device, DeviceCPU)
	}
}

func TestLoadFirstCPUOnlyNeverProbesGPU(t *testing.T) {
	var gpuCalls int
	loaders := map[string]Loader{
		DeviceGPU: func() (Transcriber, error) { gpuCalls++; return &fakeTranscriber{}, nil },
		DeviceCPU: func() (Transcriber, error) { return &fakeTranscriber{name: "cpu"}, nil },
	}

	if _, device, err := LoadFirst(DeviceOrder("cpu"), loaders, quietLogger()); err != nil || device != DeviceCPU {
		t.Fatalf("LoadFirst() = %q, %v; want cpu, nil", device, err)
	}
	if gpuCalls != 0 {
		t.Errorf("GPU loader called %d times with cpu preference", gpuCalls)
	}
}

func TestLoadFirstAllFail(t *testing.T) {
	errGPU := errors.New("gpu unavailable")
	errCPU := errors.New("model file corrupt")
	loaders := map[string]Loader{
		DeviceGPU: func() (Transcriber, error) { return nil, errGPU },
		DeviceCPU: func() (Transcriber, error) { return nil, errCPU },
	}

	tr, _, err := LoadFirst(DeviceOrder("auto"), loaders, quietLogger())
	if err == nil {
		t.Fatal("LoadFirst() should fail when every device fails")
	}
	if tr != nil {
		t.Error("LoadFirst() returned a transcriber alongside an error")
	}
	if !errors.Is(err, errGPU) || !errors.Is(err, errCPU) {
		t.Errorf("error %v should wrap both device failures", err)
	}
}

func TestLoadFirstNoLoaders(t *testing.T) {
	_, _, err := LoadFirst([]string{DeviceGPU}, map[string]Loader{}, nil)
	if err == nil || !strings.Contains(err.Error(), "no loader") {
		t.Errorf("LoadFirst() error = %v, want no loader error", err)
	}
}
