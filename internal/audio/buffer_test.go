package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"path/filepath"
	"testing"
	"time"
)

func TestBufferDuration(t *testing.T) {
	tests := []struct {
		name   string
		buf    Buffer
		frames int
		want   time.Duration
	}{
		{"empty", Buffer{SampleRate: 16000, Channels: 1}, 0, 0},
		{"100ms mono", Buffer{Samples: make([]float32, 1600), SampleRate: 16000, Channels: 1}, 1600, 100 * time.Millisecond},
		{"1s stereo", Buffer{Samples: make([]float32, 88200), SampleRate: 44100, Channels: 2}, 44100, time.Second},
		{"zero channels", Buffer{Samples: make([]float32, 10), SampleRate: 16000}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.buf.Frames(); got != tt.frames {
				t.Errorf("Frames() = %d, want %d", got, tt.frames)
			}
			if got := tt.buf.Duration(); got != tt.want {
				t.Errorf("Duration() = %s, want %s", got, tt.want)
			}
			if got := tt.buf.Empty(); got != (tt.frames == 0) {
				t.Errorf("Empty() = %v, want %v", got, tt.frames == 0)
			}
		})
	}
}

func TestMono(t *testing.T) {
	stereo := Buffer{Samples: []float32{1, 0, 0.5, 0.5, -1, 1}, SampleRate: 16000, Channels: 2}
	mono := stereo.Mono()

	if mono.Channels != 1 {
		t.Fatalf("Channels = %d, want 1", mono.Channels)
	}
	want := []float32{0.5, 0.5, 0}
	for i := range want {
		if mono.Samples[i] != want[i] {
			t.Errorf("samples[%d] = %f, want %f", i, mono.Samples[i], want[i])
		}
	}
}

func TestResample(t *testing.T) {
	in := Buffer{Samples: make([]float32, 48000), SampleRate: 48000, Channels: 1}
	for i := range in.Samples {
		in.Samples[i] = float32(i) / 48000
	}

	out := in.Resample(16000)
	if out.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", out.SampleRate)
	}
	if len(out.Samples) != 16000 {
		t.Fatalf("got %d samples, want 16000", len(out.Samples))
	}
	// A ramp stays a ramp.
	if got, want := out.Samples[8000], float32(0.5); math.Abs(float64(got-want)) > 1e-3 {
		t.Errorf("samples[8000] = %f, want ~%f", got, want)
	}
}

func TestResampleSameRateIsNoop(t *testing.T) {
	in := Buffer{Samples: []float32{0.1, 0.2}, SampleRate: 16000, Channels: 1}
	out := in.Resample(16000)
	if len(out.Samples) != 2 || out.Samples[1] != 0.2 {
		t.Errorf("Resample() changed samples: %v", out.Samples)
	}
}

func TestForModel(t *testing.T) {
	in := Buffer{Samples: make([]float32, 2*44100), SampleRate: 44100, Channels: 2}
	got := in.ForModel()
	if len(got) != 16000 {
		t.Errorf("ForModel() returned %d samples, want 16000", len(got))
	}
}

func TestWAVRoundTripThroughFile(t *testing.T) {
	dir := t.TempDir()
	in := Buffer{Samples: make([]float32, 1600), SampleRate: 16000, Channels: 1}
	for i := range in.Samples {
		in.Samples[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/16000))
	}

	path, err := SaveWAV(dir, "session", in)
	if err != nil {
		t.Fatalf("SaveWAV() error = %v", err)
	}
	if path != filepath.Join(dir, "session.wav") {
		t.Errorf("SaveWAV() path = %q", path)
	}

	out, err := ReadWAVFile(path)
	if err != nil {
		t.Fatalf("ReadWAVFile() error = %v", err)
	}
	if out.SampleRate != 16000 || out.Channels != 1 {
		t.Errorf("format = %dHz/%dch, want 16000Hz/1ch", out.SampleRate, out.Channels)
	}
	if len(out.Samples) != len(in.Samples) {
		t.Fatalf("got %d samples, want %d", len(out.Samples), len(in.Samples))
	}
	for i := range in.Samples {
		if d := math.Abs(float64(out.Samples[i] - in.Samples[i])); d > 1e-3 {
			t.Fatalf("samples[%d] = %f, want ~%f", i, out.Samples[i], in.Samples[i])
		}
	}
}

func TestReadWAVFileMissing(t *testing.T) {
	if _, err := ReadWAVFile(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("ReadWAVFile() on a missing file should fail")
	}
}

// pcm8WAV builds a minimal 8-bit mono WAV file around data.
func pcm8WAV(rate uint32, data []byte) []byte {
	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(36+len(data)))
	b.WriteString("WAVEfmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&b, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&b, binary.LittleEndian, rate)
	binary.Write(&b, binary.LittleEndian, rate) // byte rate
	binary.Write(&b, binary.LittleEndian, uint16(1))
	binary.Write(&b, binary.LittleEndian, uint16(8))
	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(len(data)))
	b.Write(data)
	return b.Bytes()
}

func TestDecodeWAV8BitIsUnsigned(t *testing.T) {
	buf, err := DecodeWAV(bytes.NewReader(pcm8WAV(8000, []byte{0, 128, 255, 128})))
	if err != nil {
		t.Fatalf("DecodeWAV() error = %v", err)
	}
	want := []float32{-1, 0, 127.0 / 128, 0}
	if len(buf.Samples) != len(want) {
		t.Fatalf("got %d samples, want %d", len(buf.Samples), len(want))
	}
	for i := range want {
		if d := math.Abs(float64(buf.Samples[i] - want[i])); d > 1e-6 {
			t.Errorf("samples[%d] = %f, want %f", i, buf.Samples[i], want[i])
		}
	}
	if buf.SampleRate != 8000 || buf.Channels != 1 {
		t.Errorf("format = %dHz %dch, want 8000Hz 1ch", buf.SampleRate, buf.Channels)
	}
}
