package audio

import "time"

// ModelSampleRate is the rate whisper models expect.
const ModelSampleRate = 16000

// Buffer is the audio captured during one session: interleaved float32
// samples at a fixed rate and channel count. A Buffer is handed from the
// recorder to the transcriber by value and not shared afterwards.
type Buffer struct {
	Samples    []float32
	SampleRate uint32
	Channels   uint32
}

// Frames returns the number of sample frames (samples per channel).
func (b Buffer) Frames() int {
	if b.Channels == 0 {
		return 0
	}
	return len(b.Samples) / int(b.Channels)
}

// Empty reports whether no frames were captured.
func (b Buffer) Empty() bool {
	return b.Frames() == 0
}

// Duration returns the length of the captured audio.
func (b Buffer) Duration() time.Duration {
	if b.SampleRate == 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

// Mono down-mixes interleaved channels by averaging. A mono buffer is
// returned unchanged.
func (b Buffer) Mono() Buffer {
	if b.Channels <= 1 {
		return b
	}
	ch := int(b.Channels)
	frames := b.Frames()
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < ch; c++ {
			sum += b.Samples[i*ch+c]
		}
		out[i] = sum / float32(ch)
	}
	return Buffer{Samples: out, SampleRate: b.SampleRate, Channels: 1}
}

// Resample converts a mono buffer to rate using linear interpolation.
func (b Buffer) Resample(rate uint32) Buffer {
	if b.SampleRate == rate || b.SampleRate == 0 || len(b.Samples) == 0 {
		return Buffer{Samples: b.Samples, SampleRate: rate, Channels: b.Channels}
	}
	n := int(int64(len(b.Samples)) * int64(rate) / int64(b.SampleRate))
	out := make([]float32, n)
	step := float64(b.SampleRate) / float64(rate)
	last := len(b.Samples) - 1
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= last {
			out[i] = b.Samples[last]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = b.Samples[j]*(1-frac) + b.Samples[j+1]*frac
	}
	return Buffer{Samples: out, SampleRate: rate, Channels: b.Channels}
}

// ForModel returns mono 16 kHz samples ready for inference.
func (b Buffer) ForModel() []float32 {
	return b.Mono().Resample(ModelSampleRate).Samples
}
