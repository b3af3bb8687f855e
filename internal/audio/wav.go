package audio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavBitDepth = 16

// EncodeWAV writes b as 16-bit PCM WAV.
func EncodeWAV(w io.WriteSeeker, b Buffer) error {
	channels := int(b.Channels)
	if channels == 0 {
		channels = 1
	}

	data := make([]int, len(b.Samples))
	for i, s := range b.Samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		data[i] = int(s * 32767)
	}

	enc := wav.NewEncoder(w, int(b.SampleRate), wavBitDepth, channels, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: channels,
			SampleRate:  int(b.SampleRate),
		},
		Data:           data,
		SourceBitDepth: wavBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("audio: encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("audio: finalize wav: %w", err)
	}
	return nil
}

// DecodeWAV reads a PCM WAV stream into a Buffer with samples normalized
// to [-1.0, 1.0].
func DecodeWAV(r io.ReadSeeker) (Buffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return Buffer{}, fmt.Errorf("audio: not a valid wav file")
	}
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return Buffer{}, fmt.Errorf("audio: decode wav: %w", err)
	}

	depth := pcm.SourceBitDepth
	if depth == 0 {
		depth = int(dec.BitDepth)
	}
	scale := float32(int64(1) << (depth - 1))

	// 8-bit PCM is unsigned with silence at 128.
	offset := 0
	if depth == 8 {
		offset = 128
	}

	samples := make([]float32, len(pcm.Data))
	for i, s := range pcm.Data {
		samples[i] = float32(s-offset) / scale
	}
	return Buffer{
		Samples:    samples,
		SampleRate: dec.SampleRate,
		Channels:   uint32(dec.NumChans),
	}, nil
}

// ReadWAVFile decodes the WAV file at path.
func ReadWAVFile(path string) (Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return Buffer{}, fmt.Errorf("audio: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return DecodeWAV(f)
}

// SaveWAV writes b to dir/name.wav and returns the file path.
func SaveWAV(dir, name string, b Buffer) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("audio: create %s: %w", dir, err)
	}
	path := filepath.Join(dir, name+".wav")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("audio: create %s: %w", path, err)
	}
	if err := EncodeWAV(f, b); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("audio: close %s: %w", path, err)
	}
	return path, nil
}
