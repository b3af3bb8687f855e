package postprocess

import (
	"testing"

	"github.com/chaz8081/whisperclip/internal/config"
)

func TestApply(t *testing.T) {
	all := config.TextConfig{AutoCapitalize: true, AutoPunctuate: true, RemoveFillerWords: true}

	tests := []struct {
		name string
		cfg  config.TextConfig
		in   string
		want string
	}{
		{"empty", all, "", ""},
		{"whitespace only", all, "  \n\t ", ""},
		{"passthrough", config.TextConfig{}, "  hello   world ", "hello world"},
		{"capitalize and period", all, "hello world", "Hello world."},
		{"keeps question mark", all, "is it on?", "Is it on?"},
		{"capitalize after sentence end", all, "one. two! three", "One. Two! Three."},
		{"space before punctuation", config.TextConfig{}, "wait , what ?", "wait, what?"},
		{"fillers removed", all, "um so uh we ship it", "So we ship it."},
		{"filler with comma", all, "Um, hello there", "Hello there."},
		{"no comma left before period", all, "so, uh. next", "So. Next."},
		{"no comma left before question", all, "right, um?", "Right?"},
		{"fillers only", all, "um uh", ""},
		{"fillers kept when disabled", config.TextConfig{}, "um okay", "um okay"},
		{"filler inside word untouched", all, "summer umbrella", "Summer umbrella."},
		{"unicode first letter", all, "élan vital", "Élan vital."},
		{"nfc normalization", config.TextConfig{}, "cafe\u0301", "caf\u00e9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := New(tt.cfg).Apply(tt.in); got != tt.want {
				t.Errorf("Apply(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
