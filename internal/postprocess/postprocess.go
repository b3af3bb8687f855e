// Package postprocess cleans up raw model output before it reaches the
// clipboard.
package postprocess

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/chaz8081/whisperclip/internal/config"
)

// DefaultFillers are removed when filler removal is enabled.
var DefaultFillers = []string{"um", "uh", "er", "ah", "like", "you know"}

var (
	spaceRun        = regexp.MustCompile(`\s+`)
	spaceBeforePunc = regexp.MustCompile(`\s+([.,!?;:])`)
	sentenceStart   = regexp.MustCompile(`([.!?]\s+)(\p{Ll})`)
	strandedComma   = regexp.MustCompile(`[,;]+\s*([.!?])`)
)

// Processor applies the text.* settings to a transcript.
type Processor struct {
	capitalize bool
	punctuate  bool
	fillers    *regexp.Regexp
}

// New builds a Processor from the text config.
func New(cfg config.TextConfig) *Processor {
	p := &Processor{
		capitalize: cfg.AutoCapitalize,
		punctuate:  cfg.AutoPunctuate,
	}
	if cfg.RemoveFillerWords {
		p.fillers = fillerPattern(DefaultFillers)
	}
	return p
}

func fillerPattern(words []string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	// A filler may carry one trailing comma ("um, so").
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b,?`)
}

// Apply returns the cleaned transcript. Whitespace-only input yields "".
func (p *Processor) Apply(text string) string {
	text = norm.NFC.String(text)
	text = collapse(text)
	if text == "" {
		return ""
	}

	if p.fillers != nil {
		text = collapse(p.fillers.ReplaceAllString(text, ""))
		text = strandedComma.ReplaceAllString(text, "$1")
		text = strings.TrimLeft(text, ",; ")
		if text == "" {
			return ""
		}
	}

	if p.capitalize {
		text = upperFirst(text)
		text = sentenceStart.ReplaceAllStringFunc(text, upperLast)
	}

	if p.punctuate && !strings.ContainsAny(lastRune(text), ".!?:;") {
		text += "."
	}
	return text
}

func collapse(s string) string {
	s = spaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
	return spaceBeforePunc.ReplaceAllString(s, "$1")
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

func upperLast(s string) string {
	r, size := utf8.DecodeLastRuneInString(s)
	return s[:len(s)-size] + string(unicode.ToUpper(r))
}

func lastRune(s string) string {
	_, size := utf8.DecodeLastRuneInString(s)
	return s[len(s)-size:]
}
