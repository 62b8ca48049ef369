// Package langdetect guesses the caller's language from finalized
// transcripts so replies can be generated and spoken in kind.
package langdetect

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

// minLength guards against one-word utterances; trigram detection is
// unreliable below this.
const minLength = 12

// Detector wraps whatlanggo behind the session's detection contract.
type Detector struct{}

func New() Detector { return Detector{} }

// Detect returns the ISO 639-1 code for text, or ok=false when the sample is
// too short or the detection is not reliable enough to act on.
func (Detector) Detect(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if len(text) < minLength {
		return "", false
	}
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return "", false
	}
	code := info.Lang.Iso6391()
	if code == "" {
		return "", false
	}
	return code, true
}

// Noop never detects anything; sessions fall back to their default language.
type Noop struct{}

func (Noop) Detect(string) (string, bool) { return "", false }
