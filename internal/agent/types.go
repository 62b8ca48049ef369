package agent

import (
	"context"
)

// Role identifies who contributed a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one exchange unit in the conversation history. Immutable once appended.
type Turn struct {
	Role Role
	Text string
}

// FinalTranscript is a finalized utterance emitted by the transcription service.
type FinalTranscript struct {
	Text       string
	Confidence float64
}

// Transcriber is the minimal interface for realtime STT over a call's media.
// It accepts 8kHz mono mu-law buffers and emits finalized utterances.
type Transcriber interface {
	Connect() error
	// SendAudio forwards raw mu-law audio. Callers must check IsOpen first;
	// frames sent before the upstream socket is open are dropped.
	SendAudio(mulaw []byte) error
	IsOpen() bool
	// Opened is closed once the upstream connection reports open.
	Opened() <-chan struct{}
	Finals() <-chan FinalTranscript
	Close() error
}

// Responder generates a single assistant reply for the conversation so far.
// lang, when non-empty, is an ISO 639-1 hint for the response language.
type Responder interface {
	Generate(ctx context.Context, history []Turn, lang string) (string, error)
}

// Synthesizer converts reply text into a streamable audio byte sequence
// encoded for the call transport (mu-law 8kHz). A nil stream with nil error
// means synthesis is unavailable; the turn ends silently.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) (*AudioStream, error)
}

// Transport is the outbound half of the call's media connection. WriteJSON
// must serialize whole messages; Open reports whether writes can still be
// attempted.
type Transport interface {
	WriteJSON(v any) error
	Open() bool
}

// LanguageDetector is an injectable best-effort language detection capability.
// ok is false when detection is unreliable or undetermined.
type LanguageDetector interface {
	Detect(text string) (code string, ok bool)
}

// CatalogItem is one sellable item from the business catalog.
type CatalogItem struct {
	Name       string
	PriceCents int64
}

// BusinessProfile is the session-scoped read from the profile store.
type BusinessProfile struct {
	Name        string
	Description string
	Hours       string
	Contact     string
	Greeting    string
	Catalog     []CatalogItem
}

// ProfileSource loads the business profile and catalog once per session.
type ProfileSource interface {
	Load(ctx context.Context) (BusinessProfile, error)
}

// AudioStream is a synthesized audio byte stream. Chunks closes at end of
// stream; Errs delivers at most one terminal error. Stop destroys the stream,
// aborting the underlying request without draining.
type AudioStream struct {
	Chunks <-chan []byte
	Errs   <-chan error
	stop   func()
}

// NewAudioStream wraps channels produced by a synthesis client. stop may be nil.
func NewAudioStream(chunks <-chan []byte, errs <-chan error, stop func()) *AudioStream {
	return &AudioStream{Chunks: chunks, Errs: errs, stop: stop}
}

// Stop aborts the stream. Safe to call multiple times.
func (a *AudioStream) Stop() {
	if a.stop != nil {
		a.stop()
	}
}
