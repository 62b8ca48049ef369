package agent

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// State is the session lifecycle phase.
type State int

const (
	StateIdle State = iota
	StateStreamStarting
	StateActive
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreamStarting:
		return "stream-starting"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Session orchestrates one phone call: it relays inbound media to the
// transcriber, turns finalized utterances into spoken replies, and implements
// the greeting and barge-in protocols. All mutable fields are owned by a
// single mutex; handlers never run concurrently over them.
type Session struct {
	id          string
	transport   Transport
	transcriber Transcriber
	responder   Responder
	synth       Synthesizer
	profiles    ProfileSource
	detector    LanguageDetector

	mu            sync.Mutex
	state         State
	streamSID     string
	history       []Turn
	greeting      string
	greetingSent  bool
	contextLoaded bool
	detectedLang  string
	speaking      bool
	activeAudio   *AudioStream
	currentTurn   *TurnToken
	markSeq       int64
	cancel        context.CancelFunc
}

// NewSession wires a session to its collaborators. The caller must invoke
// Start before feeding messages and must route every inbound transport
// message through HandleMessage.
func NewSession(transport Transport, transcriber Transcriber, responder Responder, synth Synthesizer, profiles ProfileSource, detector LanguageDetector) *Session {
	return &Session{
		id:          uuid.NewString()[:8],
		transport:   transport,
		transcriber: transcriber,
		responder:   responder,
		synth:       synth,
		profiles:    profiles,
		detector:    detector,
		state:       StateIdle,
	}
}

// ID returns the session's log identifier.
func (s *Session) ID() string { return s.id }

// Start launches the context bootstrap and the transcription connection.
// It returns immediately; the inbound dispatch (HandleMessage) is already
// attached at this point, so no start or media frame can race ahead of it.
func (s *Session) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	go s.loadContext(ctx)
	go func() {
		if err := s.transcriber.Connect(); err != nil {
			log.Printf("[%s] transcriber connect failed: %v", s.id, err)
		}
	}()
	go s.consumeTranscripts(ctx)
}

func (s *Session) consumeTranscripts(ctx context.Context) {
	// the greeting becomes eligible again when the STT socket opens
	go func() {
		select {
		case <-ctx.Done():
		case <-s.transcriber.Opened():
			s.maybeGreet()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case ft, ok := <-s.transcriber.Finals():
			if !ok {
				return
			}
			s.handleFinal(ft)
		}
	}
}

// HandleMessage dispatches one raw inbound transport message. Parse failures
// are logged and dropped; they never terminate the session.
func (s *Session) HandleMessage(raw []byte) {
	var ev streamEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		log.Printf("[%s] dropping unparseable transport message: %v", s.id, err)
		return
	}
	switch ev.Event {
	case "connected":
		log.Printf("[%s] media stream connected", s.id)
	case "start":
		s.handleStart(ev)
	case "media":
		s.handleMedia(ev)
	case "mark":
		if ev.Mark != nil {
			log.Printf("[%s] playback acknowledged: %s", s.id, ev.Mark.Name)
		}
	case "stop":
		log.Printf("[%s] media stream stopped", s.id)
		s.Shutdown("stop event")
	default:
		log.Printf("[%s] dropping unknown event %q", s.id, ev.Event)
	}
}

// HandleClose reacts to the transport connection closing.
func (s *Session) HandleClose() { s.Shutdown("transport closed") }

// HandleError reacts to a transport-level error.
func (s *Session) HandleError(err error) {
	log.Printf("[%s] transport error: %v", s.id, err)
	s.Shutdown("transport error")
}

func (s *Session) handleStart(ev streamEvent) {
	sid := ev.StreamSID
	if sid == "" && ev.Start != nil {
		sid = ev.Start.StreamSID
	}
	if sid == "" {
		log.Printf("[%s] start event without streamSid, dropping", s.id)
		return
	}
	s.mu.Lock()
	if s.streamSID != "" {
		// streamSid is set exactly once; a repeated start is not a restart
		s.mu.Unlock()
		log.Printf("[%s] ignoring duplicate start event (streamSid=%s)", s.id, sid)
		return
	}
	s.streamSID = sid
	s.state = StateStreamStarting
	s.mu.Unlock()
	log.Printf("[%s] media stream started: %s", s.id, sid)

	s.maybeGreet()

	s.mu.Lock()
	if s.state == StateStreamStarting {
		s.state = StateActive
	}
	s.mu.Unlock()
}

func (s *Session) handleMedia(ev streamEvent) {
	if ev.Media == nil || ev.Media.Payload == "" {
		return
	}
	// frames arriving before the STT socket opens are dropped, not buffered;
	// the engine tolerates a short warm-up gap
	if !s.transcriber.IsOpen() {
		return
	}
	data, err := base64.StdEncoding.DecodeString(ev.Media.Payload)
	if err != nil {
		log.Printf("[%s] dropping media frame with bad payload: %v", s.id, err)
		return
	}
	if err := s.transcriber.SendAudio(data); err != nil {
		log.Printf("[%s] forwarding audio failed: %v", s.id, err)
	}
}

// handleFinal implements the barge-in protocol: tear down any reply still
// playing, then mint a fresh turn for the new utterance.
func (s *Session) handleFinal(ft FinalTranscript) {
	text := strings.TrimSpace(ft.Text)
	if text == "" {
		return
	}
	s.mu.Lock()
	if s.state == StateClosing || s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	if s.speaking {
		if s.currentTurn != nil {
			s.currentTurn.Cancel()
		}
		s.stopActiveLocked()
		log.Printf("[%s] barge-in: reply playback stopped", s.id)
	}
	tok := s.mintTurnLocked()
	s.mu.Unlock()

	log.Printf("[%s] user said: %s", s.id, text)
	go s.runTurn(tok, text)
}

// maybeGreet fires the greeting exactly once, and only after both the stream
// id and the business context are in place. It is safe to call after every
// event that could make the greeting eligible.
func (s *Session) maybeGreet() {
	s.mu.Lock()
	if s.greeting == "" || s.greetingSent || s.streamSID == "" || !s.contextLoaded {
		s.mu.Unlock()
		return
	}
	// set before synthesis starts so a concurrent signal cannot fire twice
	s.greetingSent = true
	s.history = append(s.history, Turn{Role: RoleAssistant, Text: s.greeting})
	tok := s.mintTurnLocked()
	text := s.greeting
	s.mu.Unlock()

	log.Printf("[%s] sending greeting", s.id)
	go s.speak(tok, text)
}

// mintTurnLocked supersedes the current turn. The previous token is cancelled
// so a stale generation result can never become observable.
func (s *Session) mintTurnLocked() *TurnToken {
	if s.currentTurn != nil {
		s.currentTurn.Cancel()
	}
	tok := newTurnToken(s)
	s.currentTurn = tok
	return tok
}

// stopActiveLocked destroys the in-flight audio stream, if any, and clears
// the speaking state. Callers hold s.mu.
func (s *Session) stopActiveLocked() {
	if s.activeAudio != nil {
		s.activeAudio.Stop()
		s.activeAudio = nil
	}
	s.speaking = false
}

// Shutdown releases the session's resources. Idempotent; invoked on the stop
// event, transport close, and transport error.
func (s *Session) Shutdown(reason string) {
	s.mu.Lock()
	if s.state == StateClosing || s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosing
	if s.currentTurn != nil {
		s.currentTurn.Cancel()
	}
	s.stopActiveLocked()
	cancel := s.cancel
	s.state = StateClosed
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	_ = s.transcriber.Close()
	log.Printf("[%s] session closed: %s", s.id, reason)
}

// State reports the session's lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// StreamSID returns the call's stream identifier, empty before start.
func (s *Session) StreamSID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamSID
}

// Speaking reports whether a synthesized reply is currently being relayed.
func (s *Session) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaking
}

// GreetingSent reports whether the one-shot greeting has fired.
func (s *Session) GreetingSent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.greetingSent
}

// DetectedLanguage returns the sticky language code from finalized utterances.
func (s *Session) DetectedLanguage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detectedLang
}

// History returns a copy of the conversation history.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.history))
	copy(out, s.history)
	return out
}
