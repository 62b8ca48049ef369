package agent

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
)

const (
	generateTimeout   = 10 * time.Second
	synthesizeTimeout = 30 * time.Second
)

// apologyText is spoken when generation fails for a reason other than
// cancellation. Synthesis failures have no audio fallback; those turns end
// silently.
const apologyText = "I'm sorry, I'm having trouble answering right now. Could you say that again?"

// runTurn drives one utterance through detect -> generate -> synthesize ->
// relay, checking token ownership before every observable effect.
func (s *Session) runTurn(tok *TurnToken, utterance string) {
	s.mu.Lock()
	detector := s.detector
	s.mu.Unlock()
	if detector != nil {
		if code, ok := detector.Detect(utterance); ok && code != "" {
			s.mu.Lock()
			// detection updates are token-guarded like every other effect
			if s.currentTurn == tok {
				s.detectedLang = code
			}
			s.mu.Unlock()
		}
	}

	s.mu.Lock()
	if s.currentTurn != tok || tok.Cancelled() {
		s.mu.Unlock()
		return
	}
	s.history = append(s.history, Turn{Role: RoleUser, Text: utterance})
	history := make([]Turn, len(s.history))
	copy(history, s.history)
	lang := s.detectedLang
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(tok.Context(), generateTimeout)
	reply, err := s.responder.Generate(ctx, history, lang)
	cancel()
	if err != nil {
		if tok.Cancelled() || errors.Is(err, context.Canceled) {
			log.Printf("[%s] generation cancelled", s.id)
			return
		}
		log.Printf("[%s] generation failed, falling back: %v", s.id, err)
		reply = apologyText
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		reply = apologyText
	}

	s.mu.Lock()
	if s.currentTurn != tok || tok.Cancelled() {
		s.mu.Unlock()
		return
	}
	s.history = append(s.history, Turn{Role: RoleAssistant, Text: reply})
	s.mu.Unlock()
	log.Printf("[%s] assistant: %s", s.id, reply)

	s.speak(tok, reply)
}

// speak runs the synthesis stage only; the greeting enters the pipeline here.
func (s *Session) speak(tok *TurnToken, text string) {
	s.mu.Lock()
	lang := s.detectedLang
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(tok.Context(), synthesizeTimeout)
	defer cancel()
	stream, err := s.synth.Synthesize(ctx, text, lang)
	if err != nil {
		if tok.Cancelled() || errors.Is(err, context.Canceled) {
			log.Printf("[%s] synthesis cancelled", s.id)
		} else {
			log.Printf("[%s] synthesis failed, turn ends silently: %v", s.id, err)
		}
		return
	}
	if stream == nil {
		log.Printf("[%s] no audio stream from synthesis", s.id)
		return
	}
	if !tok.Current() {
		stream.Stop()
		return
	}
	s.relay(tok, stream)
}
