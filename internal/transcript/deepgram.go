// Package transcript streams caller audio to a live speech-to-text engine
// and surfaces finalized utterances.
package transcript

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	msginterfaces "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	clientinterfaces "github.com/deepgram/deepgram-go-sdk/pkg/client/interfaces/v1"
	"github.com/deepgram/deepgram-go-sdk/pkg/client/listen"

	"github.com/anazari96/voice-agent/internal/agent"
)

// liveClient is the slice of the Deepgram websocket client we use.
type liveClient interface {
	Connect() bool
	WriteBinary([]byte) error
	Stop()
}

// DeepgramService streams mu-law 8kHz telephone audio to Deepgram's live
// transcription API and emits finalized utterances on Finals.
type DeepgramService struct {
	ctx      context.Context
	apiKey   string
	model    string
	language string

	mu       sync.RWMutex
	client   liveClient
	open     bool
	closed   bool
	openedCh chan struct{}
	onceOpen sync.Once
	finals   chan agent.FinalTranscript
}

// NewDeepgramService builds a transcriber for one call. ctx bounds the
// websocket's lifetime; cancelling it tears the connection down.
func NewDeepgramService(ctx context.Context, apiKey, model, language string) *DeepgramService {
	if model == "" {
		model = "nova-2"
	}
	if language == "" {
		language = "en-US"
	}
	return &DeepgramService{
		ctx:      ctx,
		apiKey:   apiKey,
		model:    model,
		language: language,
		openedCh: make(chan struct{}),
		finals:   make(chan agent.FinalTranscript, 16),
	}
}

// Connect dials the live transcription socket. Safe to call once per service.
func (s *DeepgramService) Connect() error {
	if s.apiKey == "" {
		return fmt.Errorf("deepgram: API key missing")
	}

	options := &clientinterfaces.LiveTranscriptionOptions{
		Model:       s.model,
		Language:    s.language,
		SmartFormat: true,
		Encoding:    "mulaw",
		SampleRate:  8000,
		Channels:    1,
		Endpointing: "300",
	}

	dg, err := listen.NewWSUsingCallback(s.ctx, s.apiKey, &clientinterfaces.ClientOptions{}, options, s.callback())
	if err != nil {
		return fmt.Errorf("deepgram: create ws client: %w", err)
	}
	if ok := dg.Connect(); !ok {
		return fmt.Errorf("deepgram: connect failed")
	}

	s.mu.Lock()
	s.client = dg
	s.mu.Unlock()
	return nil
}

// SendAudio forwards one mu-law frame. Frames sent before the socket opens
// are dropped by the caller via IsOpen.
func (s *DeepgramService) SendAudio(data []byte) error {
	s.mu.RLock()
	client, open := s.client, s.open
	s.mu.RUnlock()
	if client == nil || !open {
		return fmt.Errorf("deepgram: not connected")
	}
	return client.WriteBinary(data)
}

// IsOpen reports whether the live socket is accepting audio.
func (s *DeepgramService) IsOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.open
}

// Opened is closed once when the socket first opens.
func (s *DeepgramService) Opened() <-chan struct{} { return s.openedCh }

// Finals delivers finalized utterances in arrival order.
func (s *DeepgramService) Finals() <-chan agent.FinalTranscript { return s.finals }

// Close tears down the socket. Idempotent.
func (s *DeepgramService) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.open = false
	client := s.client
	s.client = nil
	s.mu.Unlock()

	if client != nil {
		client.Stop()
	}
	close(s.finals)
	log.Printf("deepgram: live transcription closed")
	return nil
}

func (s *DeepgramService) callback() *listenCallback {
	return &listenCallback{
		onOpen: func() {
			s.mu.Lock()
			s.open = true
			s.mu.Unlock()
			s.onceOpen.Do(func() { close(s.openedCh) })
			log.Printf("deepgram: live transcription socket open")
		},
		onFinal: func(text string, confidence float64) {
			s.mu.RLock()
			closed := s.closed
			s.mu.RUnlock()
			if closed {
				return
			}
			select {
			case s.finals <- agent.FinalTranscript{Text: text, Confidence: confidence}:
			default:
				log.Printf("deepgram: finals buffer full, dropping utterance")
			}
		},
		onClose: func() {
			s.mu.Lock()
			s.open = false
			s.mu.Unlock()
		},
		onError: func(msg string) {
			log.Printf("deepgram: live transcription error: %s", msg)
		},
	}
}

// listenCallback adapts Deepgram's event callbacks onto plain funcs.
type listenCallback struct {
	onOpen  func()
	onFinal func(text string, confidence float64)
	onClose func()
	onError func(msg string)
}

func (c *listenCallback) Open(*msginterfaces.OpenResponse) error {
	if c.onOpen != nil {
		c.onOpen()
	}
	return nil
}

func (c *listenCallback) Message(mr *msginterfaces.MessageResponse) error {
	if mr == nil || !mr.IsFinal || len(mr.Channel.Alternatives) == 0 {
		return nil
	}
	alt := mr.Channel.Alternatives[0]
	text := strings.TrimSpace(alt.Transcript)
	if text == "" {
		return nil
	}
	if c.onFinal != nil {
		c.onFinal(text, alt.Confidence)
	}
	return nil
}

func (c *listenCallback) Metadata(*msginterfaces.MetadataResponse) error           { return nil }
func (c *listenCallback) SpeechStarted(*msginterfaces.SpeechStartedResponse) error { return nil }
func (c *listenCallback) UtteranceEnd(*msginterfaces.UtteranceEndResponse) error   { return nil }

func (c *listenCallback) Close(*msginterfaces.CloseResponse) error {
	if c.onClose != nil {
		c.onClose()
	}
	return nil
}

func (c *listenCallback) Error(er *msginterfaces.ErrorResponse) error {
	if c.onError != nil && er != nil {
		c.onError(er.Description)
	}
	return nil
}

func (c *listenCallback) UnhandledEvent(raw []byte) error { return nil }
