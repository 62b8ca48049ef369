package agent

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"
)

// relay frames the audio stream into outbound media messages and emits a
// completion marker at end of playback. A stream that is superseded or
// cancelled mid-flight contributes no further frames and no marker.
func (s *Session) relay(tok *TurnToken, stream *AudioStream) {
	s.mu.Lock()
	if tok != nil && s.currentTurn != tok {
		s.mu.Unlock()
		stream.Stop()
		return
	}
	// at most one stream relays at a time
	if s.speaking {
		s.stopActiveLocked()
	}
	s.speaking = true
	s.activeAudio = stream
	sid := s.streamSID
	s.mu.Unlock()

	var chunkCount, byteCount int
	var streamErr error
	chunks, errs := stream.Chunks, stream.Errs
	for chunks != nil || errs != nil {
		select {
		case b, ok := <-chunks:
			if !ok {
				chunks = nil
				continue
			}
			if len(b) == 0 {
				continue
			}
			s.mu.Lock()
			live := s.speaking && s.activeAudio == stream
			s.mu.Unlock()
			if !live {
				// a later stream superseded this one; drop, don't send
				continue
			}
			if !s.transport.Open() {
				log.Printf("[%s] transport not open, dropping audio chunk", s.id)
				continue
			}
			msg := mediaMessage(sid, base64.StdEncoding.EncodeToString(b))
			if err := s.transport.WriteJSON(msg); err != nil {
				log.Printf("[%s] media write failed: %v", s.id, err)
				continue
			}
			chunkCount++
			byteCount += len(b)
		case e, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if e != nil {
				streamErr = e
			}
		}
	}

	s.mu.Lock()
	still := s.activeAudio == stream
	if still {
		s.speaking = false
		s.activeAudio = nil
	}
	s.mu.Unlock()

	if streamErr != nil {
		if errors.Is(streamErr, context.Canceled) {
			log.Printf("[%s] playback cancelled after %d chunks", s.id, chunkCount)
		} else {
			log.Printf("[%s] audio stream error after %d chunks: %v", s.id, chunkCount, streamErr)
		}
		return
	}
	if !still {
		return
	}

	log.Printf("[%s] playback complete: %d chunks, %d bytes", s.id, chunkCount, byteCount)
	name := fmt.Sprintf("audio_complete_%d_%d", atomic.AddInt64(&s.markSeq, 1), time.Now().UnixMilli())
	if !s.transport.Open() {
		log.Printf("[%s] transport not open, dropping completion marker", s.id)
		return
	}
	if err := s.transport.WriteJSON(markMessage(sid, name)); err != nil {
		log.Printf("[%s] marker write failed: %v", s.id, err)
	}
}
