// Package tts synthesizes reply text into telephone audio.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/anazari96/voice-agent/internal/agent"
)

// ElevenLabsClient streams mu-law 8kHz audio from the ElevenLabs HTTP
// streaming endpoint, ready to relay to a phone call without transcoding.
type ElevenLabsClient struct {
	HTTPClient *http.Client
	APIKey     string
	VoiceID    string
	ModelID    string
	BaseURL    string
}

func NewElevenLabsClient(apiKey, voiceID, modelID string) *ElevenLabsClient {
	if modelID == "" {
		modelID = "eleven_turbo_v2"
	}
	return &ElevenLabsClient{
		HTTPClient: &http.Client{Timeout: 0},
		APIKey:     apiKey,
		VoiceID:    voiceID,
		ModelID:    modelID,
		BaseURL:    "https://api.elevenlabs.io",
	}
}

// Synthesize starts streaming synthesis for text. The returned stream's Stop
// aborts the HTTP transfer; chunks stop flowing shortly after.
func (e *ElevenLabsClient) Synthesize(ctx context.Context, text, lang string) (*agent.AudioStream, error) {
	if e.APIKey == "" || e.VoiceID == "" {
		return nil, fmt.Errorf("elevenlabs: api key or voice id missing")
	}
	if text == "" {
		return nil, nil
	}

	sctx, cancel := context.WithCancel(ctx)
	chunks := make(chan []byte, 4096)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)
		if err := e.stream(sctx, text, chunks); err != nil {
			errs <- err
		}
	}()

	return agent.NewAudioStream(chunks, errs, cancel), nil
}

func (e *ElevenLabsClient) stream(ctx context.Context, text string, chunks chan<- []byte) error {
	u, err := url.Parse(e.BaseURL)
	if err != nil {
		return fmt.Errorf("elevenlabs: bad base url: %w", err)
	}
	u.Path = "/v1/text-to-speech/" + e.VoiceID + "/stream"
	q := u.Query()
	q.Set("output_format", "ulaw_8000")
	q.Set("optimize_streaming_latency", "2")
	u.RawQuery = q.Encode()

	body := map[string]any{
		"model_id": e.ModelID,
		"text":     text,
		"voice_settings": map[string]any{
			"stability":        0.5,
			"similarity_boost": 0.75,
		},
	}
	buf, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("xi-api-key", e.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("elevenlabs: stream request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("elevenlabs: status=%d body=%s", resp.StatusCode, string(b))
	}

	readBuf := make([]byte, 4096)
	for {
		n, rerr := resp.Body.Read(readBuf)
		if n > 0 {
			out := make([]byte, n)
			copy(out, readBuf[:n])
			select {
			case chunks <- out:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if rerr != nil {
			if rerr == io.EOF {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("elevenlabs: read stream: %w", rerr)
		}
	}
}
