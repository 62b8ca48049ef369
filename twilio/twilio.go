// Package twilio answers inbound calls with a media-stream TwiML document
// and archives call recordings.
package twilio

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"github.com/twilio/twilio-go/twiml"

	"github.com/anazari96/voice-agent/internal/middleware"
)

type Storage interface {
	Upload(key, contentType string, data []byte) error
}

type Config struct {
	AccountSID string
	AuthToken  string
	// PublicHost overrides the request host in generated URLs, for deployments
	// behind a tunnel or load balancer.
	PublicHost string
}

type Service struct {
	config     Config
	storage    Storage
	client     *twilio.RestClient
	httpClient *http.Client
}

func New(config Config, storage Storage) *Service {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: config.AccountSID,
		Password: config.AuthToken,
	})

	return &Service{
		config:     config,
		storage:    storage,
		client:     client,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *Service) RegisterHandlers(e *echo.Echo) {
	auth := middleware.TwilioAuth(func() string { return s.config.AuthToken })
	e.POST("/twilio/voice", s.handleVoice, auth)
	e.POST("/twilio/recording-status", s.handleRecordingStatus, auth)
}

// handleVoice answers an inbound call: it returns TwiML connecting the call's
// media to our websocket endpoint and kicks off a recording.
func (s *Service) handleVoice(c echo.Context) error {
	params, _ := c.Get("twilioParams").(map[string]string)
	callSID := params["CallSid"]
	from := params["From"]
	log.Printf("Inbound call from %s, CallSid: %s", from, callSID)

	streamURL := fmt.Sprintf("wss://%s/streams", s.host(c.Request()))
	connect := &twiml.VoiceConnect{
		InnerElements: []twiml.Element{
			&twiml.VoiceStream{Url: streamURL},
		},
	}
	doc, err := twiml.Voice([]twiml.Element{connect})
	if err != nil {
		log.Printf("TwiML render failed: %v", err)
		return c.String(http.StatusInternalServerError, "TwiML error")
	}

	if callSID != "" && s.config.AccountSID != "" {
		callbackURL := s.buildURL(c.Request(), "/twilio/recording-status")
		go func() {
			if err := s.startRecording(callSID, callbackURL); err != nil {
				log.Printf("Could not start recording for %s: %v", callSID, err)
			}
		}()
	}

	return c.Blob(http.StatusOK, "text/xml", []byte(doc))
}

func (s *Service) handleRecordingStatus(c echo.Context) error {
	params, _ := c.Get("twilioParams").(map[string]string)

	status := params["RecordingStatus"]
	recordingURL := params["RecordingUrl"]
	recordingSID := params["RecordingSid"]
	log.Printf("Recording status: %s, SID: %s", status, recordingSID)

	if status == "completed" && recordingURL != "" {
		filename := fmt.Sprintf("recording_%s_%d.wav", recordingSID, time.Now().Unix())
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.uploadRecording(ctx, recordingURL, filename); err != nil {
				log.Printf("Failed to upload recording: %v", err)
			} else {
				log.Printf("Recording uploaded: %s", filename)
			}
		}()
	}

	return c.String(http.StatusOK, "OK")
}

func (s *Service) startRecording(callSID, callbackURL string) error {
	params := &twilioApi.CreateCallRecordingParams{}
	params.SetRecordingStatusCallback(callbackURL)
	params.SetRecordingStatusCallbackMethod("POST")
	params.SetRecordingStatusCallbackEvent([]string{"completed"})
	params.SetRecordingChannels("dual")

	_, err := s.client.Api.CreateCallRecording(callSID, params)
	if err != nil {
		return fmt.Errorf("failed to start recording: %w", err)
	}
	return nil
}

func (s *Service) uploadRecording(ctx context.Context, recordingURL, filename string) error {
	if s.storage == nil {
		return fmt.Errorf("no recording storage configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, recordingURL+".wav", nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(s.config.AccountSID, s.config.AuthToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download recording failed: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return s.storage.Upload(filename, "audio/wav", data)
}

func (s *Service) host(r *http.Request) string {
	if s.config.PublicHost != "" {
		return s.config.PublicHost
	}
	if h := r.Header.Get("X-Forwarded-Host"); h != "" {
		return h
	}
	return r.Host
}

func (s *Service) buildURL(r *http.Request, path string) string {
	host := s.host(r)
	scheme := "https"
	if strings.Contains(host, "localhost") || strings.Contains(host, "127.0.0.1") {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s%s", scheme, host, path)
}
