// Package config loads environment configuration for the voice agent server.
package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	HTTPAddress string
	PublicHost  string

	DeepgramAPIKey   string
	DeepgramModel    string
	DeepgramLanguage string

	OpenAIAPIKey string
	OpenAIModel  string

	ElevenLabsKey     string
	ElevenLabsVoiceID string
	ElevenLabsModelID string

	SupabaseURL    string
	SupabaseKey    string
	SupabaseBucket string

	CloverAPIURL     string
	CloverAPIKey     string
	CloverMerchantID string

	TwilioAccountSID string
	TwilioAuthToken  string
}

// Load reads environment variables and returns Config with sane defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded, using environment as-is")
	}

	addr := os.Getenv("HTTP_ADDRESS")
	if addr == "" {
		addr = ":8080"
	}

	publicHost := os.Getenv("PUBLIC_HOST")
	if publicHost == "" {
		log.Println("Warning: PUBLIC_HOST not set - TwiML stream URLs will use the request host")
	}

	deepgramKey := os.Getenv("DEEPGRAM_API_KEY")
	if deepgramKey == "" {
		log.Println("Warning: DEEPGRAM_API_KEY not set - transcription will not work")
	}

	openAIKey := os.Getenv("OPENAI_API_KEY")
	if openAIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set - reply generation will not work")
	}
	openAIModel := os.Getenv("OPENAI_MODEL")
	if openAIModel == "" {
		openAIModel = "gpt-4o"
	}

	elevenKey := os.Getenv("ELEVENLABS_API_KEY")
	if elevenKey == "" {
		log.Println("Warning: ELEVENLABS_API_KEY not set - TTS will not work")
	}
	voiceID := os.Getenv("ELEVENLABS_VOICE_ID")
	if voiceID == "" {
		log.Println("Warning: ELEVENLABS_VOICE_ID not set - set a concrete voice ID from your ElevenLabs dashboard")
	}

	supabaseURL := os.Getenv("SUPABASE_URL")
	supabaseKey := os.Getenv("SUPABASE_SERVICE_ROLE_KEY")
	if supabaseURL == "" || supabaseKey == "" {
		log.Println("Warning: SUPABASE_URL/SUPABASE_SERVICE_ROLE_KEY not set - calls will use a generic business profile")
	}
	supabaseBucket := os.Getenv("SUPABASE_RECORDINGS_BUCKET")
	if supabaseBucket == "" {
		supabaseBucket = "call-recordings"
	}

	twilioSID := os.Getenv("TWILIO_ACCOUNT_SID")
	twilioToken := os.Getenv("TWILIO_AUTH_TOKEN")
	if twilioSID == "" || twilioToken == "" {
		log.Println("Warning: TWILIO_ACCOUNT_SID/TWILIO_AUTH_TOKEN not set - signature validation and call recording disabled")
	}

	log.Printf("config: HTTP_ADDRESS=%s", addr)
	return Config{
		HTTPAddress:       addr,
		PublicHost:        publicHost,
		DeepgramAPIKey:    deepgramKey,
		DeepgramModel:     os.Getenv("DEEPGRAM_MODEL"),
		DeepgramLanguage:  os.Getenv("DEEPGRAM_LANGUAGE"),
		OpenAIAPIKey:      openAIKey,
		OpenAIModel:       openAIModel,
		ElevenLabsKey:     elevenKey,
		ElevenLabsVoiceID: voiceID,
		ElevenLabsModelID: os.Getenv("ELEVENLABS_MODEL_ID"),
		SupabaseURL:       supabaseURL,
		SupabaseKey:       supabaseKey,
		SupabaseBucket:    supabaseBucket,
		CloverAPIURL:      os.Getenv("CLOVER_API_URL"),
		CloverAPIKey:      os.Getenv("CLOVER_API_KEY"),
		CloverMerchantID:  os.Getenv("CLOVER_MERCHANT_ID"),
		TwilioAccountSID:  twilioSID,
		TwilioAuthToken:   twilioToken,
	}
}
