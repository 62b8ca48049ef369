package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HTTP_ADDRESS", "")
	t.Setenv("OPENAI_MODEL", "")
	t.Setenv("SUPABASE_RECORDINGS_BUCKET", "")

	cfg := Load()
	if cfg.HTTPAddress != ":8080" {
		t.Fatalf("HTTPAddress = %q", cfg.HTTPAddress)
	}
	if cfg.OpenAIModel != "gpt-4o" {
		t.Fatalf("OpenAIModel = %q", cfg.OpenAIModel)
	}
	if cfg.SupabaseBucket != "call-recordings" {
		t.Fatalf("SupabaseBucket = %q", cfg.SupabaseBucket)
	}
}

func TestLoadExplicitValues(t *testing.T) {
	t.Setenv("HTTP_ADDRESS", ":9000")
	t.Setenv("PUBLIC_HOST", "agent.example.com")
	t.Setenv("DEEPGRAM_API_KEY", "dg")
	t.Setenv("DEEPGRAM_MODEL", "nova-3")
	t.Setenv("OPENAI_API_KEY", "oa")
	t.Setenv("OPENAI_MODEL", "gpt-4o-mini")
	t.Setenv("ELEVENLABS_API_KEY", "el")
	t.Setenv("ELEVENLABS_VOICE_ID", "v1")
	t.Setenv("SUPABASE_URL", "https://x.supabase.co")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "sk")
	t.Setenv("SUPABASE_RECORDINGS_BUCKET", "rec")
	t.Setenv("CLOVER_API_KEY", "cl")
	t.Setenv("CLOVER_MERCHANT_ID", "M1")
	t.Setenv("TWILIO_ACCOUNT_SID", "AC1")
	t.Setenv("TWILIO_AUTH_TOKEN", "tok")

	cfg := Load()
	if cfg.HTTPAddress != ":9000" || cfg.PublicHost != "agent.example.com" {
		t.Fatalf("address config wrong: %+v", cfg)
	}
	if cfg.DeepgramAPIKey != "dg" || cfg.DeepgramModel != "nova-3" {
		t.Fatalf("deepgram config wrong: %+v", cfg)
	}
	if cfg.OpenAIModel != "gpt-4o-mini" {
		t.Fatalf("openai model not honored: %q", cfg.OpenAIModel)
	}
	if cfg.SupabaseBucket != "rec" || cfg.CloverMerchantID != "M1" || cfg.TwilioAccountSID != "AC1" {
		t.Fatalf("config wrong: %+v", cfg)
	}
}
