package agent

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestBootstrap_FailureUsesGenericProfile(t *testing.T) {
	fx := newFixture(t, &fakeProfiles{err: errors.New("db down")})
	waitFor(t, time.Second, "context load", fx.contextLoaded)

	hist := fx.sess.History()
	if len(hist) != 1 || hist[0].Role != RoleSystem {
		t.Fatalf("expected single generic system turn, got %+v", hist)
	}
	if hist[0].Text != fallbackSystemPrompt {
		t.Fatalf("expected fallback prompt, got %q", hist[0].Text)
	}

	// the call still proceeds normally
	fx.sess.HandleMessage(startEvent("MS1"))
	fx.tr.finals <- FinalTranscript{Text: "are you open"}
	waitFor(t, time.Second, "reply mark", func() bool { return len(fx.tp.markNames()) == 1 })
}

func TestBootstrap_SystemTurnPrecedesEarlyUserTurns(t *testing.T) {
	release := make(chan struct{})
	fx := newFixture(t, &fakeProfiles{prof: BusinessProfile{Name: "Deli"}, release: release})
	fx.sess.HandleMessage(startEvent("MS1"))

	fx.tr.finals <- FinalTranscript{Text: "quick question"}
	waitFor(t, time.Second, "early user turn", func() bool { return len(fx.sess.History()) >= 1 })

	close(release)
	waitFor(t, time.Second, "system turn", func() bool {
		h := fx.sess.History()
		return len(h) >= 2 && h[0].Role == RoleSystem
	})
	hist := fx.sess.History()
	if hist[0].Role != RoleSystem {
		t.Fatalf("system turn must be first, got %+v", hist)
	}
	if hist[1].Role != RoleUser || hist[1].Text != "quick question" {
		t.Fatalf("early user turn must keep its position, got %+v", hist)
	}
}

func TestSystemPrompt_IncludesProfileFields(t *testing.T) {
	p := BusinessProfile{
		Name:        "Mario's Pizza",
		Description: "Neapolitan pizzeria",
		Hours:       "Mon-Sat 11am-10pm",
		Contact:     "555-0147",
		Catalog: []CatalogItem{
			{Name: "Margherita", PriceCents: 1250},
			{Name: "Calzone", PriceCents: 999},
		},
	}
	got := systemPrompt(p)
	for _, want := range []string{
		"Mario's Pizza",
		"Neapolitan pizzeria",
		"Margherita ($12.50)",
		"Calzone ($9.99)",
		"Mon-Sat 11am-10pm",
		"555-0147",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("prompt missing %q:\n%s", want, got)
		}
	}
}

func TestSystemPrompt_EmptyProfile(t *testing.T) {
	got := systemPrompt(BusinessProfile{})
	if !strings.Contains(got, "Our Business") {
		t.Fatalf("empty profile must fall back to a generic name: %q", got)
	}
	if strings.Contains(got, "Available products") {
		t.Fatalf("empty catalog must not be mentioned: %q", got)
	}
}
