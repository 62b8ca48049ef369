package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
)

// fallbackSystemPrompt seeds the conversation when the profile store is
// unreachable; bootstrap failure must never block the call.
const fallbackSystemPrompt = "You are a helpful assistant. Keep responses concise and conversational."

// loadContext runs once at connect time, independent of the transport's
// start event, and races freely against it: whichever readiness signal lands
// last triggers the greeting.
func (s *Session) loadContext(ctx context.Context) {
	var (
		prof BusinessProfile
		err  error
	)
	if s.profiles == nil {
		err = errors.New("no profile source configured")
	} else {
		prof, err = s.profiles.Load(ctx)
	}

	sys := fallbackSystemPrompt
	if err != nil {
		log.Printf("[%s] context load failed, using generic profile: %v", s.id, err)
		prof = BusinessProfile{}
	} else {
		sys = systemPrompt(prof)
	}

	s.mu.Lock()
	// the system turn is the first history entry; anything a fast caller said
	// before the profile arrived keeps its conversation order after it
	s.history = append([]Turn{{Role: RoleSystem, Text: sys}}, s.history...)
	s.greeting = strings.TrimSpace(prof.Greeting)
	s.contextLoaded = true
	s.mu.Unlock()

	if err == nil {
		log.Printf("[%s] business context loaded (%d catalog items)", s.id, len(prof.Catalog))
	}
	s.maybeGreet()
}

func systemPrompt(p BusinessProfile) string {
	name := p.Name
	if name == "" {
		name = "Our Business"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You are a helpful AI assistant for %s.", name)
	if p.Description != "" {
		fmt.Fprintf(&b, " Business description: %s.", p.Description)
	}
	if len(p.Catalog) > 0 {
		items := make([]string, 0, len(p.Catalog))
		for _, it := range p.Catalog {
			items = append(items, fmt.Sprintf("%s ($%.2f)", it.Name, float64(it.PriceCents)/100))
		}
		fmt.Fprintf(&b, " Available products: %s.", strings.Join(items, ", "))
	}
	if p.Hours != "" {
		fmt.Fprintf(&b, " Hours: %s.", p.Hours)
	}
	if p.Contact != "" {
		fmt.Fprintf(&b, " Contact: %s.", p.Contact)
	}
	b.WriteString(" Keep responses concise and conversational.")
	return b.String()
}
