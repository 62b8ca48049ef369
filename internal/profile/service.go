// Package profile loads the business context a call is answered with:
// identity and greeting from the dashboard store, product catalog from the
// point-of-sale system.
package profile

import (
	"context"
	"log"

	"github.com/anazari96/voice-agent/internal/agent"
)

// InfoSource serves the dashboard-managed business record.
type InfoSource interface {
	Get(ctx context.Context) (BusinessInfo, error)
}

// CatalogSource serves the merchant's product list.
type CatalogSource interface {
	Items(ctx context.Context) ([]agent.CatalogItem, error)
}

// BusinessInfo is the dashboard-managed business record.
type BusinessInfo struct {
	BusinessName string `json:"business_name"`
	Description  string `json:"description"`
	Hours        string `json:"hours"`
	ContactInfo  string `json:"contact_info"`
	Greetings    string `json:"greetings"`
}

// Service assembles the full business profile. The catalog is best-effort:
// a POS outage degrades the profile, it does not fail the call.
type Service struct {
	info    InfoSource
	catalog CatalogSource
}

func NewService(info InfoSource, catalog CatalogSource) *Service {
	return &Service{info: info, catalog: catalog}
}

func (s *Service) Load(ctx context.Context) (agent.BusinessProfile, error) {
	info, err := s.info.Get(ctx)
	if err != nil {
		return agent.BusinessProfile{}, err
	}

	var items []agent.CatalogItem
	if s.catalog != nil {
		items, err = s.catalog.Items(ctx)
		if err != nil {
			log.Printf("profile: catalog unavailable, continuing without items: %v", err)
			items = nil
		}
	}

	return agent.BusinessProfile{
		Name:        info.BusinessName,
		Description: info.Description,
		Hours:       info.Hours,
		Contact:     info.ContactInfo,
		Greeting:    info.Greetings,
		Catalog:     items,
	}, nil
}
