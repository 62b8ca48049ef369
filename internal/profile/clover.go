package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/anazari96/voice-agent/internal/agent"
)

// CloverClient fetches the merchant's item catalog from the Clover POS API.
type CloverClient struct {
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string
	MerchantID string
}

func NewCloverClient(baseURL, apiKey, merchantID string) *CloverClient {
	if baseURL == "" {
		baseURL = "https://api.clover.com"
	}
	return &CloverClient{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		BaseURL:    baseURL,
		APIKey:     apiKey,
		MerchantID: merchantID,
	}
}

type cloverItem struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

type cloverItemsResponse struct {
	Elements []cloverItem `json:"elements"`
}

// Items returns up to 100 catalog items.
func (c *CloverClient) Items(ctx context.Context) ([]agent.CatalogItem, error) {
	if c.APIKey == "" || c.MerchantID == "" {
		return nil, fmt.Errorf("clover: api key or merchant id missing")
	}
	url := fmt.Sprintf("%s/v3/merchants/%s/items?limit=100", c.BaseURL, c.MerchantID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("clover: fetch items: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("clover: status=%d body=%s", resp.StatusCode, string(b))
	}

	var parsed cloverItemsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("clover: decode items: %w", err)
	}
	items := make([]agent.CatalogItem, 0, len(parsed.Elements))
	for _, el := range parsed.Elements {
		if el.Name == "" {
			continue
		}
		items = append(items, agent.CatalogItem{Name: el.Name, PriceCents: el.Price})
	}
	return items, nil
}
