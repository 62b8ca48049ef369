package profile

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/supabase-community/supabase-go"
)

const businessInfoTable = "business_info"

// SupabaseStore reads and writes the business record in Supabase. The voice
// pipeline reads it at call start; the dashboard API reads and upserts it.
type SupabaseStore struct {
	client *supabase.Client
}

func NewSupabaseStore(url, serviceRoleKey string) (*SupabaseStore, error) {
	client, err := supabase.NewClient(url, serviceRoleKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("supabase: create client: %w", err)
	}
	return &SupabaseStore{client: client}, nil
}

// Get returns the single business record. A missing row is an error; callers
// fall back to a generic profile.
func (s *SupabaseStore) Get(ctx context.Context) (BusinessInfo, error) {
	if err := ctx.Err(); err != nil {
		return BusinessInfo{}, err
	}
	data, _, err := s.client.From(businessInfoTable).Select("*", "", false).Limit(1, "").Execute()
	if err != nil {
		return BusinessInfo{}, fmt.Errorf("supabase: query %s: %w", businessInfoTable, err)
	}
	var rows []BusinessInfo
	if err := json.Unmarshal(data, &rows); err != nil {
		return BusinessInfo{}, fmt.Errorf("supabase: decode %s: %w", businessInfoTable, err)
	}
	if len(rows) == 0 {
		return BusinessInfo{}, fmt.Errorf("supabase: no %s row", businessInfoTable)
	}
	return rows[0], nil
}

// Upsert replaces the business record with info.
func (s *SupabaseStore) Upsert(ctx context.Context, info BusinessInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, _, err := s.client.From(businessInfoTable).Insert(info, true, "", "", "").Execute()
	if err != nil {
		return fmt.Errorf("supabase: upsert %s: %w", businessInfoTable, err)
	}
	return nil
}
