// Package supabase stores call recordings in a Supabase storage bucket.
package supabase

import (
	"bytes"
	"fmt"

	"github.com/supabase-community/supabase-go"
)

type Config struct {
	URL            string
	ServiceRoleKey string
	Bucket         string
}

type Storage struct {
	client *supabase.Client
	bucket string
}

func New(config Config) (*Storage, error) {
	client, err := supabase.NewClient(config.URL, config.ServiceRoleKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("supabase: create client: %w", err)
	}
	return &Storage{
		client: client,
		bucket: config.Bucket,
	}, nil
}

func (s *Storage) Upload(key, contentType string, data []byte) error {
	_, err := s.client.Storage.UploadFile(s.bucket, key, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to upload to Supabase: %w", err)
	}
	return nil
}
