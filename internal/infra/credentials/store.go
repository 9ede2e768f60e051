// Package credentials keeps collaborator API keys in Postgres so they can be
// rotated without redeploying.
package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"bannerserver/internal/infra"
	"bannerserver/internal/sqlinline"
)

const (
	ProviderGemini  = "gemini"
	ProviderOpenAI  = "openai"
	ProviderRunware = "runware"
)

// Providers lists the providers whose keys may be stored.
var Providers = []string{ProviderGemini, ProviderOpenAI, ProviderRunware}

type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

func (s *Store) GeminiAPIKey(ctx context.Context) (string, error) {
	return s.APIKey(ctx, ProviderGemini)
}

func (s *Store) OpenAIAPIKey(ctx context.Context) (string, error) {
	return s.APIKey(ctx, ProviderOpenAI)
}

func (s *Store) RunwareAPIKey(ctx context.Context) (string, error) {
	return s.APIKey(ctx, ProviderRunware)
}

// APIKey returns the stored key, or "" when none is stored.
func (s *Store) APIKey(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

// SetAPIKey stores key for provider, replacing any previous value.
func (s *Store) SetAPIKey(ctx context.Context, provider, key string) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if !known(provider) {
		return fmt.Errorf("unknown provider %q", provider)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%s api key is required", provider)
	}
	return s.upsert(ctx, provider, key, map[string]any{
		"rotated_at": time.Now().UTC().Format(time.RFC3339),
		"key_suffix": suffix(key, 4),
	})
}

func suffix(s string, n int) string {
	if len(s) <= n {
		return ""
	}
	return s[len(s)-n:]
}

func known(provider string) bool {
	for _, p := range Providers {
		if p == provider {
			return true
		}
	}
	return false
}

func (s *Store) upsert(ctx context.Context, provider, token string, props map[string]any) error {
	payload := props
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, raw)
	return err
}
