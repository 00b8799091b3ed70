package extension

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"eliteapply/internal/coverletter"
	"eliteapply/internal/database"
)

var (
	// ErrNoResult is returned when the user has not generated anything yet.
	ErrNoResult = errors.New("no generation result stored")
	// ErrEmptyAPIKey rejects saving blank settings.
	ErrEmptyAPIKey = errors.New("Please enter an API key.")
)

// KV is the subset of *redis.Client used for the per-user blobs.
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Settings is the per-user extension configuration.
type Settings struct {
	OpenRouterAPIKey string `json:"openrouterApiKey"`
}

// MaskedSettings is what the API returns; the key itself never leaves the server.
type MaskedSettings struct {
	OpenRouterAPIKey string `json:"openrouterApiKey"`
	HasAPIKey        bool   `json:"hasApiKey"`
}

func settingsKey(owner database.UserID) string {
	return fmt.Sprintf("eliteapply_settings:%d", owner)
}

func lastResultKey(owner database.UserID) string {
	return fmt.Sprintf("eliteapply_last_result:%d", owner)
}

// Store keeps settings and the single last-result slot in Redis, without expiry.
type Store struct {
	kv KV
}

func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// Settings returns stored settings, or zero settings when none were saved.
func (s *Store) Settings(ctx context.Context, owner database.UserID) (Settings, error) {
	var out Settings
	raw, err := s.kv.Get(ctx, settingsKey(owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return out, nil
	}
	if err != nil {
		return out, fmt.Errorf("load extension settings: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode extension settings: %w", err)
	}
	return out, nil
}

// SaveSettings stores a trimmed, non-empty API key.
func (s *Store) SaveSettings(ctx context.Context, owner database.UserID, in Settings) error {
	in.OpenRouterAPIKey = strings.TrimSpace(in.OpenRouterAPIKey)
	if in.OpenRouterAPIKey == "" {
		return ErrEmptyAPIKey
	}
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, settingsKey(owner), data, 0).Err(); err != nil {
		return fmt.Errorf("save extension settings: %w", err)
	}
	return nil
}

// LastResult returns the most recent generation.
func (s *Store) LastResult(ctx context.Context, owner database.UserID) (*coverletter.Result, error) {
	raw, err := s.kv.Get(ctx, lastResultKey(owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoResult
	}
	if err != nil {
		return nil, fmt.Errorf("load last result: %w", err)
	}
	var out coverletter.Result
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode last result: %w", err)
	}
	return &out, nil
}

// SaveLastResult overwrites the slot.
func (s *Store) SaveLastResult(ctx context.Context, owner database.UserID, r *coverletter.Result) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, lastResultKey(owner), data, 0).Err(); err != nil {
		return fmt.Errorf("save last result: %w", err)
	}
	return nil
}

// Mask keeps a short prefix and suffix of the key.
func Mask(s Settings) MaskedSettings {
	key := s.OpenRouterAPIKey
	out := MaskedSettings{HasAPIKey: key != ""}
	switch {
	case key == "":
	case len(key) <= 10:
		out.OpenRouterAPIKey = strings.Repeat("*", len(key))
	default:
		out.OpenRouterAPIKey = key[:6] + strings.Repeat("*", 8) + key[len(key)-4:]
	}
	return out
}
