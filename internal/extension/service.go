// Package extension implements the browser extension's message surface:
// page scraping, cover-letter generation, settings and the last-result cache.
package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"eliteapply/internal/coverletter"
	"eliteapply/internal/database"
	"eliteapply/internal/scraper"
)

// MissingKeyMessage is returned when no OpenRouter key can be resolved.
const MissingKeyMessage = "OpenRouter API key not configured. Go to Settings tab."

// ErrUnknownMessage is returned for message types the backend does not accept.
var ErrUnknownMessage = errors.New("unknown message type")

// Generator is the cover-letter fan-out.
type Generator interface {
	Generate(ctx context.Context, jobDescription string, questions []string, apiKey string) (*coverletter.Result, error)
}

// PageRenderer fetches the HTML of a page the extension could only send by URL.
type PageRenderer interface {
	Render(ctx context.Context, rawURL string) (string, error)
}

// Service answers extension messages on behalf of one user at a time.
type Service struct {
	store     *Store
	generator Generator
	renderer  PageRenderer
	serverKey string
	logger    *slog.Logger
}

// NewService wires the surface. renderer may be nil; serverKey is the fallback
// used when the user has not saved a key.
func NewService(store *Store, generator Generator, renderer PageRenderer, serverKey string, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		generator: generator,
		renderer:  renderer,
		serverKey: strings.TrimSpace(serverKey),
		logger:    logger,
	}
}

// Handle dispatches one request message to its handler.
func (s *Service) Handle(ctx context.Context, owner database.UserID, req Request) (Response, error) {
	switch req.Type {
	case TypeExtractJobDescription:
		return s.extract(ctx, req.Page), nil
	case TypeGenerateCoverLetters:
		return s.generate(ctx, owner, req.JobDescription, req.ScreeningQuestions), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, req.Type)
	}
}

func (s *Service) extract(ctx context.Context, page *scraper.Page) JobDescriptionResult {
	fail := func(msg string) JobDescriptionResult {
		return JobDescriptionResult{Type: TypeJobDescriptionResult, Error: msg}
	}
	if page == nil {
		return fail("page is required")
	}

	p := *page
	if strings.TrimSpace(p.HTML) == "" {
		if s.renderer == nil || p.URL == "" {
			return fail("page html is required")
		}
		html, err := s.renderer.Render(ctx, p.URL)
		if err != nil {
			s.logger.Warn("render job page failed", slog.String("url", p.URL), slog.Any("error", err))
			return fail(err.Error())
		}
		p.HTML = html
	}

	res, err := scraper.Extract(p)
	if err != nil {
		return fail(err.Error())
	}
	out := JobDescriptionResult{Type: TypeJobDescriptionResult, Questions: res.Questions}
	if res.Description != "" {
		out.Data = &res.Description
	}
	return out
}

func (s *Service) generate(ctx context.Context, owner database.UserID, jobDescription string, questions []string) Response {
	if _, err := coverletter.ValidateDescription(jobDescription); err != nil {
		return generationError(err.Error())
	}

	apiKey, err := s.resolveAPIKey(ctx, owner)
	if err != nil {
		s.logger.Error("resolve api key failed", slog.Any("error", err))
		return generationError(err.Error())
	}
	if apiKey == "" {
		return generationError(MissingKeyMessage)
	}

	result, err := s.generator.Generate(ctx, jobDescription, questions, apiKey)
	if err != nil {
		return generationError(err.Error())
	}

	if err := s.store.SaveLastResult(ctx, owner, result); err != nil {
		s.logger.Warn("cache last result failed", slog.Uint64("user_id", uint64(owner)), slog.Any("error", err))
	}
	return GenerationResult{Type: TypeGenerationResult, Result: result}
}

func (s *Service) resolveAPIKey(ctx context.Context, owner database.UserID) (string, error) {
	settings, err := s.store.Settings(ctx, owner)
	if err != nil {
		return "", err
	}
	if settings.OpenRouterAPIKey != "" {
		return settings.OpenRouterAPIKey, nil
	}
	return s.serverKey, nil
}

// Settings returns the masked settings.
func (s *Service) Settings(ctx context.Context, owner database.UserID) (MaskedSettings, error) {
	settings, err := s.store.Settings(ctx, owner)
	if err != nil {
		return MaskedSettings{}, err
	}
	return Mask(settings), nil
}

// SaveSettings stores the user's key and returns it masked.
func (s *Service) SaveSettings(ctx context.Context, owner database.UserID, in Settings) (MaskedSettings, error) {
	if err := s.store.SaveSettings(ctx, owner, in); err != nil {
		return MaskedSettings{}, err
	}
	in.OpenRouterAPIKey = strings.TrimSpace(in.OpenRouterAPIKey)
	return Mask(in), nil
}

// LastResult returns the cached result of the latest generation, or ErrNoResult.
func (s *Service) LastResult(ctx context.Context, owner database.UserID) (*coverletter.Result, error) {
	return s.store.LastResult(ctx, owner)
}
