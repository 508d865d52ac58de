package service

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"genmarket-bot/internal/config"
	"genmarket-bot/internal/generator"
	"genmarket-bot/internal/models"
)

const (
	minPromptChars = 3
	maxPromptChars = 1000
)

// Generator is the upstream generation API surface the service needs.
// Satisfied by generator.Client.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (*generator.Result, error)
	GenerateImage(ctx context.Context, prompt string) (*generator.Result, error)
	GenerateSpeech(ctx context.Context, text string) (*generator.Result, error)
}

// Uploader moves binary artifacts to object storage. Satisfied by
// storage.Uploader; nil disables uploads and the raw bytes are delivered
// directly.
type Uploader interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}

// GenerationService runs the paid flows: price the request, debit through
// SpendService, call the upstream generator, settle the order. Money moves
// before work starts; failed work is refunded.
type GenerationService struct {
	cfg      config.Config
	log      *slog.Logger
	spend    *SpendService
	client   Generator
	uploader Uploader
}

func NewGenerationService(cfg config.Config, log *slog.Logger, spend *SpendService, client Generator, uploader Uploader) *GenerationService {
	return &GenerationService{
		cfg:      cfg,
		log:      log,
		spend:    spend,
		client:   client,
		uploader: uploader,
	}
}

// Quote is the price snapshot taken when the user enters a generation flow.
// The settled cost comes from these values, never from live config, so a
// config change mid-flight cannot reprice a started request.
type Quote struct {
	Cost     decimal.Decimal
	LongCost decimal.Decimal
}

// QuoteFor snapshots the current prices for a category. Audio carries both
// tiers because the tier is only known once the prompt arrives.
func (s *GenerationService) QuoteFor(category models.OrderCategory) Quote {
	switch category {
	case models.CategoryText:
		return Quote{Cost: s.cfg.PriceText}
	case models.CategoryImage:
		return Quote{Cost: s.cfg.PriceImage}
	case models.CategoryAudio:
		return Quote{Cost: s.cfg.PriceAudioShort, LongCost: s.cfg.PriceAudioLong}
	default:
		return Quote{}
	}
}

// Resolve picks the final cost from a snapshot for the given prompt.
func (q Quote) Resolve(category models.OrderCategory, prompt string, shortMaxChars int) decimal.Decimal {
	if category == models.CategoryAudio && utf8.RuneCountInString(prompt) > shortMaxChars {
		return q.LongCost
	}
	return q.Cost
}

// Run executes one paid generation end to end. The cost must come from a
// Quote resolved by the caller. On upstream failure the debit is released and
// ErrUpstreamUnavailable is returned.
func (s *GenerationService) Run(ctx context.Context, account *models.Account, category models.OrderCategory, prompt string, cost decimal.Decimal) (*models.Order, *generator.Result, error) {
	if n := utf8.RuneCountInString(prompt); n < minPromptChars || n > maxPromptChars {
		return nil, nil, fmt.Errorf("%w: prompt length %d outside [%d, %d]", ErrInvalidRequest, n, minPromptChars, maxPromptChars)
	}

	auth, err := s.spend.Authorize(ctx, account, cost)
	if err != nil {
		return nil, nil, err
	}

	result, err := s.generate(ctx, category, prompt)
	if err != nil {
		if relErr := s.spend.Release(ctx, auth); relErr != nil {
			s.log.Error("release after failed generation", "account_id", account.ID, "cost", cost, "error", relErr)
		} else {
			account.Balance = account.Balance.Add(cost)
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	stored := result.Summary
	if len(result.Data) > 0 && s.uploader != nil {
		url, err := s.uploader.Upload(ctx, result.Data, result.ContentType)
		if err != nil {
			s.log.Error("upload artifact", "account_id", account.ID, "error", err)
		} else {
			stored = url
		}
	}

	order, err := s.spend.Settle(ctx, auth, category, prompt, stored)
	if err != nil {
		account.Balance = account.Balance.Add(cost)
		return nil, nil, err
	}
	s.log.Info("generation settled", "account_id", account.ID, "category", category, "cost", cost, "order_id", order.ID)
	return order, result, nil
}

func (s *GenerationService) generate(ctx context.Context, category models.OrderCategory, prompt string) (*generator.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()

	switch category {
	case models.CategoryText:
		return s.client.GenerateText(ctx, prompt)
	case models.CategoryImage:
		return s.client.GenerateImage(ctx, prompt)
	case models.CategoryAudio:
		return s.client.GenerateSpeech(ctx, prompt)
	default:
		return nil, fmt.Errorf("unknown category %q", category)
	}
}
