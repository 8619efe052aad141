// Package lookup implements the interactive package lookup: search, candidate
// list, timed selection, detail fetch and the final detail card.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pkgbot/pkg/chat"
	"pkgbot/pkg/logger"
	"pkgbot/pkg/registry"
)

// User-facing replies.
const (
	errInvalidResponseText = "The registry returned an invalid response, please try again later."
	errUnknownText         = "Something went wrong while looking that up."
)

func noResultsText(term string) string {
	return fmt.Sprintf("No results found for %q.", term)
}

// Outcome is how a lookup run ended.
type Outcome int

const (
	// OutcomeRendered means the list message was replaced by the detail card.
	OutcomeRendered Outcome = iota
	// OutcomeNoResults means the search matched nothing.
	OutcomeNoResults
	// OutcomeTimedOut means no valid selection arrived; the list stays as posted.
	OutcomeTimedOut
	// OutcomeInvalidResponse means the detail endpoint returned garbage.
	OutcomeInvalidResponse
	// OutcomeFailed covers every other error.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRendered:
		return "rendered"
	case OutcomeNoResults:
		return "no_results"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeInvalidResponse:
		return "invalid_response"
	default:
		return "failed"
	}
}

// Settings are read at the start of every run so config reloads apply to new lookups.
type Settings struct {
	SelectionTimeout time.Duration
	MaxResults       int
	List             ListOptions
}

// SettingsFunc supplies the settings for a run.
type SettingsFunc func() Settings

// StaticSettings returns a SettingsFunc that always yields s.
func StaticSettings(s Settings) SettingsFunc {
	return func() Settings { return s }
}

// Request is one lookup invocation.
type Request struct {
	Provider registry.Provider
	Surface  chat.Surface
	Term     string
	// ChannelID and MessageID identify the triggering message; replies thread to it.
	ChannelID string
	MessageID string
	UserID    string
}

// Pipeline runs lookups. It holds no per-run state and is safe for concurrent use.
type Pipeline struct {
	awaiter  Awaiter
	log      *logger.Logger
	settings SettingsFunc
	now      func() time.Time
}

// NewPipeline creates a pipeline. A nil settings func uses the defaults.
func NewPipeline(awaiter Awaiter, log *logger.Logger, settings SettingsFunc) *Pipeline {
	if settings == nil {
		settings = StaticSettings(Settings{})
	}
	return &Pipeline{
		awaiter:  awaiter,
		log:      log,
		settings: settings,
		now:      time.Now,
	}
}

func (s Settings) withDefaults() Settings {
	if s.SelectionTimeout <= 0 {
		s.SelectionTimeout = DefaultSelectionTimeout
	}
	if s.MaxResults <= 0 || s.MaxResults > MaxCandidates {
		s.MaxResults = MaxCandidates
	}
	s.List = s.List.withDefaults()
	return s
}

// Run executes search, selection and detail for req. Expected terminal states
// (no results, timeout, invalid detail) return a nil error; anything else is
// logged, answered with a generic reply and returned.
func (p *Pipeline) Run(ctx context.Context, req Request) (Outcome, error) {
	settings := p.settings().withDefaults()
	log := p.log.WithFields(
		zap.String("run_id", uuid.NewString()),
		zap.String("provider", req.Provider.Name()),
		zap.String("term", req.Term),
		zap.String("user_id", req.UserID),
	)
	log.Info("Starting lookup")

	outcome, err := p.run(ctx, log, req, settings)
	if err != nil {
		log.Error("Lookup failed", zap.Error(err))
		if replyErr := req.Surface.Reply(ctx, req.ChannelID, req.MessageID, errUnknownText); replyErr != nil {
			log.Warn("Failed to send failure reply", zap.Error(replyErr))
		}
		return OutcomeFailed, err
	}

	log.Info("Lookup finished", zap.Stringer("outcome", outcome))
	return outcome, nil
}

func (p *Pipeline) run(ctx context.Context, log *logger.Logger, req Request, settings Settings) (Outcome, error) {
	ref, pending, err := p.search(ctx, req, settings)
	if errors.Is(err, registry.ErrEmptyResult) {
		if err := req.Surface.Reply(ctx, req.ChannelID, req.MessageID, noResultsText(req.Term)); err != nil {
			return OutcomeFailed, fmt.Errorf("reply no results: %w", err)
		}
		return OutcomeNoResults, nil
	}
	if err != nil {
		return OutcomeFailed, err
	}

	defer pending.Close()

	selection, err := pending.Wait(ctx, settings.SelectionTimeout)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("await selection: %w", err)
	}
	if selection.TimedOut() {
		log.Debug("No selection before timeout", zap.String("message_id", ref.MessageID))
		return OutcomeTimedOut, nil
	}
	log.Debug("Candidate selected",
		zap.String("package", selection.Candidate.Name),
		zap.Int("index", selection.Index))

	card, err := p.detail(ctx, req.Provider, selection.Candidate.Name)
	if errors.Is(err, registry.ErrInvalidResponse) {
		log.Warn("Invalid detail response", zap.Error(err))
		if err := req.Surface.Reply(ctx, req.ChannelID, req.MessageID, errInvalidResponseText); err != nil {
			return OutcomeFailed, fmt.Errorf("reply invalid response: %w", err)
		}
		return OutcomeInvalidResponse, nil
	}
	if err != nil {
		return OutcomeFailed, err
	}

	if err := req.Surface.Edit(ctx, ref, card); err != nil {
		return OutcomeFailed, fmt.Errorf("edit list message: %w", err)
	}
	return OutcomeRendered, nil
}

// search posts the candidate list, arms the selection and then offers the
// selection affordances. On success the caller owns the returned Pending.
func (p *Pipeline) search(ctx context.Context, req Request, settings Settings) (chat.MessageRef, Pending, error) {
	resp, err := req.Provider.Search(ctx, req.Term)
	if err != nil {
		return chat.MessageRef{}, nil, err
	}
	if len(resp.Results) == 0 {
		return chat.MessageRef{}, nil, registry.NewError(req.Provider.Name(), registry.ErrEmptyResult, req.Term)
	}

	candidates := resp.Results
	if len(candidates) > settings.MaxResults {
		candidates = candidates[:settings.MaxResults]
	}
	listing := RenderCandidates(candidates, settings.List)
	if listing.Shown == 0 {
		return chat.MessageRef{}, nil, fmt.Errorf("no candidate fits in %d characters", settings.List.MaxLength)
	}
	candidates = candidates[:listing.Shown]

	ref, err := req.Surface.Send(ctx, req.ChannelID, ListCard(req.Provider, req.Term, resp.Total, listing))
	if err != nil {
		return chat.MessageRef{}, nil, fmt.Errorf("send list message: %w", err)
	}
	pending := p.awaiter.Watch(ref, req.UserID, candidates)
	if err := req.Surface.OfferChoices(ctx, ref, len(candidates)); err != nil {
		pending.Close()
		return chat.MessageRef{}, nil, fmt.Errorf("offer choices: %w", err)
	}
	return ref, pending, nil
}

// detail fetches the chosen package and builds its card.
func (p *Pipeline) detail(ctx context.Context, provider registry.Provider, name string) (chat.Card, error) {
	detail, err := provider.Detail(ctx, name)
	if err != nil {
		return chat.Card{}, err
	}
	release := ResolveLatest(detail.Versions, p.now())
	return DetailCard(provider, detail, release), nil
}
