package lookup

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkgbot/pkg/bus"
	"pkgbot/pkg/chat"
	"pkgbot/pkg/logger"
	"pkgbot/pkg/registry"
)

func searchResponse(n int) *registry.SearchResponse {
	resp := &registry.SearchResponse{Total: n}
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("vendor/pkg%d", i)
		resp.Results = append(resp.Results, registry.SearchResult{Name: name, Description: "desc", URL: "https://pkg/" + name})
	}
	return resp
}

func sampleDetail() *registry.PackageDetail {
	return &registry.PackageDetail{
		Name:        "vendor/pkg1",
		Description: "The chosen one",
		Downloads:   []registry.DownloadCount{{Period: "daily", Count: 3}},
		Maintainers: []registry.Maintainer{{Name: "maint"}},
		Versions: map[string]registry.VersionRecord{
			"1.0.0": {Normalized: "1.0.0.0", Time: now.AddDate(0, 0, -100)},
		},
	}
}

func newTestPipeline(awaiter Awaiter, settings Settings) *Pipeline {
	p := NewPipeline(awaiter, logger.Nop(), StaticSettings(settings))
	p.now = func() time.Time { return now }
	return p
}

func request(provider registry.Provider, surface chat.Surface) Request {
	return Request{
		Provider:  provider,
		Surface:   surface,
		Term:      "pkg",
		ChannelID: "chan",
		MessageID: "trigger",
		UserID:    "requester",
	}
}

func TestPipelineRendersSelectedPackage(t *testing.T) {
	provider := &fakeProvider{searchResp: searchResponse(15), detail: sampleDetail()}
	surface := newFakeSurface()
	awaiter := &fakeAwaiter{index: 1}

	outcome, err := newTestPipeline(awaiter, Settings{SelectionTimeout: 30 * time.Second}).
		Run(context.Background(), request(provider, surface))

	require.NoError(t, err)
	assert.Equal(t, OutcomeRendered, outcome)

	require.Len(t, surface.sent, 1)
	list := surface.sent[0]
	assert.Equal(t, "Packagist: pkg", list.Title)
	assert.Equal(t, "15 packages found", list.Footer)

	ref := chat.MessageRef{ChannelID: "chan", MessageID: "list-1"}
	assert.Equal(t, MaxCandidates, surface.offered[ref])
	assert.Equal(t, ref, awaiter.gotRef)
	assert.Equal(t, "requester", awaiter.gotRequester)
	assert.Len(t, awaiter.gotCandidates, MaxCandidates)
	assert.Equal(t, 30*time.Second, awaiter.gotTimeout)

	assert.Equal(t, []string{"vendor/pkg1"}, provider.detailCalls)
	edited, ok := surface.edits[ref]
	require.True(t, ok)
	assert.Equal(t, "vendor/pkg1 *(1.0.0)*", edited.Title)
	assert.Equal(t, "https://pkg/vendor/pkg1", edited.URL)
	assert.Equal(t, "Downloads: 3 daily\nlast updated 3 months ago", edited.Footer)
	assert.Empty(t, surface.replies)
}

func TestPipelineNoResults(t *testing.T) {
	for name, provider := range map[string]*fakeProvider{
		"provider error": {searchErr: registry.NewError("composer", registry.ErrEmptyResult, "pkg")},
		"empty response": {searchResp: &registry.SearchResponse{}},
	} {
		t.Run(name, func(t *testing.T) {
			surface := newFakeSurface()
			outcome, err := newTestPipeline(&fakeAwaiter{}, Settings{}).Run(context.Background(), request(provider, surface))

			require.NoError(t, err)
			assert.Equal(t, OutcomeNoResults, outcome)
			assert.Empty(t, surface.sent)
			assert.Equal(t, []reply{{"chan", "trigger", `No results found for "pkg".`}}, surface.replies)
		})
	}
}

func TestPipelineTimeoutLeavesListUntouched(t *testing.T) {
	provider := &fakeProvider{searchResp: searchResponse(3), detail: sampleDetail()}
	surface := newFakeSurface()

	outcome, err := newTestPipeline(&fakeAwaiter{index: -1}, Settings{}).Run(context.Background(), request(provider, surface))

	require.NoError(t, err)
	assert.Equal(t, OutcomeTimedOut, outcome)
	assert.Len(t, surface.sent, 1)
	assert.Empty(t, surface.edits)
	assert.Empty(t, surface.replies)
	assert.Empty(t, provider.detailCalls)
}

func TestPipelineInvalidDetail(t *testing.T) {
	provider := &fakeProvider{
		searchResp: searchResponse(3),
		detailErr:  registry.NewError("composer", registry.ErrInvalidResponse, "missing package"),
	}
	surface := newFakeSurface()

	outcome, err := newTestPipeline(&fakeAwaiter{index: 0}, Settings{}).Run(context.Background(), request(provider, surface))

	require.NoError(t, err)
	assert.Equal(t, OutcomeInvalidResponse, outcome)
	assert.Empty(t, surface.edits)
	assert.Equal(t, []reply{{"chan", "trigger", errInvalidResponseText}}, surface.replies)
	assert.Equal(t, []string{"vendor/pkg0"}, provider.detailCalls)
}

func TestPipelineUnknownErrors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name     string
		provider *fakeProvider
		surface  func(*fakeSurface)
		awaiter  *fakeAwaiter
	}{
		{
			name:     "search transport",
			provider: &fakeProvider{searchErr: boom},
			awaiter:  &fakeAwaiter{},
		},
		{
			name:     "send list",
			provider: &fakeProvider{searchResp: searchResponse(2)},
			surface:  func(s *fakeSurface) { s.sendErr = boom },
			awaiter:  &fakeAwaiter{},
		},
		{
			name:     "offer choices",
			provider: &fakeProvider{searchResp: searchResponse(2)},
			surface:  func(s *fakeSurface) { s.offerErr = boom },
			awaiter:  &fakeAwaiter{},
		},
		{
			name:     "awaiter",
			provider: &fakeProvider{searchResp: searchResponse(2)},
			awaiter:  &fakeAwaiter{err: boom},
		},
		{
			name:     "detail transport",
			provider: &fakeProvider{searchResp: searchResponse(2), detailErr: fmt.Errorf("fetch: %w", boom)},
			awaiter:  &fakeAwaiter{index: 0},
		},
		{
			name:     "edit",
			provider: &fakeProvider{searchResp: searchResponse(2), detail: sampleDetail()},
			surface:  func(s *fakeSurface) { s.editErr = boom },
			awaiter:  &fakeAwaiter{index: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			surface := newFakeSurface()
			if tt.surface != nil {
				tt.surface(surface)
			}

			outcome, err := newTestPipeline(tt.awaiter, Settings{}).Run(context.Background(), request(tt.provider, surface))

			assert.Equal(t, OutcomeFailed, outcome)
			assert.ErrorIs(t, err, boom)
			assert.Equal(t, []reply{{"chan", "trigger", errUnknownText}}, surface.replies)
			assert.Empty(t, surface.edits)
		})
	}
}

func TestPipelineKeepsPickMadeWhileOfferingChoices(t *testing.T) {
	b := startBus(t)
	provider := &fakeProvider{searchResp: searchResponse(4), detail: sampleDetail()}
	surface := newFakeSurface()
	surface.onOffer = func(ref chat.MessageRef) {
		require.NoError(t, b.Publish(&bus.Signal{MessageID: ref.MessageID, UserID: "requester", Index: 0}))
		// Adding the remaining reactions takes a while on real platforms.
		time.Sleep(50 * time.Millisecond)
	}

	p := newTestPipeline(NewBusAwaiter(b, logger.Nop()), Settings{SelectionTimeout: 2 * time.Second})
	outcome, err := p.Run(context.Background(), request(provider, surface))

	require.NoError(t, err)
	assert.Equal(t, OutcomeRendered, outcome)
	assert.Equal(t, []string{"vendor/pkg0"}, provider.detailCalls)
	assert.Zero(t, b.GetMetrics()["signals_dropped"])
}

func TestPipelineReleasesSelectionWhenOfferFails(t *testing.T) {
	provider := &fakeProvider{searchResp: searchResponse(2)}
	surface := newFakeSurface()
	surface.offerErr = errors.New("reaction rejected")
	awaiter := &fakeAwaiter{}

	outcome, err := newTestPipeline(awaiter, Settings{}).Run(context.Background(), request(provider, surface))

	assert.Equal(t, OutcomeFailed, outcome)
	require.Error(t, err)
	assert.Equal(t, 1, awaiter.closed)
}

func TestPipelineHonoursMaxResults(t *testing.T) {
	provider := &fakeProvider{searchResp: searchResponse(8)}
	surface := newFakeSurface()
	awaiter := &fakeAwaiter{index: -1}

	_, err := newTestPipeline(awaiter, Settings{MaxResults: 3}).Run(context.Background(), request(provider, surface))

	require.NoError(t, err)
	assert.Len(t, awaiter.gotCandidates, 3)
	assert.Equal(t, DefaultSelectionTimeout, awaiter.gotTimeout)
	assert.Equal(t, 3, surface.offered[chat.MessageRef{ChannelID: "chan", MessageID: "list-1"}])
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "rendered", OutcomeRendered.String())
	assert.Equal(t, "timed_out", OutcomeTimedOut.String())
	assert.Equal(t, "failed", Outcome(42).String())
}
