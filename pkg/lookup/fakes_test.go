package lookup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pkgbot/pkg/chat"
	"pkgbot/pkg/registry"
)

type fakeProvider struct {
	searchResp *registry.SearchResponse
	searchErr  error
	detail     *registry.PackageDetail
	detailErr  error

	detailCalls []string
}

func (f *fakeProvider) Name() string  { return "composer" }
func (f *fakeProvider) Title() string { return "Packagist" }
func (f *fakeProvider) Layout() registry.Layout {
	return composerLayout()
}
func (f *fakeProvider) SearchPageURL(term string) string { return "https://search/" + term }
func (f *fakeProvider) DirectURL(name string) string     { return "https://pkg/" + name }

func (f *fakeProvider) Search(ctx context.Context, term string) (*registry.SearchResponse, error) {
	return f.searchResp, f.searchErr
}

func (f *fakeProvider) Detail(ctx context.Context, name string) (*registry.PackageDetail, error) {
	f.detailCalls = append(f.detailCalls, name)
	return f.detail, f.detailErr
}

type reply struct {
	channelID, replyToID, text string
}

type fakeSurface struct {
	mu      sync.Mutex
	sent    []chat.Card
	edits   map[chat.MessageRef]chat.Card
	replies []reply
	offered map[chat.MessageRef]int

	sendErr  error
	offerErr error
	editErr  error

	// onOffer runs after the affordances are recorded, outside the lock.
	onOffer func(ref chat.MessageRef)
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{
		edits:   map[chat.MessageRef]chat.Card{},
		offered: map[chat.MessageRef]int{},
	}
}

func (f *fakeSurface) Send(ctx context.Context, channelID string, card chat.Card) (chat.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return chat.MessageRef{}, f.sendErr
	}
	f.sent = append(f.sent, card)
	return chat.MessageRef{ChannelID: channelID, MessageID: fmt.Sprintf("list-%d", len(f.sent))}, nil
}

func (f *fakeSurface) Edit(ctx context.Context, ref chat.MessageRef, card chat.Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editErr != nil {
		return f.editErr
	}
	f.edits[ref] = card
	return nil
}

func (f *fakeSurface) Reply(ctx context.Context, channelID, replyToID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, reply{channelID, replyToID, text})
	return nil
}

func (f *fakeSurface) OfferChoices(ctx context.Context, ref chat.MessageRef, n int) error {
	f.mu.Lock()
	if f.offerErr != nil {
		f.mu.Unlock()
		return f.offerErr
	}
	f.offered[ref] = n
	hook := f.onOffer
	f.mu.Unlock()

	if hook != nil {
		hook(ref)
	}
	return nil
}

// fakeAwaiter picks a fixed index, or times out when index is negative.
type fakeAwaiter struct {
	index int
	err   error

	gotRef        chat.MessageRef
	gotRequester  string
	gotCandidates []registry.SearchResult
	gotTimeout    time.Duration
	closed        int
}

func (f *fakeAwaiter) Watch(ref chat.MessageRef, requesterID string, candidates []registry.SearchResult) Pending {
	f.gotRef, f.gotRequester, f.gotCandidates = ref, requesterID, candidates
	return &fakePending{awaiter: f, candidates: candidates}
}

type fakePending struct {
	awaiter    *fakeAwaiter
	candidates []registry.SearchResult
}

func (p *fakePending) Wait(ctx context.Context, timeout time.Duration) (Selection, error) {
	f := p.awaiter
	f.gotTimeout = timeout
	if f.err != nil {
		return Selection{}, f.err
	}
	if f.index < 0 {
		return Selection{}, nil
	}
	c := p.candidates[f.index]
	return Selection{Candidate: &c, Index: f.index}, nil
}

func (p *fakePending) Close() { p.awaiter.closed++ }
