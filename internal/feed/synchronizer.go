package feed

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"
	"github.com/zhulik/pips"

	"instafeed/internal/config"
	"instafeed/internal/core"
	"instafeed/pkg/chans"
)

var postsQuery = core.Query{
	Collection: core.PostsCollection,
	OrderBy:    "createdAt",
	Direction:  core.Descending,
}

// Snapshot is a normalized point in time view of the feed, newest first.
type Snapshot struct {
	// Seq numbers the store push the snapshot was built from, starting at 1. Gaps mean collapsed pushes.
	Seq   uint64      `json:"seq"`
	Posts []core.Post `json:"posts"`
}

func (s Snapshot) Find(postID string) (core.Post, bool) {
	return lo.Find(s.Posts, func(p core.Post) bool {
		return p.ID == postID
	})
}

// Synchronizer materializes the posts collection into snapshots.
type Synchronizer struct {
	Logger *slog.Logger
	Store  core.DocumentStore
	// Overlay, when set, is applied to every outgoing snapshot. Init drops it unless Config enables optimistic
	// updates.
	Overlay *Overlay
	Config  *config.Config
}

func New(store core.DocumentStore, logger *slog.Logger) *Synchronizer {
	s := &Synchronizer{Store: store, Logger: logger}
	s.Init(context.Background()) //nolint:errcheck
	return s
}

func (s *Synchronizer) Init(_ context.Context) error {
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	s.Logger = s.Logger.With("component", "feed.Synchronizer")

	if s.Config != nil && !s.Config.Optimistic {
		s.Overlay = nil
	}
	return nil
}

// Subscribe opens a live query over the posts collection. The subscription ends on Unsubscribe, when ctx is done
// or after a delivered SyncFailure.
func (s *Synchronizer) Subscribe(ctx context.Context) *Subscription {
	ctx, cancel := context.WithCancel(ctx)

	raw := make(chan pips.D[push])
	out := make(chan pips.D[Snapshot])

	sub := &Subscription{
		cancel: cancel,
		ch:     chans.Latest(ctx, out),
	}

	activeSubscriptions.Inc()
	go s.run(ctx, sub, chans.Latest(ctx, raw), out)

	var pushes atomic.Uint64

	release, err := s.Store.SubscribeQuery(ctx, postsQuery,
		func(docs []core.Document) {
			chans.Send(ctx, raw, pips.NewD(push{seq: pushes.Add(1), docs: docs}))
		},
		func(err error) {
			chans.Send(ctx, raw, pips.ErrD[push](err))
		},
	)
	if err != nil {
		chans.Send(ctx, raw, pips.ErrD[push](err))
		return sub
	}
	sub.setRelease(release)

	return sub
}

// Feed is Subscribe as a sequence. The live query is opened when iteration starts and released when it stops.
// A SyncFailure is yielded once as the last element.
func (s *Synchronizer) Feed(ctx context.Context) iter.Seq2[Snapshot, error] {
	return func(yield func(Snapshot, error) bool) {
		sub := s.Subscribe(ctx)
		defer sub.Unsubscribe()

		for d := range sub.C() {
			snapshot, err := d.Unpack()
			if !yield(snapshot, err) || err != nil {
				return
			}
		}
	}
}

// First waits for the first snapshot.
func (s *Synchronizer) First(ctx context.Context) (Snapshot, error) {
	for snapshot, err := range s.Feed(ctx) {
		return snapshot, err
	}
	return Snapshot{}, fmt.Errorf("%w: %w", core.ErrSyncFailure, context.Cause(ctx))
}

type push struct {
	seq  uint64
	docs []core.Document
}

func (s *Synchronizer) run(ctx context.Context, sub *Subscription, raw <-chan pips.D[push], out chan<- pips.D[Snapshot]) {
	defer activeSubscriptions.Dec()
	defer close(out)
	defer sub.releaseStore()

	var changes <-chan struct{}
	if s.Overlay != nil {
		ch, stop := s.Overlay.Subscribe()
		defer stop()
		changes = ch
	}

	var (
		base []core.Post
		seq  uint64
	)

	for {
		select {
		case <-ctx.Done():
			return

		case d, ok := <-raw:
			if !ok {
				return
			}

			p, err := d.Unpack()
			if err != nil {
				err = fmt.Errorf("%w: %w", core.ErrSyncFailure, err)
				subscriptionFailures.Inc()
				s.Logger.Error("feed subscription failed", "error", err)
				sub.releaseStore()
				sub.fail(err)
				chans.Send(ctx, out, pips.ErrD[Snapshot](err))
				return
			}

			seq = p.seq
			snapshotsReceived.Inc()
			base = s.materialize(p.docs)

			s.Logger.Debug("snapshot received", "seq", seq, "posts", len(base))
			if !chans.Send(ctx, out, pips.NewD(s.snapshot(seq, base))) {
				return
			}

		case <-changes:
			if seq == 0 {
				continue
			}
			if !chans.Send(ctx, out, pips.NewD(s.snapshot(seq, base))) {
				return
			}
		}
	}
}

func (s *Synchronizer) materialize(docs []core.Document) []core.Post {
	now := time.Now()

	return lo.Map(docs, func(doc core.Document, _ int) core.Post {
		return Normalize(doc, now)
	})
}

func (s *Synchronizer) snapshot(seq uint64, base []core.Post) Snapshot {
	posts := base
	if s.Overlay != nil {
		posts = s.Overlay.Apply(base)
	}
	return Snapshot{Seq: seq, Posts: posts}
}

// Subscription is a live feed. Snapshots and the terminal error are delivered through C. A slow reader only sees
// the most recent snapshot; a SyncFailure is delivered after it, never in its place.
type Subscription struct {
	cancel context.CancelFunc
	ch     <-chan pips.D[Snapshot]

	mu       sync.Mutex
	release  func()
	released bool
	err      error
	once     sync.Once
}

// C returns the snapshot channel. It is closed when the subscription ends.
func (s *Subscription) C() <-chan pips.D[Snapshot] {
	return s.ch
}

// Unsubscribe releases the live query. Safe to call any number of times from any goroutine.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		// Store handlers may be blocked on delivery until ctx is canceled.
		s.cancel()
		s.releaseStore()
	})
}

// Err returns the SyncFailure that ended the subscription, or nil.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Subscription) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *Subscription) setRelease(release func()) {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		release()
		return
	}
	s.release = release
	s.mu.Unlock()
}

func (s *Subscription) releaseStore() {
	s.mu.Lock()
	s.released = true
	release := s.release
	s.release = nil
	s.mu.Unlock()

	if release != nil {
		release()
	}
}
