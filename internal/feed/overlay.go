package feed

import (
	"slices"
	"sync"

	"github.com/samber/lo"

	"instafeed/internal/core"
)

type likeKey struct {
	postID  string
	actorID string
}

// Overlay holds like states requested locally but not yet observed in a pushed snapshot.
// The latest SetLike for a post and actor wins. An entry is dropped once a snapshot agrees with it.
type Overlay struct {
	mu        sync.Mutex
	likes     map[likeKey]bool
	listeners map[int]chan struct{}
	nextID    int
}

func NewOverlay() *Overlay {
	return &Overlay{}
}

func (o *Overlay) SetLike(postID, actorID string, liked bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.likes == nil {
		o.likes = map[likeKey]bool{}
	}
	o.likes[likeKey{postID, actorID}] = liked
	o.notify()
}

// Discard forgets a pending like state, for example after the mutation failed.
func (o *Overlay) Discard(postID, actorID string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	key := likeKey{postID, actorID}
	if _, ok := o.likes[key]; !ok {
		return
	}
	delete(o.likes, key)
	o.notify()
}

// Pending returns the number of unreconciled entries.
func (o *Overlay) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.likes)
}

// Subscribe returns a channel signaled after every overlay change.
func (o *Overlay) Subscribe() (<-chan struct{}, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.listeners == nil {
		o.listeners = map[int]chan struct{}{}
	}
	o.nextID++
	id := o.nextID
	ch := make(chan struct{}, 1)
	o.listeners[id] = ch

	return ch, func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.listeners, id)
	}
}

// Apply returns posts with pending like states applied. posts is not modified. Entries the posts already agree with
// are reconciled and removed.
func (o *Overlay) Apply(posts []core.Post) []core.Post {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(o.likes) == 0 {
		return posts
	}

	index := lo.Associate(lo.Range(len(posts)), func(i int) (string, int) {
		return posts[i].ID, i
	})

	out := slices.Clone(posts)
	for key, liked := range o.likes {
		i, ok := index[key.postID]
		if !ok {
			continue
		}

		if posts[i].LikedBy(key.actorID) == liked {
			delete(o.likes, key)
			continue
		}

		if liked {
			out[i].Likes = append(slices.Clone(out[i].Likes), key.actorID)
		} else {
			out[i].Likes = lo.Without(out[i].Likes, key.actorID)
		}
	}

	return out
}

func (o *Overlay) notify() {
	for _, ch := range o.listeners {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
