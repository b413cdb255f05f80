// Package autosave persists the timeline document on a debounced schedule,
// keyed by a stable serialization hash so re-renders and no-op edits never
// hit storage.
package autosave

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/demostudio/demostudio-agent/internal/timeline"
)

// DefaultDebounce is how long the model must stay quiet before a save
// fires. A change inside the window resets the timer.
const DefaultDebounce = 2 * time.Second

// Saver persists a document snapshot.
type Saver func(ctx context.Context, doc *timeline.Document) error

// Bridge observes document changes and schedules debounced saves. Save
// failures are surfaced to the logger and the host but never block further
// editing; the in-memory model stays authoritative and the next change
// cycle retries.
type Bridge struct {
	mu           sync.Mutex
	saver        Saver
	debounce     time.Duration
	timer        *time.Timer
	pending      *timeline.Document
	lastSavedKey string
	logger       *slog.Logger
	onError      func(error)
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithDebounce overrides the debounce window.
func WithDebounce(d time.Duration) Option {
	return func(b *Bridge) { b.debounce = d }
}

// WithErrorHandler installs a host callback for save failures.
func WithErrorHandler(fn func(error)) Option {
	return func(b *Bridge) { b.onError = fn }
}

// New creates a bridge around the given saver.
func New(saver Saver, logger *slog.Logger, opts ...Option) *Bridge {
	b := &Bridge{
		saver:    saver,
		debounce: DefaultDebounce,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Notify records a model change. If the change key differs from the last
// successfully persisted key, a save is scheduled after the debounce
// window; a further change during the window resets the timer. A change
// that restores the persisted state cancels any pending save: the armed
// snapshot is stale and must never reach storage.
func (b *Bridge) Notify(doc *timeline.Document) {
	key := ChangeKey(doc)

	b.mu.Lock()
	defer b.mu.Unlock()

	if key == b.lastSavedKey {
		if b.timer != nil {
			b.timer.Stop()
			b.timer = nil
		}
		b.pending = nil
		return
	}

	b.pending = doc.Clone()
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.debounce, b.fire)
}

// Flush persists any pending snapshot immediately. Called on shutdown.
func (b *Bridge) Flush(ctx context.Context) error {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	doc := b.pending
	b.pending = nil
	b.mu.Unlock()

	if doc == nil {
		return nil
	}
	return b.save(ctx, doc)
}

func (b *Bridge) fire() {
	b.mu.Lock()
	doc := b.pending
	b.pending = nil
	b.timer = nil
	b.mu.Unlock()

	if doc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := b.save(ctx, doc); err != nil {
		b.logger.Error("autosave failed, will retry on next change", "error", err)
		if b.onError != nil {
			b.onError(err)
		}
	}
}

func (b *Bridge) save(ctx context.Context, doc *timeline.Document) error {
	key := ChangeKey(doc)
	if err := b.saver(ctx, doc); err != nil {
		return err
	}
	b.mu.Lock()
	b.lastSavedKey = key
	b.mu.Unlock()
	b.logger.Debug("autosaved project", "project_id", doc.Project.ID)
	return nil
}

// ChangeKey computes a stable hash of the document. Entity slices are
// normalized by id before hashing: track order in the arrays is incidental
// (sort order is an explicit field), so re-sorting must not read as a
// change.
func ChangeKey(doc *timeline.Document) string {
	norm := doc.Clone()
	sort.Slice(norm.Tracks, func(i, j int) bool { return norm.Tracks[i].ID < norm.Tracks[j].ID })
	sort.Slice(norm.Clips, func(i, j int) bool { return norm.Clips[i].ID < norm.Clips[j].ID })
	sort.Slice(norm.ZoomClips, func(i, j int) bool { return norm.ZoomClips[i].ID < norm.ZoomClips[j].ID })
	sort.Slice(norm.BlurClips, func(i, j int) bool { return norm.BlurClips[i].ID < norm.BlurClips[j].ID })
	sort.Slice(norm.PanClips, func(i, j int) bool { return norm.PanClips[i].ID < norm.PanClips[j].ID })
	sort.Slice(norm.Assets, func(i, j int) bool { return norm.Assets[i].ID < norm.Assets[j].ID })

	// Timestamps churn on every touch without representing editable state.
	norm.Project.UpdatedAt = time.Time{}

	data, err := json.Marshal(norm)
	if err != nil {
		// Marshal of a plain struct tree cannot fail in practice.
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
