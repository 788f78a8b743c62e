package question

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// WarmRequest asks the warmer to pre-generate a pack for a key.
type WarmRequest struct {
	CategoryID string
	Count      int
	Difficulty int
}

// Warmer pre-generates packs in the background to keep foreground
// latency low. It is strictly best-effort: requests are dropped when
// the queue is full and no ordering is guaranteed relative to
// foreground generation.
type Warmer struct {
	provider  *Provider
	queue     chan WarmRequest
	logger    zerolog.Logger
	timeout   time.Duration
	shutdownC chan struct{}
}

func NewWarmer(provider *Provider, queueSize int, logger zerolog.Logger, timeout time.Duration) *Warmer {
	if queueSize <= 0 {
		queueSize = 16
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Warmer{
		provider:  provider,
		queue:     make(chan WarmRequest, queueSize),
		logger:    logger.With().Str("component", "question_warmer").Logger(),
		timeout:   timeout,
		shutdownC: make(chan struct{}),
	}
}

// Enqueue submits a warm-up request without blocking. Returns false if
// the queue is full.
func (w *Warmer) Enqueue(req WarmRequest) bool {
	select {
	case w.queue <- req:
		return true
	default:
		return false
	}
}

func (w *Warmer) Run() {
	for {
		select {
		case <-w.shutdownC:
			w.logger.Info().Msg("question warmer stopping")
			return
		case req := <-w.queue:
			w.handle(req)
		}
	}
}

func (w *Warmer) handle(req WarmRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	if err := w.provider.Warm(ctx, req.CategoryID, req.Count, req.Difficulty); err != nil {
		w.logger.Warn().Err(err).Str("category", req.CategoryID).Msg("prewarm failed")
	}
}

func (w *Warmer) Stop() {
	close(w.shutdownC)
}
