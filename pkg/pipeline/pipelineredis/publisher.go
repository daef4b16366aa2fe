// Package pipelineredis publishes pipeline progress to Redis so API
// processes can report on documents extracted by workers.
package pipelineredis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Abraxas-365/pagelift/pkg/logx"
	"github.com/Abraxas-365/pagelift/pkg/slide"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultTTL     = 24 * time.Hour
	DefaultTimeout = 2 * time.Second
)

// Client is the subset of *redis.Client the publisher needs.
type Client interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

func channelKey(docID string) string { return fmt.Sprintf("pagelift:progress:%s", docID) }
func lastKey(docID string) string    { return fmt.Sprintf("pagelift:progress:last:%s", docID) }

// Snapshot is the published form of a progress update.
type Snapshot struct {
	DocumentID string      `json:"documentId"`
	Stage      slide.Stage `json:"stage"`
	Current    int         `json:"current"`
	Total      int         `json:"total"`
	Percent    float64     `json:"percent"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

type Publisher struct {
	rdb     Client
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time
}

type Option func(*Publisher)

func WithTTL(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.ttl = d
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func NewPublisher(rdb Client, opts ...Option) *Publisher {
	p := &Publisher{
		rdb:     rdb,
		ttl:     DefaultTTL,
		timeout: DefaultTimeout,
		now:     time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// OnProgress implements pipeline.Observer. Failures are logged and never
// reach the pipeline.
func (p *Publisher) OnProgress(docID string, progress slide.Progress) {
	data, err := json.Marshal(Snapshot{
		DocumentID: docID,
		Stage:      progress.Stage,
		Current:    progress.Current,
		Total:      progress.Total,
		Percent:    progress.Percent(),
		UpdatedAt:  p.now().UTC(),
	})
	if err != nil {
		logx.WithError(err).Warn("pipelineredis: marshal progress")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	log := logx.WithFields(logx.Fields{"document_id": docID, "stage": progress.Stage})
	if err := p.rdb.Set(ctx, lastKey(docID), data, p.ttl).Err(); err != nil {
		log.WithError(err).Warn("pipelineredis: store progress")
	}
	if err := p.rdb.Publish(ctx, channelKey(docID), data).Err(); err != nil {
		log.WithError(err).Warn("pipelineredis: publish progress")
	}
}

// Latest returns the last stored snapshot, or nil when none exists.
func (p *Publisher) Latest(ctx context.Context, docID string) (*Snapshot, error) {
	data, err := p.rdb.Get(ctx, lastKey(docID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, redisErrors.NewWithCause(ErrLatest, err).WithDetail("document_id", docID)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, redisErrors.NewWithCause(ErrUnmarshal, err).WithDetail("document_id", docID)
	}
	return &snap, nil
}
