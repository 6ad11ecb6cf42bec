package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model/event"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/pricing"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/producer"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Clock 所有時間欄位從這裡取, 測試可以固定時間
type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}

type options struct {
	clock     Clock
	publisher producer.EventPublisher
	policy    pricing.Policy
	location  *time.Location
}

type Option func(*options)

func WithClock(clock Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

func WithPublisher(p producer.EventPublisher) Option {
	return func(o *options) {
		o.publisher = p
	}
}

func WithPricingPolicy(p pricing.Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithLocation 報表切日與付款建立時間使用的時區
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		o.location = loc
	}
}

func newOptions(opts ...Option) options {
	o := options{
		clock:     utcNow,
		publisher: producer.NoopPublisher{},
		policy:    pricing.DefaultPolicy(),
		location:  time.UTC,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) now() time.Time {
	return o.clock().UTC()
}

// publish 交易 commit 後才呼叫, 失敗只記 log 不影響結果
func (o options) publish(ctx context.Context, evts ...event.Event) {
	if len(evts) == 0 {
		return
	}
	if err := o.publisher.Publish(ctx, evts...); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int("events", len(evts)).Msg("publish domain events failed")
	}
}

// notFoundOr repository 錯誤轉成業務錯誤
func notFoundOr(err error, format string, args ...any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperr.Newf(apperr.NotFoundCode, format, args...)
	case errors.Is(err, repository.ErrConflict):
		return apperr.Wrap(apperr.ConflictCode, err, "")
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Wrap(apperr.InternalCode, err, "")
}

// canonicalUUID 只接受 8-4-4-4-12 格式, 大括號, urn 與無連字號的寫法都拒絕
func canonicalUUID(id string) (string, bool) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	canonical := u.String()
	if canonical != strings.ToLower(id) {
		return "", false
	}
	return canonical, true
}
