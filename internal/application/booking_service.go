package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-event-booking/internal/domain/booking"
	"github.com/sanosuguru/go-event-booking/internal/domain/event"
	"github.com/sanosuguru/go-event-booking/internal/domain/transaction"
	redisinfra "github.com/sanosuguru/go-event-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-event-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-event-booking/internal/pkg/metrics"
)

// ErrEmailRequired の文言はAPIレスポンスにそのまま載る
var ErrEmailRequired = errors.New("Email is required")

// BookingService は座席の受付判定と予約照会を担う
type BookingService struct {
	bookingRepo booking.Repository
	eventRepo   event.Repository
	txManager   transaction.Manager
	lockManager *redisinfra.LockManager      // nil可（Postgres側の条件付きUPDATEが正しさを保証する）
	cache       *redisinfra.AvailabilityCache // nil可
	metrics     *metrics.Metrics              // nil可
}

// NewBookingService はBookingServiceを作成する
func NewBookingService(
	br booking.Repository,
	er event.Repository,
	tm transaction.Manager,
	lm *redisinfra.LockManager,
	cache *redisinfra.AvailabilityCache,
	m *metrics.Metrics,
) *BookingService {
	return &BookingService{
		bookingRepo: br,
		eventRepo:   er,
		txManager:   tm,
		lockManager: lm,
		cache:       cache,
		metrics:     m,
	}
}

// CreateBookingInput は予約作成の入力
type CreateBookingInput struct {
	EventID       string
	UserName      string
	UserEmail     string
	NumberOfSeats int
}

// CreateBooking は座席リクエストの受付を判定する。
// 予約レコードの作成とイベントの座席加算は単一トランザクションで行い、
// 定員超過なら何も変更せずに ErrNotEnoughSeats を返す
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*booking.Booking, error) {
	if input.NumberOfSeats < 1 {
		return nil, booking.ErrInvalidSeatCount
	}

	// 同一イベントへの受付を直列化する分散ロック。
	// 正しさは条件付きUPDATEが保証するため、ロックはDB競合の削減が目的。
	// 取得できなくても受付は拒否せず、定員判定はDBに委ねる
	if s.lockManager != nil {
		lockStart := time.Now()
		lock, err := s.lockManager.AcquireLockWithRetry(ctx, "events:"+input.EventID, 10*time.Second, 3, 100*time.Millisecond)
		s.observeLock("acquire", err, time.Since(lockStart))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("受付ロックを取得できないため条件付きUPDATEのみで受付を継続",
				zap.String("event_id", input.EventID), zap.Error(err))
		} else {
			defer func() {
				releaseStart := time.Now()
				err := lock.Release(ctx)
				s.observeLock("release", err, time.Since(releaseStart))
			}()
		}
	}

	ev, err := s.eventRepo.GetByID(ctx, input.EventID)
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			s.countBooking("not_found")
			return nil, err
		}
		s.countBooking("error")
		return nil, fmt.Errorf("イベント取得に失敗: %w", err)
	}

	// 決済額は作成時点のイベント価格で固定する
	amount := ev.Price * float64(input.NumberOfSeats)
	b := booking.NewBooking(input.EventID, input.UserName, input.UserEmail, input.NumberOfSeats, amount)
	if err := b.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		s.countBooking("error")
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := s.bookingRepo.Create(ctx, tx, b); err != nil {
		s.countBooking("error")
		return nil, err
	}
	if err := s.eventRepo.ReserveSeats(ctx, tx, input.EventID, input.NumberOfSeats); err != nil {
		// ロールバックにより予約レコードも残らない
		switch {
		case errors.Is(err, event.ErrNotEnoughSeats):
			s.countBooking("sold_out")
		case errors.Is(err, event.ErrEventNotFound):
			s.countBooking("not_found")
		default:
			s.countBooking("error")
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		s.countBooking("error")
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	s.invalidateCache(ctx, input.EventID)
	s.countBooking("success")
	if s.metrics != nil {
		s.metrics.PendingPayments.Inc()
	}
	return b, nil
}

// GetBooking はIDから予約を取得する
func (s *BookingService) GetBooking(ctx context.Context, id string) (*booking.Booking, error) {
	return s.bookingRepo.GetByID(ctx, id)
}

// ListBookingsByEmail はメールアドレスに紐づく予約をイベント込みで新しい順に返す
func (s *BookingService) ListBookingsByEmail(ctx context.Context, email string) ([]*booking.WithEvent, error) {
	if email == "" {
		return nil, ErrEmailRequired
	}
	return s.bookingRepo.ListByUserEmail(ctx, email)
}

func (s *BookingService) invalidateCache(ctx context.Context, eventID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, eventID); err != nil {
		// キャッシュはTTLで回復するため失敗しても処理は継続する
		logger.Warn("残席キャッシュの無効化に失敗", zap.String("event_id", eventID), zap.Error(err))
	}
}

func (s *BookingService) countBooking(status string) {
	if s.metrics != nil {
		s.metrics.BookingsTotal.WithLabelValues(status).Inc()
	}
}

func (s *BookingService) observeLock(operation string, err error, d time.Duration) {
	if s.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failed"
	}
	s.metrics.DistributedLockDuration.WithLabelValues(operation, status).Observe(d.Seconds())
}
