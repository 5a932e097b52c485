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

// ErrPaymentFailed の文言はAPIレスポンスにそのまま載る
var ErrPaymentFailed = errors.New("Payment failed. Please try again.")

// PaymentService は予約の決済状態機械を駆動する
// 状態遷移は pending → completed | failed のみで、終端状態からの遷移はない
type PaymentService struct {
	bookingRepo booking.Repository
	eventRepo   event.Repository
	txManager   transaction.Manager
	gateway     PaymentGateway
	cache       *redisinfra.AvailabilityCache // nil可
	metrics     *metrics.Metrics              // nil可

	// pending のまま放置された予約の扱い（スイーパー用）
	pendingTTL           time.Duration
	releaseSeatsOnExpiry bool
}

// NewPaymentService はPaymentServiceを作成する
func NewPaymentService(
	br booking.Repository,
	er event.Repository,
	tm transaction.Manager,
	gateway PaymentGateway,
	cache *redisinfra.AvailabilityCache,
	m *metrics.Metrics,
	pendingTTL time.Duration,
	releaseSeatsOnExpiry bool,
) *PaymentService {
	return &PaymentService{
		bookingRepo:          br,
		eventRepo:            er,
		txManager:            tm,
		gateway:              gateway,
		cache:                cache,
		metrics:              m,
		pendingTTL:           pendingTTL,
		releaseSeatsOnExpiry: releaseSeatsOnExpiry,
	}
}

// ProcessPaymentInput は決済処理の入力
type ProcessPaymentInput struct {
	BookingID     string
	PaymentMethod string
	CardNumber    string
}

// ProcessPayment は決済を実行し、予約の決済状態を終端状態へ遷移させる。
// ゲートウェイ待機中はロックを一切保持しない。遷移自体は
// リポジトリの compare-and-set により、同一予約への同時決済で
// 両方成功することはない
func (s *PaymentService) ProcessPayment(ctx context.Context, input ProcessPaymentInput) (*booking.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, input.BookingID)
	if err != nil {
		if errors.Is(err, booking.ErrBookingNotFound) {
			s.countPayment("not_found")
			return nil, err
		}
		s.countPayment("error")
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	if !b.IsPaymentPending() {
		s.countPayment("invalid_state")
		return nil, booking.ErrPaymentAlreadyProcessed
	}

	authorized, err := s.gateway.Authorize(ctx, input.CardNumber)
	if err != nil {
		s.countPayment("error")
		return nil, fmt.Errorf("決済ゲートウェイへの問い合わせに失敗: %w", err)
	}

	if !authorized {
		if err := b.FailPayment(); err != nil {
			s.countPayment("invalid_state")
			return nil, err
		}
		if err := s.bookingRepo.UpdatePayment(ctx, b); err != nil {
			if errors.Is(err, booking.ErrPaymentAlreadyProcessed) {
				s.countPayment("invalid_state")
				return nil, err
			}
			s.countPayment("error")
			return nil, err
		}
		// 失敗しても確保済みの座席は返却しない（スイーパーのポリシー参照）
		s.countPayment("failed")
		s.decPending()
		return nil, ErrPaymentFailed
	}

	if err := b.CompletePayment(input.PaymentMethod, GenerateTransactionID()); err != nil {
		s.countPayment("invalid_state")
		return nil, err
	}
	if err := s.bookingRepo.UpdatePayment(ctx, b); err != nil {
		if errors.Is(err, booking.ErrPaymentAlreadyProcessed) {
			s.countPayment("invalid_state")
			return nil, err
		}
		s.countPayment("error")
		return nil, err
	}

	s.countPayment("completed")
	s.decPending()
	return b, nil
}

// ExpireStalePayments は pending のまま PendingTTL を超えた予約を failed に落とす。
// 座席返却ポリシーが有効な場合は同一トランザクションで座席も返却する。
// 処理できた件数を返す
func (s *PaymentService) ExpireStalePayments(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.pendingTTL)
	stale, err := s.bookingRepo.ListStalePending(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("放置予約の取得に失敗: %w", err)
	}

	expired := 0
	for _, b := range stale {
		if err := s.expireOne(ctx, b); err != nil {
			logger.Error("放置予約の失効処理に失敗",
				zap.String("booking_id", b.ID),
				zap.Error(err),
			)
			continue
		}
		expired++
		s.decPending()
	}
	return expired, nil
}

func (s *PaymentService) expireOne(ctx context.Context, b *booking.Booking) error {
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := s.bookingRepo.MarkPaymentFailed(ctx, tx, b.ID); err != nil {
		// 掃引中に決済が完了した予約はそのまま残す
		if errors.Is(err, booking.ErrPaymentAlreadyProcessed) {
			return nil
		}
		return err
	}
	if s.releaseSeatsOnExpiry {
		if err := s.eventRepo.ReleaseSeats(ctx, tx, b.EventID, b.NumberOfSeats); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("コミットに失敗: %w", err)
	}

	if s.releaseSeatsOnExpiry && s.cache != nil {
		if err := s.cache.Invalidate(ctx, b.EventID); err != nil {
			logger.Warn("残席キャッシュの無効化に失敗", zap.String("event_id", b.EventID), zap.Error(err))
		}
	}
	return nil
}

func (s *PaymentService) countPayment(status string) {
	if s.metrics != nil {
		s.metrics.PaymentsTotal.WithLabelValues(status).Inc()
	}
}

func (s *PaymentService) decPending() {
	if s.metrics != nil {
		s.metrics.PendingPayments.Dec()
	}
}
