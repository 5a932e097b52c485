package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-event-booking/internal/pkg/logger"
)

// PaymentExpirer は放置された pending 決済を失効させるインターフェース
type PaymentExpirer interface {
	ExpireStalePayments(ctx context.Context) (int, error)
}

// PendingPaymentSweeper は pending のまま放置された予約を
// 定期的に failed へ落とすワーカー
type PendingPaymentSweeper struct {
	paymentService PaymentExpirer
	interval       time.Duration
	stopCh         chan struct{}
	doneCh         chan struct{}
}

// NewPendingPaymentSweeper は新しいスイーパーを作成する
func NewPendingPaymentSweeper(ps PaymentExpirer, interval time.Duration) *PendingPaymentSweeper {
	return &PendingPaymentSweeper{
		paymentService: ps,
		interval:       interval,
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}
}

// Start はスイーパーを開始する
func (s *PendingPaymentSweeper) Start(ctx context.Context) {
	logger.Info("決済スイーパー開始", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer close(s.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("決済スイーパー停止（コンテキストキャンセル）")
			return
		case <-s.stopCh:
			logger.Info("決済スイーパー停止（シグナル受信）")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Stop はスイーパーを停止し、終了を待つ
func (s *PendingPaymentSweeper) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

func (s *PendingPaymentSweeper) sweep(ctx context.Context) {
	log := logger.Get()
	log.Debug("放置決済の掃引開始")

	count, err := s.paymentService.ExpireStalePayments(ctx)
	if err != nil {
		log.Error("放置決済の掃引失敗", zap.Error(err))
		return
	}

	if count > 0 {
		log.Info("放置決済を失効", zap.Int("count", count))
	} else {
		log.Debug("放置決済なし")
	}
}
