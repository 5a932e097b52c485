package booking

import (
	"context"
	"time"

	"github.com/sanosuguru/go-event-booking/internal/domain/event"
	"github.com/sanosuguru/go-event-booking/internal/domain/transaction"
)

// WithEvent は予約とそのイベントの組を表す
type WithEvent struct {
	Booking *Booking
	Event   *event.Event
}

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// Create は新しい予約を作成する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, booking *Booking) error

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id string) (*Booking, error)

	// ListByUserEmail はメールアドレスに紐づく予約をイベント込みで
	// 作成日時の降順（新しい順）で取得する
	ListByUserEmail(ctx context.Context, email string) ([]*WithEvent, error)

	// UpdatePayment は決済状態を pending からのみ更新する（compare-and-set）。
	// 既に終端状態の場合は ErrPaymentAlreadyProcessed を返す
	UpdatePayment(ctx context.Context, booking *Booking) error

	// ListStalePending は pending のまま olderThan より古い予約を取得する
	ListStalePending(ctx context.Context, olderThan time.Time) ([]*Booking, error)

	// MarkPaymentFailed は pending の予約を failed に遷移させる（トランザクション必須）。
	// スイーパーが座席返却と同一トランザクションで使用する
	MarkPaymentFailed(ctx context.Context, tx transaction.Tx, id string) error
}
