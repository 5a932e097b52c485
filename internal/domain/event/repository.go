package event

import (
	"context"

	"github.com/sanosuguru/go-event-booking/internal/domain/transaction"
)

// Repository はイベントリポジトリのインターフェース
type Repository interface {
	// Create は新しいイベントを作成する
	Create(ctx context.Context, event *Event) error

	// GetByID はIDからイベントを取得する
	GetByID(ctx context.Context, id string) (*Event, error)

	// GetBySlug はスラッグからイベントを取得する
	GetBySlug(ctx context.Context, slug string) (*Event, error)

	// List はイベント一覧を開催日昇順で取得する
	List(ctx context.Context, limit, offset int) ([]*Event, error)

	// Update はイベントを更新する。BookedSeats はここでは変更しない
	Update(ctx context.Context, event *Event) error

	// Delete はイベントを削除する
	Delete(ctx context.Context, id string) error

	// ReserveSeats は booked_seats を条件付きでアトミックに加算する。
	// 加算後の値が capacity を超える場合は ErrNotEnoughSeats を返し、何も変更しない。
	// booked_seats を増やす唯一の書き込み経路（トランザクション必須）
	ReserveSeats(ctx context.Context, tx transaction.Tx, eventID string, seats int) error

	// ReleaseSeats は booked_seats を減算する（下限0）。
	// 決済放置予約の座席返却ポリシーが有効な場合のみスイーパーが使用する
	ReleaseSeats(ctx context.Context, tx transaction.Tx, eventID string, seats int) error
}
