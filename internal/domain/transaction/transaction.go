package transaction

import "context"

// Tx は単一のデータベーストランザクションを表すインターフェース
// 座席の確保と予約の作成、決済状態の更新と座席の返却は
// 同一の Tx 内で行われることで原子性を保つ
type Tx interface {
	Commit() error
	Rollback() error
}

// Manager は新しいトランザクションを開始するインターフェース
// ドメイン層・アプリケーション層が sqlx に直接依存しないための抽象化
type Manager interface {
	Begin(ctx context.Context) (Tx, error)
}
