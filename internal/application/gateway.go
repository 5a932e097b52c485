package application

import (
	"context"
	"time"
)

// PaymentGateway は外部決済ゲートウェイを抽象化するインターフェース
type PaymentGateway interface {
	// Authorize はカード番号を検証し、承認可否を返す
	Authorize(ctx context.Context, cardNumber string) (bool, error)
}

// SimulatedGateway はデモ用の決済ゲートウェイ
// カード番号の末尾が偶数なら承認、奇数なら拒否する
type SimulatedGateway struct {
	delay time.Duration
}

// NewSimulatedGateway はSimulatedGatewayを作成する
func NewSimulatedGateway(delay time.Duration) *SimulatedGateway {
	return &SimulatedGateway{delay: delay}
}

// Authorize は外部ゲートウェイへの問い合わせを模擬する。
// レイテンシ待機中はロックを保持せず、コンテキストキャンセルで中断できる
func (g *SimulatedGateway) Authorize(ctx context.Context, cardNumber string) (bool, error) {
	if g.delay > 0 {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(g.delay):
		}
	}

	if cardNumber == "" {
		return false, nil
	}
	last := cardNumber[len(cardNumber)-1]
	if last < '0' || last > '9' {
		return false, nil
	}
	return (last-'0')%2 == 0, nil
}

var _ PaymentGateway = (*SimulatedGateway)(nil)
