package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedGateway_Authorize(t *testing.T) {
	ctx := context.Background()

	t.Run("末尾が偶数のカード番号は承認される", func(t *testing.T) {
		gateway := NewSimulatedGateway(0)

		for _, card := range []string{"4242424242424242", "1000", "8", "0"} {
			authorized, err := gateway.Authorize(ctx, card)
			require.NoError(t, err)
			assert.True(t, authorized, card)
		}
	})

	t.Run("末尾が奇数のカード番号は拒否される", func(t *testing.T) {
		gateway := NewSimulatedGateway(0)

		for _, card := range []string{"4242424242424243", "1001", "9"} {
			authorized, err := gateway.Authorize(ctx, card)
			require.NoError(t, err)
			assert.False(t, authorized, card)
		}
	})

	t.Run("空のカード番号は拒否される", func(t *testing.T) {
		gateway := NewSimulatedGateway(0)

		authorized, err := gateway.Authorize(ctx, "")
		require.NoError(t, err)
		assert.False(t, authorized)
	})

	t.Run("末尾が数字でないカード番号は拒否される", func(t *testing.T) {
		gateway := NewSimulatedGateway(0)

		authorized, err := gateway.Authorize(ctx, "4242-X")
		require.NoError(t, err)
		assert.False(t, authorized)
	})

	t.Run("コンテキストキャンセルで待機を中断できる", func(t *testing.T) {
		gateway := NewSimulatedGateway(10 * time.Second)

		cancelCtx, cancel := context.WithCancel(ctx)
		cancel()

		start := time.Now()
		_, err := gateway.Authorize(cancelCtx, "4242424242424242")

		assert.ErrorIs(t, err, context.Canceled)
		assert.Less(t, time.Since(start), time.Second)
	})
}
