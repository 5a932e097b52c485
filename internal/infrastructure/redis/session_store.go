package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("session not found")

// Session はサーバー側に保持するセッション情報
// クライアントには不透明なトークンのみを渡す
type Session struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// SessionStore は Redis を使用したサーバーサイドセッションストア
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore は新しいSessionStoreを作成する
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

// Create はセッションを作成しトークンを返す
func (s *SessionStore) Create(ctx context.Context, sess *Session) (string, error) {
	token := uuid.New().String()

	data, err := json.Marshal(sess)
	if err != nil {
		return "", fmt.Errorf("セッションのシリアライズに失敗: %w", err)
	}
	if err := s.client.Set(ctx, s.key(token), data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("セッション保存に失敗: %w", err)
	}
	return token, nil
}

// Get はトークンからセッションを取得する
func (s *SessionStore) Get(ctx context.Context, token string) (*Session, error) {
	data, err := s.client.Get(ctx, s.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("セッション取得に失敗: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("セッションのデシリアライズに失敗: %w", err)
	}
	return &sess, nil
}

// Delete はセッションを破棄する
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("セッション削除に失敗: %w", err)
	}
	return nil
}

func (s *SessionStore) key(token string) string {
	return fmt.Sprintf("sessions:%s", token)
}
