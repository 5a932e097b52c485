package application

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/sanosuguru/go-event-booking/internal/domain/user"
	redisinfra "github.com/sanosuguru/go-event-booking/internal/infrastructure/redis"
)

// ErrSessionsUnavailable はセッションストア（Redis）が利用できない場合のエラー
var ErrSessionsUnavailable = errors.New("Session store unavailable")

// AuthService はユーザー登録・ログインとサーバーサイドセッションを担う。
// クライアントには不透明なセッショントークンのみを渡し、
// 権限（role）はサーバー側でのみ保持する
type AuthService struct {
	userRepo    user.Repository
	sessions    *redisinfra.SessionStore
	adminEmails map[string]struct{}
}

// NewAuthService はAuthServiceを作成する
func NewAuthService(userRepo user.Repository, sessions *redisinfra.SessionStore, adminEmails []string) *AuthService {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		admins[email] = struct{}{}
	}
	return &AuthService{
		userRepo:    userRepo,
		sessions:    sessions,
		adminEmails: admins,
	}
}

// SignupInput はユーザー登録の入力
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// Signup は新しいユーザーを登録する。パスワードは bcrypt でハッシュ化して保存する
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*user.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗: %w", err)
	}

	role := user.RoleUser
	if _, ok := s.adminEmails[input.Email]; ok {
		role = user.RoleAdmin
	}

	u := user.NewUser(input.Name, input.Email, string(hash), role)
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// LoginResult はログイン成功時の結果
type LoginResult struct {
	User  *user.User
	Token string
}

// Login は認証に成功したらセッションを作成しトークンを返す
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, user.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("ユーザー取得に失敗: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, user.ErrInvalidCredentials
	}

	if s.sessions == nil {
		return nil, ErrSessionsUnavailable
	}
	token, err := s.sessions.Create(ctx, &redisinfra.Session{
		UserID: u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Role:   string(u.Role),
	})
	if err != nil {
		return nil, fmt.Errorf("セッション作成に失敗: %w", err)
	}
	return &LoginResult{User: u, Token: token}, nil
}

// Logout はセッションを破棄する
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if s.sessions == nil {
		return ErrSessionsUnavailable
	}
	return s.sessions.Delete(ctx, token)
}

// GetSession はトークンからセッションを取得する
func (s *AuthService) GetSession(ctx context.Context, token string) (*redisinfra.Session, error) {
	if s.sessions == nil {
		return nil, redisinfra.ErrSessionNotFound
	}
	return s.sessions.Get(ctx, token)
}
