package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewUser(t *testing.T) {
	u := NewUser("管理者", "admin@example.com", "$2a$10$hash", RoleAdmin)

	assert.Equal(t, "管理者", u.Name)
	assert.Equal(t, "admin@example.com", u.Email)
	assert.Equal(t, RoleAdmin, u.Role)
	assert.True(t, u.IsAdmin())
}

func TestUser_Validate(t *testing.T) {
	tests := []struct {
		name        string
		user        *User
		expectedErr error
	}{
		{"有効なユーザー", &User{Name: "太郎", Email: "a@b.com", PasswordHash: "h"}, nil},
		{"名前が空", &User{Email: "a@b.com", PasswordHash: "h"}, ErrNameRequired},
		{"メールが空", &User{Name: "太郎", PasswordHash: "h"}, ErrEmailRequired},
		{"パスワードが空", &User{Name: "太郎", Email: "a@b.com"}, ErrPasswordRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.user.Validate()
			if tt.expectedErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.expectedErr)
			}
		})
	}
}

func TestUser_IsAdmin(t *testing.T) {
	assert.False(t, (&User{Role: RoleUser}).IsAdmin())
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
}
