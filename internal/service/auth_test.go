package service

import (
	"context"
	"testing"
	"time"

	"docauth/internal/auth"
	"docauth/internal/model"
	"docauth/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserMemory()
	users := NewUserService(repo, nil)
	tokens, err := auth.NewTokenManager("secret", "docauth", time.Minute, time.Hour)
	require.NoError(t, err)
	svc := NewAuthService(repo, tokens, nil)

	alice, err := users.Create(ctx, CreateUserRequest{Username: "alice", Password: "wonderland"})
	require.NoError(t, err)

	t.Run("login", func(t *testing.T) {
		pair, err := svc.Login(ctx, "alice", "wonderland")
		require.NoError(t, err)
		p, err := tokens.ParseAccess(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, p.UserID)
		assert.False(t, p.IsAdmin)
	})

	t.Run("bad credentials", func(t *testing.T) {
		for _, tc := range [][2]string{{"alice", "wrong-password"}, {"nobody", "wonderland"}, {"", ""}} {
			_, err := svc.Login(ctx, tc[0], tc[1])
			assert.ErrorIs(t, err, ErrUnauthorized)
		}
	})

	t.Run("refresh picks up new admin flag", func(t *testing.T) {
		pair, err := svc.Login(ctx, "alice", "wonderland")
		require.NoError(t, err)

		_, err = users.Update(ctx, model.Principal{IsAdmin: true}, alice.ID, UpdateUserRequest{IsAdmin: ptr(true)})
		require.NoError(t, err)

		next, err := svc.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)
		p, err := tokens.ParseAccess(next.AccessToken)
		require.NoError(t, err)
		assert.True(t, p.IsAdmin)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		pair, err := svc.Login(ctx, "alice", "wonderland")
		require.NoError(t, err)
		_, err = svc.Refresh(ctx, pair.AccessToken)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("refresh for deleted user", func(t *testing.T) {
		pair, err := tokens.Issue(&model.User{ID: "ghost", Username: "ghost"})
		require.NoError(t, err)
		_, err = svc.Refresh(ctx, pair.RefreshToken)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}
