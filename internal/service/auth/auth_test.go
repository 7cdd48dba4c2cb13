package auth

import (
	"EduForge/internal/app_errors"
	"EduForge/internal/models"
	"EduForge/internal/storage/inmem"
	"EduForge/pkg/logger"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newService() *AuthService {
	db := inmem.New()
	manager := NewJWTManager("secret", "test", time.Minute, time.Hour)
	return NewAuthService(logger.FromZap(zap.NewNop()), manager, inmem.NewUserRepo(db), inmem.NewSessionRepo(db))
}

func TestCreateUserValidates(t *testing.T) {
	svc := newService()
	_, err := svc.CreateUser(context.Background(), models.User{Username: "ab", Email: "nope", Password: "123", Roles: []string{"admin"}})

	var verr *app_errors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 4)
}

func TestLoginAndRefresh(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	user, err := svc.CreateUser(ctx, models.User{Username: "ann", Email: "ann@school.test", Password: "secret1", Roles: []string{models.TeacherRole}})
	require.NoError(t, err)
	assert.Empty(t, user.Password)

	_, _, err = svc.LoginUser(ctx, "ann", "wrong-pass")
	assert.ErrorIs(t, err, app_errors.ErrIncorrectPassword)
	_, _, err = svc.LoginUser(ctx, "bob", "secret1")
	assert.ErrorIs(t, err, app_errors.ErrIncorrectPassword)

	access, refresh, err := svc.LoginUser(ctx, "ann", "secret1")
	require.NoError(t, err)

	id, roles, err := svc.AccessClaims(ctx, access)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
	assert.Equal(t, []string{models.TeacherRole}, roles)

	_, err = svc.RefreshTokens(ctx, access)
	assert.ErrorIs(t, err, app_errors.ErrInvalidToken)

	pair, err := svc.RefreshTokens(ctx, refresh)
	require.NoError(t, err)
	assert.NotEqual(t, refresh, pair.RefreshToken)

	_, err = svc.RefreshTokens(ctx, refresh)
	assert.ErrorIs(t, err, app_errors.ErrTokenNotFound)
}
