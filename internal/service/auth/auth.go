package auth

import (
	"EduForge/internal/app_errors"
	"EduForge/internal/models"
	"EduForge/pkg/logger"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLen = 6
	// bcrypt ignores everything past 72 bytes.
	maxPasswordLen = 72
	minUsernameLen = 3
	maxUsernameLen = 32
)

type AuthRepo interface {
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	UserByName(ctx context.Context, username string) (*models.User, error)
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type sessionRepo interface {
	CreateSession(ctx context.Context, s models.Session) (*models.Session, error)
	Session(ctx context.Context, userID uuid.UUID, tokenHash string) (*models.Session, error)
	DeleteSessions(ctx context.Context, userID uuid.UUID) error
}

type AuthService struct {
	log        logger.Log
	jwtManager *JWTManager
	authRepo   AuthRepo
	sessions   sessionRepo
}

func NewAuthService(l logger.Log, manager *JWTManager, aRepo AuthRepo, sessions sessionRepo) *AuthService {
	return &AuthService{
		log:        l,
		jwtManager: manager,
		authRepo:   aRepo,
		sessions:   sessions,
	}
}

// RefreshTokens rotates a refresh token. The presented token must belong to
// the user's live session; it stops working once the new pair is issued.
func (u *AuthService) RefreshTokens(ctx context.Context, token string) (*models.TokenPair, error) {
	claims, err := u.jwtManager.Parse(token, RefreshTokenType)
	if err != nil {
		return nil, err
	}
	userID, _ := claims.UserID()
	session, err := u.sessions.Session(ctx, userID, hashToken(token))
	if err != nil {
		return nil, err
	}
	if session.ExpiresAt.Before(time.Now()) {
		return nil, app_errors.ErrTokenExpired
	}
	user, err := u.authRepo.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.issue(ctx, user)
}

func (u *AuthService) issue(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	pair, err := u.jwtManager.Issue(user.ID, user.Roles)
	if err != nil {
		return nil, err
	}
	if err := u.sessions.DeleteSessions(ctx, user.ID); err != nil {
		return nil, err
	}
	_, err = u.sessions.CreateSession(ctx, models.Session{
		UserID:    user.ID,
		TokenHash: hashToken(pair.RefreshToken),
		ExpiresAt: pair.RefreshExpiresAt,
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

func (u *AuthService) AccessClaims(ctx context.Context, token string) (userID uuid.UUID, roles []string, err error) {
	claims, err := u.jwtManager.Parse(token, AccessTokenType)
	if err != nil {
		return uuid.Nil, nil, err
	}
	userID, _ = claims.UserID()
	return userID, claims.Roles, nil
}

func (u *AuthService) User(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return u.authRepo.UserByID(ctx, id)
}

func (u *AuthService) LoginUser(ctx context.Context, username, password string) (accessToken, refreshToken string, err error) {
	user, err := u.authRepo.UserByName(ctx, username)
	if err != nil {
		if errors.Is(err, app_errors.ErrUserNotFound) {
			return "", "", app_errors.ErrIncorrectPassword
		}
		return "", "", err
	}

	if !checkPasswordHash(password, user.Password) {
		return "", "", app_errors.ErrIncorrectPassword
	}

	tokenPair, err := u.issue(ctx, user)
	if err != nil {
		return "", "", err
	}
	u.log.Info("user logged in", "user_id", user.ID.String())
	return tokenPair.AccessToken, tokenPair.RefreshToken, nil
}

// CreateUser registers a user with exactly one role, teacher or student.
func (u *AuthService) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	user.Username = strings.TrimSpace(user.Username)
	user.Email = strings.TrimSpace(user.Email)
	if err := validateUser(user); err != nil {
		return nil, err
	}

	var err error
	user.Password, err = hashPassword(user.Password)
	if err != nil {
		return nil, err
	}

	createdUser, err := u.authRepo.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}
	createdUser.Password = ""
	return createdUser, nil
}

func validateUser(user models.User) error {
	verr := &app_errors.ValidationError{}
	if n := len(user.Username); n < minUsernameLen || n > maxUsernameLen {
		verr.Add("username", "must be 3 to 32 characters")
	}
	if !strings.Contains(user.Email, "@") {
		verr.Add("email", "must be an email address")
	}
	if n := len(user.Password); n < minPasswordLen || n > maxPasswordLen {
		verr.Add("password", "must be 6 to 72 characters")
	}
	if len(user.Roles) != 1 || (user.Roles[0] != models.TeacherRole && user.Roles[0] != models.StudentRole) {
		verr.Add("role", app_errors.ErrIncorrectRole.Error())
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
