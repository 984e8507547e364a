// Package services contains server-side business logic. This file implements
// UserService, which handles registration, password login, issuing and
// rotating JWT access/refresh pairs backed by server-stored refresh tokens,
// logout, and the owner-only account operations.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/limiter"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token
// together with the user they were issued for.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	User         *models.User
}

// UserUpdate carries the optional changes of UpdateUser. Nil fields are left
// untouched.
type UserUpdate struct {
	UserName *string
	Password *string
}

// UserService provides authentication-related operations:
// - Register: create users
// - Login: verify credentials and mint tokens
// - RefreshToken: rotate refresh tokens and mint new access tokens
// - Logout / LogoutAll: revoke refresh tokens
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	access                       *auth.AccessCodec
	refresh                      *auth.RefreshCodec
	hasher                       *auth.Hasher
	limiter                      limiter.Limiter
	logger                       logging.Logger
	refreshTokenValidityDuration time.Duration
	now                          func() time.Time
}

// NewUserService constructs a UserService using repositories and server config.
// The signing secret is taken from cfg once, here.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, l limiter.Limiter, logger logging.Logger) *UserService {
	secret := []byte(cfg.SecretKey)
	if l == nil {
		l = limiter.Nop{}
	}
	return &UserService{
		db:                           db,
		repomanager:                  m,
		access:                       auth.NewAccessCodec(secret, cfg.AccessTokenValidityDuration, cfg.TokenLeeway),
		refresh:                      auth.NewRefreshCodec(secret),
		hasher:                       auth.NewHasher(cfg.BcryptCost),
		limiter:                      l,
		logger:                       logger.With("module", "user_service"),
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		now:                          time.Now,
	}
}

// AccessCodec exposes the codec so transports can authenticate requests
// with the same secret and lifetimes.
func (s *UserService) AccessCodec() *auth.AccessCodec {
	return s.access
}

// Register creates a new user with the given username and password.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrorValidation)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{UserName: username, PasswordHash: hash}
	user, err = s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login verifies the password and, on success, returns a new TokenPair.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	username = strings.TrimSpace(username)

	allowed, err := s.limiter.Allow(ctx, username)
	if err != nil {
		s.logger.Warn(ctx, "login throttle unavailable", "error", err)
		allowed = true
	}
	if !allowed {
		return nil, common.ErrTooManyAttempts
	}

	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.failLogin(ctx, username)
			return nil, s.hasher.VerifyUnknown(password)
		}
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	if err := s.hasher.Verify(password, user.PasswordHash); err != nil {
		s.failLogin(ctx, username)
		return nil, common.ErrorUnauthorized
	}

	if err := s.limiter.Reset(ctx, username); err != nil {
		s.logger.Warn(ctx, "failed to reset login throttle", "error", err)
	}

	pair, err := s.generateTokenPair(ctx, s.db, user, s.now())
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return pair, nil
}

func (s *UserService) failLogin(ctx context.Context, username string) {
	if err := s.limiter.Fail(ctx, username); err != nil {
		s.logger.Warn(ctx, "failed to record login failure", "error", err)
	}
}

// RefreshToken exchanges an access/refresh pair for a new one. The access
// token may be expired but must carry a valid signature and belong to the
// same user as the refresh token. The stored refresh record is deleted
// before the new one is written, in one transaction, so a refresh token can
// be used at most once. A missing, already used or expired record all yield
// common.ErrRefreshTokenExpired.
func (s *UserService) RefreshToken(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error) {
	now := s.now()
	refreshToken = strings.TrimSpace(refreshToken)

	accessClaims, err := s.access.Validate(accessToken, now, false)
	if err != nil {
		return nil, err
	}

	refreshClaims, err := s.refresh.Parse(refreshToken)
	if err != nil {
		return nil, err
	}

	if accessClaims.UserID != refreshClaims.UserID {
		return nil, common.ErrInvalidSignature
	}

	var pair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.RefreshTokens(tx)

		token, err := repo.Find(ctx, refreshToken, accessClaims.UserID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrRefreshTokenExpired
			}
			return fmt.Errorf("error searching refresh token: %w", err)
		}

		// expired rows stay for the reaper
		if now.After(token.ExpiresAt) {
			return common.ErrRefreshTokenExpired
		}

		n, err := repo.Delete(ctx, refreshToken)
		if err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		if n == 0 {
			return common.ErrRefreshTokenExpired
		}

		user, err := s.repomanager.Users(tx).GetUserByID(ctx, accessClaims.UserID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrRefreshTokenExpired
			}
			return fmt.Errorf("error loading user: %w", err)
		}

		pair, err = s.generateTokenPair(ctx, tx, user, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug(ctx, "refresh token rotated", "user_id", pair.User.ID)
	return pair, nil
}

// Logout deletes the refresh token. Whether a row existed is not reported.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil
	}
	if _, err := s.repomanager.RefreshTokens(s.db).Delete(ctx, refreshToken); err != nil {
		return fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	return nil
}

// LogoutAll deletes every refresh token of the current user.
func (s *UserService) LogoutAll(ctx context.Context, current *models.CurrentUser) (int64, error) {
	if current == nil {
		return 0, common.ErrorUnauthorized
	}
	n, err := s.repomanager.RefreshTokens(s.db).DeleteAllForUser(ctx, current.UserID)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	s.logger.Info(ctx, "all sessions revoked", "user_id", current.UserID, "count", n)
	return n, nil
}

// GetUser returns the user with the given id.
func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.repomanager.Users(s.db).GetUserByID(ctx, id)
}

// FindUsers lists the users matching q.
func (s *UserService) FindUsers(ctx context.Context, q *users.Query) ([]*models.User, error) {
	return s.repomanager.Users(s.db).Find(ctx, q)
}

// UpdateUser changes the username and/or password of user id. Only the user
// itself may do so; anyone else gets common.ErrorUnauthorized before the
// store is touched. A password change revokes all refresh tokens of the
// user.
func (s *UserService) UpdateUser(ctx context.Context, current *models.CurrentUser, id int64, upd UserUpdate) (*models.User, error) {
	if !owns(current, id) {
		return nil, common.ErrorUnauthorized
	}

	var hash string
	if upd.Password != nil {
		if *upd.Password == "" {
			return nil, fmt.Errorf("%w: password must not be empty", common.ErrorValidation)
		}
		h, err := s.hasher.Hash(*upd.Password)
		if err != nil {
			return nil, err
		}
		hash = h
	}
	if upd.UserName != nil && strings.TrimSpace(*upd.UserName) == "" {
		return nil, fmt.Errorf("%w: username must not be empty", common.ErrorValidation)
	}

	var updated *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.GetUserByID(ctx, id)
		if err != nil {
			return err
		}
		if upd.UserName != nil {
			user.UserName = strings.TrimSpace(*upd.UserName)
		}
		if hash != "" {
			user.PasswordHash = hash
		}

		updated, err = repo.Update(ctx, user)
		if err != nil {
			return err
		}

		if hash != "" {
			if _, err := s.repomanager.RefreshTokens(tx).DeleteAllForUser(ctx, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user updated", "user_id", id, "password_changed", hash != "")
	return updated, nil
}

// DeleteUser removes user id; its refresh tokens are removed with it. Only
// the user itself may do so.
func (s *UserService) DeleteUser(ctx context.Context, current *models.CurrentUser, id int64) error {
	if !owns(current, id) {
		return common.ErrorUnauthorized
	}
	if err := s.repomanager.Users(s.db).Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "user deleted", "user_id", id)
	return nil
}

// --- helpers below ---

func owns(current *models.CurrentUser, id int64) bool {
	return current != nil && current.UserID == id
}

func (s *UserService) generateTokenPair(ctx context.Context, db dbx.DBTX, user *models.User, now time.Time) (*TokenPair, error) {
	access, err := s.access.Issue(user.ID, user.UserName, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	refresh, err := s.refresh.Issue(user.ID, user.UserName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	repo := s.repomanager.RefreshTokens(db)
	if err := repo.Upsert(ctx, refresh, user.ID, now.Add(s.refreshTokenValidityDuration)); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh, User: user}, nil
}
