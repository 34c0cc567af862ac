package authservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	authdomain "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/domain"
	authjwt "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/infrastructure/jwt"
	userdomain "github.com/Black-And-White-Club/ctf-platform/app/modules/user/domain"
	userdb "github.com/Black-And-White-Club/ctf-platform/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/apperr"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/attr"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/crypto/bcrypt"
)

// Config holds the configuration for the auth service.
type Config struct {
	TokenTTL         time.Duration
	RegistrationOpen bool
	// BcryptCost defaults to bcrypt.DefaultCost when zero.
	BcryptCost int
}

const DefaultTokenTTL = 24 * time.Hour

// service implements the Service interface.
type service struct {
	repo        userdb.Repository
	jwtProvider authjwt.Provider
	ranker      Ranker
	config      Config
	logger      *slog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewService creates a new auth service. ranker may be nil.
func NewService(
	jwtProvider authjwt.Provider,
	repo userdb.Repository,
	ranker Ranker,
	config Config,
	logger *slog.Logger,
	tracer trace.Tracer,
) Service {
	if config.TokenTTL <= 0 {
		config.TokenTTL = DefaultTokenTTL
	}
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("auth")
	}
	return &service{
		repo:        repo,
		jwtProvider: jwtProvider,
		ranker:      ranker,
		config:      config,
		logger:      logger,
		tracer:      tracer,
		now:         time.Now,
	}
}

// Register creates a player account.
func (s *service) Register(ctx context.Context, req RegisterRequest) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Register")
	defer span.End()

	if !s.config.RegistrationOpen {
		return 0, ErrRegistrationClosed
	}
	if req.Username == "" || req.Password == "" || req.Email == "" {
		return 0, apperr.Validation("Username, password and email are required!")
	}

	username, err := userdomain.NormalizeUsername(req.Username)
	if err != nil {
		return 0, err
	}
	email, err := userdomain.NormalizeEmail(req.Email)
	if err != nil {
		return 0, err
	}
	if err := userdomain.ValidatePassword(req.Password); err != nil {
		return 0, err
	}

	if err := s.ensureAvailable(ctx, username, email); err != nil {
		return 0, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BcryptCost)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &userdb.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Create(ctx, nil, user); err != nil {
		if errors.Is(err, userdb.ErrDuplicate) {
			return 0, apperr.Conflict("Username or email already exists!")
		}
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.InfoContext(ctx, "User registered",
		attr.UserID(user.ID),
		attr.String("username", user.Username),
		attr.ExtractCorrelationID(ctx),
	)
	s.invalidateBoard(ctx)
	return user.ID, nil
}

// Login verifies the password and returns a signed token.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Login")
	defer span.End()

	if req.Username == "" || req.Password == "" {
		return nil, apperr.Validation("Username and password are required!")
	}

	user, err := s.repo.GetByUsername(ctx, nil, req.Username)
	if err != nil {
		if errors.Is(err, userdb.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		s.logger.WarnContext(ctx, "Login rejected",
			attr.String("username", req.Username),
			attr.ExtractCorrelationID(ctx),
		)
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	now := s.now()
	token, err := s.jwtProvider.GenerateToken(&authdomain.Claims{
		UserID:   user.ID,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
	}, s.config.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	if err := s.repo.TouchLastLogin(ctx, nil, user.ID, now.UTC()); err != nil {
		s.logger.WarnContext(ctx, "Failed to record last login",
			attr.UserID(user.ID),
			attr.Error(err),
		)
	}

	return &LoginResponse{
		Token:     token,
		ExpiresAt: now.Add(s.config.TokenTTL).UTC(),
		User: AccountSummary{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			IsAdmin:  user.IsAdmin,
		},
	}, nil
}

// Authenticate turns a bearer token into the caller's identity.
func (s *service) Authenticate(ctx context.Context, token string) (authdomain.Identity, error) {
	if token == "" {
		return authdomain.Identity{}, ErrTokenMissing
	}

	claims, err := s.jwtProvider.ValidateToken(token)
	if err != nil {
		if errors.Is(err, authjwt.ErrExpiredToken) {
			return authdomain.Identity{}, ErrTokenExpired
		}
		return authdomain.Identity{}, ErrTokenInvalid
	}

	user, err := s.repo.GetByID(ctx, nil, claims.UserID)
	if err != nil {
		if errors.Is(err, userdb.ErrNotFound) {
			return authdomain.Identity{}, ErrTokenInvalid
		}
		return authdomain.Identity{}, fmt.Errorf("failed to load token subject: %w", err)
	}
	if !user.IsActive {
		return authdomain.Identity{}, ErrAccountDisabled
	}

	return authdomain.Identity{
		UserID:   user.ID,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
	}, nil
}

// Profile returns the caller's account.
func (s *service) Profile(ctx context.Context, userID int64) (*Profile, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Profile")
	defer span.End()

	user, err := s.repo.GetByID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, userdb.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	profile := &Profile{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		IsAdmin:   user.IsAdmin,
		Score:     user.Score,
		CreatedAt: user.CreatedAt,
		LastLogin: user.LastLogin,
	}

	if s.ranker != nil && !user.IsAdmin {
		rank, err := s.ranker.UserRank(ctx, user.ID)
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to resolve user rank",
				attr.UserID(user.ID),
				attr.Error(err),
			)
		} else {
			profile.Rank = rank
		}
	}

	return profile, nil
}

// UpdateProfile changes email and/or password. Empty fields are ignored.
func (s *service) UpdateProfile(ctx context.Context, userID int64, req UpdateProfileRequest) error {
	ctx, span := s.tracer.Start(ctx, "AuthService.UpdateProfile")
	defer span.End()

	fields := &userdb.UserUpdateFields{}
	if req.Email != "" {
		email, err := userdomain.NormalizeEmail(req.Email)
		if err != nil {
			return err
		}
		existing, err := s.repo.GetByEmail(ctx, nil, email)
		switch {
		case err == nil && existing.ID != userID:
			return ErrEmailTaken
		case err != nil && !errors.Is(err, userdb.ErrNotFound):
			return fmt.Errorf("failed to check email: %w", err)
		}
		fields.Email = &email
	}
	if req.Password != "" {
		if err := userdomain.ValidatePassword(req.Password); err != nil {
			return err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BcryptCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		h := string(hash)
		fields.PasswordHash = &h
	}
	if fields.IsEmpty() {
		return nil
	}

	if err := s.repo.Update(ctx, nil, userID, fields); err != nil {
		switch {
		case errors.Is(err, userdb.ErrNoRowsAffected):
			return apperr.NotFound("user not found")
		case errors.Is(err, userdb.ErrDuplicate):
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// EnsureAdmin creates the bootstrap admin, or re-grants admin rights to an
// existing account with that username. An empty password skips creation.
func (s *service) EnsureAdmin(ctx context.Context, username, email, password string) error {
	existing, err := s.repo.GetByUsername(ctx, nil, username)
	switch {
	case err == nil:
		if existing.IsAdmin {
			return nil
		}
		isAdmin := true
		if err := s.repo.Update(ctx, nil, existing.ID, &userdb.UserUpdateFields{IsAdmin: &isAdmin}); err != nil {
			return fmt.Errorf("failed to promote bootstrap admin: %w", err)
		}
		s.logger.InfoContext(ctx, "Bootstrap admin promoted", attr.UserID(existing.ID))
		s.invalidateBoard(ctx)
		return nil
	case !errors.Is(err, userdb.ErrNotFound):
		return fmt.Errorf("failed to look up bootstrap admin: %w", err)
	}

	if password == "" {
		s.logger.WarnContext(ctx, "Bootstrap admin missing and no password configured",
			attr.String("username", username),
		)
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	admin := &userdb.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsAdmin:      true,
		IsActive:     true,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Create(ctx, nil, admin); err != nil {
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}
	s.logger.InfoContext(ctx, "Bootstrap admin created",
		attr.UserID(admin.ID),
		attr.String("username", username),
	)
	return nil
}

func (s *service) invalidateBoard(ctx context.Context) {
	if s.ranker != nil {
		s.ranker.Invalidate(ctx)
	}
}

func (s *service) ensureAvailable(ctx context.Context, username, email string) error {
	if _, err := s.repo.GetByUsername(ctx, nil, username); err == nil {
		return ErrUsernameTaken
	} else if !errors.Is(err, userdb.ErrNotFound) {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if _, err := s.repo.GetByEmail(ctx, nil, email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, userdb.ErrNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}
	return nil
}
