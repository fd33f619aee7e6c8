package service

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 6

var (
	ErrUserAlreadyExists    = errors.New("Essa conta já está registrada")
	ErrAuthenticationFailed = errors.New("E-mail ou senha inválidos.")
	ErrNotCoach             = errors.New("Acesso negado: esta conta não é ADMIN.")
	ErrNoSession            = errors.New("Sem sessão")
	ErrSessionExpired       = errors.New("session expired")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
)

// Session is an authenticated credential.
type Session struct {
	AccessToken string             `json:"accessToken"`
	TokenID     string             `json:"-"`
	UserID      primitive.ObjectID `json:"userId"`
	Role        domain.Role        `json:"role"`
	ExpiresAt   time.Time          `json:"expiresAt"`
}

// UserUpdate carries the fields of update-user; nil fields are left alone.
type UserUpdate struct {
	Email    *string
	Password *string
	Metadata map[string]string
}

type AuthService interface {
	SignUp(ctx context.Context, name, email, password string) (*domain.User, error)
	SignIn(ctx context.Context, email, password string) (*Session, *domain.User, error)
	// SignInCoach is SignIn that only admits coach accounts.
	SignInCoach(ctx context.Context, email, password string) (*Session, *domain.User, error)
	// SignOut revokes the token. A missing or already invalid session is not an error.
	SignOut(ctx context.Context, token string) error
	Refresh(ctx context.Context, token string) (*Session, error)
	GetSession(ctx context.Context, token string) (*Session, error)
	GetUser(ctx context.Context, userID primitive.ObjectID) (*domain.User, error)
	UpdateUser(ctx context.Context, userID primitive.ObjectID, update UserUpdate) (*domain.User, error)
	// SubscribeAuthEvents streams the auth events of one user until the
	// returned cancel func is called.
	SubscribeAuthEvents(userID primitive.ObjectID) (<-chan AuthEvent, func())
}

// authService implements the AuthService interface.
type authService struct {
	userRepo      repository.UserRepository
	jwtSecret     string
	jwtExpiration time.Duration
	revoked       *cache.Cache
	events        *authBroker
	now           func() time.Time
}

// NewAuthService creates a new instance of authService.
func NewAuthService(userRepo repository.UserRepository, jwtSecret string, jwtExpiration time.Duration) AuthService {
	return newAuthService(userRepo, jwtSecret, jwtExpiration)
}

func newAuthService(userRepo repository.UserRepository, jwtSecret string, jwtExpiration time.Duration) *authService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty")
	}
	if jwtExpiration <= 0 {
		jwtExpiration = time.Hour
	}
	return &authService{
		userRepo:      userRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		// entries expire with the token they revoke
		revoked: cache.New(jwtExpiration, 10*time.Minute),
		events:  newAuthBroker(),
		now:     time.Now,
	}
}

// SignUp registers a student account.
func (s *authService) SignUp(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, invalid("form", "Preencha todos os campos.")
	}
	if len(password) < MinPasswordLength {
		return nil, invalid("password", fmt.Sprintf("A senha precisa ter pelo menos %d caracteres.", MinPasswordLength))
	}

	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         domain.RoleStudent,
	}
	userID, err := s.userRepo.Create(ctx, user)
	if err != nil {
		// unique index caught a concurrent registration
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	user.ID = userID
	user.PasswordHash = ""
	return user, nil
}

func (s *authService) SignIn(ctx context.Context, email, password string) (*Session, *domain.User, error) {
	user, err := s.authenticate(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	return s.startSession(user)
}

func (s *authService) SignInCoach(ctx context.Context, email, password string) (*Session, *domain.User, error) {
	user, err := s.authenticate(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	if !user.IsCoach() {
		log.Infof("auth: coach sign-in refused for %s (role %q)", user.ID.Hex(), user.Role)
		return nil, nil, ErrNotCoach
	}
	return s.startSession(user)
}

func (s *authService) authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, invalid("form", "Preencha e-mail e senha.")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAuthenticationFailed
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrAuthenticationFailed
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *authService) startSession(user *domain.User) (*Session, *domain.User, error) {
	session, err := s.issue(user.ID, user.Role)
	if err != nil {
		return nil, nil, ErrTokenGeneration
	}
	s.events.publish(AuthEvent{Type: AuthSignedIn, UserID: user.ID, Session: session})
	return session, user, nil
}

func (s *authService) SignOut(_ context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		log.Debugf("auth: sign-out without a valid session: %s", err)
		return nil
	}
	s.revoke(claims)

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil
	}
	s.events.publish(AuthEvent{Type: AuthSignedOut, UserID: userID})
	return nil
}

func (s *authService) Refresh(_ context.Context, token string) (*Session, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, ErrNoSession
	}

	session, err := s.issue(userID, claims.Role)
	if err != nil {
		return nil, ErrTokenGeneration
	}
	s.revoke(claims)
	s.events.publish(AuthEvent{Type: AuthTokenRefreshed, UserID: userID, Session: session})
	return session, nil
}

func (s *authService) GetSession(_ context.Context, token string) (*Session, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, ErrNoSession
	}
	return &Session{
		AccessToken: token,
		TokenID:     claims.ID,
		UserID:      userID,
		Role:        claims.Role,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

func (s *authService) GetUser(ctx context.Context, userID primitive.ObjectID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// UpdateUser applies email, password and metadata changes in that order and
// stops at the first failure.
func (s *authService) UpdateUser(ctx context.Context, userID primitive.ObjectID, update UserUpdate) (*domain.User, error) {
	if update.Email != nil {
		email := normalizeEmail(*update.Email)
		if !strings.Contains(email, "@") {
			return nil, invalid("email", "Digite um e-mail válido.")
		}
		existing, err := s.userRepo.GetByEmail(ctx, email)
		switch {
		case err == nil && existing.ID != userID:
			return nil, ErrUserAlreadyExists
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return nil, err
		}
		if err := s.userRepo.UpdateEmail(ctx, userID, email); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, ErrUserAlreadyExists
			}
			return nil, err
		}
	}

	if update.Password != nil {
		if len(*update.Password) < MinPasswordLength {
			return nil, invalid("password", fmt.Sprintf("A senha precisa ter pelo menos %d caracteres.", MinPasswordLength))
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*update.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, ErrHashingFailed
		}
		if err := s.userRepo.UpdatePasswordHash(ctx, userID, string(hash)); err != nil {
			return nil, err
		}
	}

	if len(update.Metadata) > 0 {
		if err := s.userRepo.MergeMetadata(ctx, userID, update.Metadata); err != nil {
			return nil, err
		}
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.events.publish(AuthEvent{Type: AuthUserUpdated, UserID: userID})
	return user, nil
}

func (s *authService) SubscribeAuthEvents(userID primitive.ObjectID) (<-chan AuthEvent, func()) {
	return s.events.subscribe(userID)
}

// --- JWT helpers ---

// jwtClaims is the payload of a session token.
type jwtClaims struct {
	UserID string      `json:"uid"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

func (s *authService) issue(userID primitive.ObjectID, role domain.Role) (*Session, error) {
	now := s.now()
	expiresAt := now.Add(s.jwtExpiration)
	claims := &jwtClaims{
		UserID: userID.Hex(),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.Hex(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "fitcoach",
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, err
	}
	return &Session{
		AccessToken: signed,
		TokenID:     claims.ID,
		UserID:      userID,
		Role:        role,
		ExpiresAt:   expiresAt,
	}, nil
}

func (s *authService) parse(token string) (*jwtClaims, error) {
	if token == "" {
		return nil, ErrNoSession
	}
	claims := &jwtClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, ErrNoSession
	}
	if !parsed.Valid || claims.UserID == "" || claims.ID == "" {
		return nil, ErrNoSession
	}
	if _, revoked := s.revoked.Get(claims.ID); revoked {
		return nil, ErrNoSession
	}
	return claims, nil
}

func (s *authService) revoke(claims *jwtClaims) {
	ttl := cache.DefaultExpiration
	if claims.ExpiresAt != nil {
		if remaining := time.Until(claims.ExpiresAt.Time); remaining > 0 {
			ttl = remaining
		}
	}
	s.revoked.Set(claims.ID, struct{}{}, ttl)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
