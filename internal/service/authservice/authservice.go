package authservice

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GlebRadaev/stableflow/internal/domain"
	"github.com/GlebRadaev/stableflow/pkg/auth"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

//go:generate mockgen -source=authservice.go -destination=mock_authservice.go -package=authservice
type Repo interface {
	GetCredential(ctx context.Context, email string) (domain.Credential, error)
	SaveCredential(ctx context.Context, cred domain.Credential) (bool, error)
	CreateAccount(ctx context.Context, acc domain.UserAccount) (domain.UserAccount, error)
}

type Service struct {
	repo        Repo
	hashService auth.HashServiceInterface
	jwtService  auth.JWTServiceInterface
	tokenTTL    time.Duration
}

func New(repo Repo, hashService auth.HashServiceInterface, jwtService auth.JWTServiceInterface, tokenTTL time.Duration) *Service {
	return &Service{
		repo:        repo,
		hashService: hashService,
		jwtService:  jwtService,
		tokenTTL:    tokenTTL,
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", domain.NewValidationError("email", "Email address is not valid")
	}
	return email, nil
}

// Register creates a personal account. The credential is claimed first so two
// registrations of one email cannot both create an account.
func (s *Service) Register(ctx context.Context, email, password, displayName string) (domain.UserAccount, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return domain.UserAccount{}, err
	}
	hashedPassword, err := s.hashService.HashPassword(password)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			return domain.UserAccount{}, domain.NewValidationError("password", err.Error())
		}
		zap.L().Error("can't hash password", zap.Error(err))
		return domain.UserAccount{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return domain.UserAccount{}, err
	}

	created, err := s.repo.SaveCredential(ctx, domain.Credential{
		AccountID:    id.String(),
		Email:        email,
		PasswordHash: hashedPassword,
	})
	if err != nil {
		zap.L().Error("can't save credential", zap.Error(err))
		return domain.UserAccount{}, err
	}
	if !created {
		zap.L().Info("email already registered", zap.String("email", email))
		return domain.UserAccount{}, ErrEmailTaken
	}

	acc, err := s.repo.CreateAccount(ctx, domain.UserAccount{
		ID:          id.String(),
		Email:       email,
		DisplayName: strings.TrimSpace(displayName),
		AccountType: domain.AccountPersonal,
	})
	if err != nil {
		zap.L().Error("can't create account", zap.Error(err))
		return domain.UserAccount{}, err
	}

	zap.L().Info("user successfully registered", zap.String("account", acc.ID))
	return acc, nil
}

// Authenticate returns the account id for a matching email and password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (string, error) {
	cred, err := s.repo.GetCredential(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			zap.L().Error("can't read credential", zap.Error(err))
			return "", err
		}
		return "", ErrInvalidCredentials
	}
	if !s.hashService.ComparePassword(cred.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}
	zap.L().Info("user successfully authenticated", zap.String("account", cred.AccountID))
	return cred.AccountID, nil
}

func (s *Service) GenerateToken(userID string) (string, error) {
	token, err := s.jwtService.GenerateJWT(userID, time.Now().Add(s.tokenTTL))
	if err != nil {
		zap.L().Error("can't generate token", zap.Error(err))
		return "", err
	}
	return token, nil
}
