package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"churchhub_backend/internals/configs"
	"churchhub_backend/internals/features/users/auth/dto"
	authRepo "churchhub_backend/internals/features/users/auth/repository"
	userModel "churchhub_backend/internals/features/users/model"
	helper "churchhub_backend/internals/helpers"
)

const minPasswordLen = 8

var ErrInvalidToken = errors.New("invalid token")

// Claims is the access token body.
type Claims struct {
	Typ  string `json:"typ"`
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type AuthService struct {
	DB  *gorm.DB
	JWT configs.JWTConfig
	now func() time.Time
}

func NewAuthService(db *gorm.DB, cfg configs.JWTConfig) *AuthService {
	return &AuthService{DB: db, JWT: cfg, now: func() time.Time { return time.Now().UTC() }}
}

// Login checks credentials and issues an HS256 access token.
// Unknown email and wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := helper.Validate.Struct(req); err != nil {
		return nil, err
	}

	user, err := authRepo.FindUserByEmail(ctx, s.DB, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, helper.NewAuthError("invalid email or password")
		}
		return nil, helper.NewInternal("load user", err)
	}
	if err := CheckPasswordHash(user.Password, req.Password); err != nil {
		zap.L().Info("login rejected", zap.String("email", req.Email))
		return nil, helper.NewAuthError("invalid email or password")
	}
	if !user.IsActive {
		return nil, helper.NewForbidden("account is disabled")
	}

	token, exp, err := s.IssueToken(user)
	if err != nil {
		return nil, helper.NewInternal("issue token", err)
	}
	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   exp,
		User: dto.LoginUser{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Role:  user.Role,
		},
	}, nil
}

func (s *AuthService) IssueToken(user *userModel.User) (string, time.Time, error) {
	if s.JWT.Secret == "" {
		return "", time.Time{}, errors.New("jwt secret is empty")
	}
	ttl := s.JWT.TTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	now := s.now()
	exp := now.Add(ttl)
	claims := Claims{
		Typ:  "access",
		Role: user.Role,
		Name: user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.JWT.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseToken verifies signature, algorithm and expiry.
func (s *AuthService) ParseToken(raw string) (*Claims, uuid.UUID, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.JWT.Secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Typ != "access" {
		return nil, uuid.Nil, ErrInvalidToken
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, uuid.Nil, ErrInvalidToken
	}
	return claims, id, nil
}

// SeedAdmin creates or updates a SUPER_ADMIN with the given credentials.
// It reports whether a new row was created.
func (s *AuthService) SeedAdmin(ctx context.Context, email, password, name string) (*userModel.User, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := helper.Validate.Var(email, "required,email"); err != nil {
		return nil, false, helper.NewValidationError("email", "must be a valid email")
	}
	if len(password) < minPasswordLen {
		return nil, false, helper.NewValidationError("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, false, err
	}

	user, err := authRepo.FindUserByEmail(ctx, s.DB, email)
	switch {
	case err == nil:
		user.Password = hash
		user.Role = userModel.RoleSuperAdmin
		user.IsActive = true
		if strings.TrimSpace(name) != "" {
			user.Name = strings.TrimSpace(name)
		}
		if err := s.DB.WithContext(ctx).Save(user).Error; err != nil {
			return nil, false, fmt.Errorf("update admin: %w", err)
		}
		return user, false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = &userModel.User{
			Name:     strings.TrimSpace(name),
			Email:    email,
			Password: hash,
			Role:     userModel.RoleSuperAdmin,
			IsActive: true,
		}
		if err := s.DB.WithContext(ctx).Create(user).Error; err != nil {
			return nil, false, fmt.Errorf("create admin: %w", err)
		}
		return user, true, nil
	default:
		return nil, false, fmt.Errorf("load admin: %w", err)
	}
}

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func CheckPasswordHash(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (s *AuthService) Me(ctx context.Context, id uuid.UUID) (*userModel.User, error) {
	user, err := authRepo.FindUserByID(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, helper.NewNotFound("user not found")
		}
		return nil, helper.NewInternal("load user", err)
	}
	return user, nil
}
