// Package auth is responsible for authentication and authorization:
// user registration, login, JWT issuance and validation, and resolving a
// bearer token back to a user identity.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/libtrack-go/apperror"
	"github.com/user/libtrack-go/config"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolation = "23505"

// AuthService provides registration, login and token services.
type AuthService struct {
	db         *pgxpool.Pool
	authConfig config.AuthConfig
}

// NewAuthService creates a new AuthService.
func NewAuthService(db *pgxpool.Pool, authConfig config.AuthConfig) *AuthService {
	return &AuthService{
		db:         db,
		authConfig: authConfig,
	}
}

// CustomClaims is the JWT payload. Only the user id is carried; the role is
// looked up from the store on each privileged request so that a stale token
// can never grant permissions its user no longer has.
type CustomClaims struct {
	UserID int `json:"user_id"`
	jwt.RegisteredClaims
}

// Register creates a new user and returns it with a fresh token.
// The first user ever registered becomes the admin.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.NewInternalError("failed to hash password", err)
	}

	user := &User{
		Name:           req.Name,
		Email:          strings.ToLower(req.Email),
		HashedPassword: string(hashedPassword),
	}

	if err := s.createUser(ctx, user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			if strings.Contains(pgErr.ConstraintName, "email") {
				return nil, apperror.NewConflictError("email already exists", nil)
			}
			if strings.Contains(pgErr.ConstraintName, "name") {
				return nil, apperror.NewConflictError("name already exists", nil)
			}
		}
		return nil, apperror.NewDatabaseError("failed to create user", err)
	}

	token, err := s.GenerateToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, User: user}, nil
}

// Login authenticates a user by email and password and returns the user with
// a fresh token. The same message is returned whether the email is unknown or
// the password is wrong.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.getUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewUnauthorizedError("invalid email or password", nil)
		}
		log.Printf("database error in Login: %v", err)
		return nil, apperror.NewDatabaseError("failed to get user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
		return nil, apperror.NewUnauthorizedError("invalid email or password", nil)
	}

	token, err := s.GenerateToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, User: user}, nil
}

// GenerateToken creates a signed HS256 JWT for the given user id.
func (s *AuthService) GenerateToken(userID int) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.authConfig.TokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "libtrack",
			Subject:   fmt.Sprintf("%d", userID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.authConfig.JWTSecret))
	if err != nil {
		return "", apperror.NewInternalError("failed to sign token", err)
	}
	return tokenString, nil
}

// GetUserRole returns the role stored for the given user. It is the
// server-side check behind the admin middleware.
func (s *AuthService) GetUserRole(ctx context.Context, userID int) (string, error) {
	var role string
	err := s.db.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperror.NewUnauthorizedError("user no longer exists", nil)
		}
		return "", apperror.NewDatabaseError("failed to get user role", err)
	}
	return role, nil
}

// --- Database helpers ---

// createUser inserts the user. The role is decided inside the statement:
// when the users table is empty the new row gets the admin role.
func (s *AuthService) createUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (name, email, password, role)
		VALUES ($1, $2, $3,
			CASE WHEN NOT EXISTS (SELECT 1 FROM users) THEN 'admin' ELSE 'member' END)
		RETURNING id, role, borrowing_limit, created_at`
	return s.db.QueryRow(ctx, query, user.Name, user.Email, user.HashedPassword).
		Scan(&user.ID, &user.Role, &user.BorrowingLimit, &user.CreatedAt)
}

func (s *AuthService) getUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	query := `
		SELECT id, name, email, password, role, borrowing_limit, created_at
		FROM users
		WHERE email = $1`
	err := s.db.QueryRow(ctx, query, strings.ToLower(email)).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.HashedPassword,
		&user.Role,
		&user.BorrowingLimit,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
