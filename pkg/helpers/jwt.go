package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingSecret = errors.New("jwt secret is not configured")
	ErrInvalidToken  = errors.New("invalid token")
)

// DefaultTokenTTL is how long an access token stays valid.
const DefaultTokenTTL = 7 * 24 * time.Hour

// TokenClaims is the identity carried by an access token.
type TokenClaims struct {
	Subject    string
	Email      string
	Name       string
	RollNumber string
	Role       string
}

// Claims is the signed payload: {sub, email, name, rollno, role, iat, exp}.
type Claims struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	RollNo string `json:"rollno"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager signs and validates HS256 access tokens.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTManager(secret string, ttl time.Duration) (*JWTManager, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &JWTManager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// WithClock swaps the time source. Used by tests.
func (m *JWTManager) WithClock(now func() time.Time) *JWTManager {
	m.now = now
	return m
}

func (m *JWTManager) TTL() time.Duration { return m.ttl }

// Issue signs c and returns the token with its expiry.
func (m *JWTManager) Issue(c TokenClaims) (string, time.Time, error) {
	iat := m.now().Truncate(time.Second)
	exp := iat.Add(m.ttl)
	claims := &Claims{
		Email:  c.Email,
		Name:   c.Name,
		RollNo: c.RollNumber,
		Role:   c.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.Subject,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(m.secret)
	return s, exp, err
}

// Parse validates signature, algorithm and expiry.
func (m *JWTManager) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	},
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if !tkn.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
