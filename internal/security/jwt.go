package security

import (
	"crypto/rsa"
	"time"

	"github.com/cwrk-planet/realtime-service/internal/domain"

	"github.com/golang-jwt/jwt"
)

// AccessClaims — клеймы access-токена, которые выпускает auth-service.
// Используется SigningMethodRS256, sub = user id.
type AccessClaims struct {
	jwt.StandardClaims
	Role  string `json:"role"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// TokenVerifier — верификатор без права подписи: у realtime-service
// есть только публичный ключ auth-service.
type TokenVerifier struct {
	public    *rsa.PublicKey
	issuer    string
	audience  string
	clockSkew time.Duration
}

func NewTokenVerifier(public *rsa.PublicKey, issuer, audience string, clockSkew time.Duration) *TokenVerifier {
	return &TokenVerifier{
		public:    public,
		issuer:    issuer,
		audience:  audience,
		clockSkew: clockSkew,
	}
}

// Verify разбирает и проверяет токен, возвращая Identity из клеймов
func (v *TokenVerifier) Verify(tokenStr string) (domain.Identity, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok || t.Method.Alg() != jwt.SigningMethodRS256.Alg() {
			return nil, domain.ErrInvalidToken
		}
		return v.public, nil
	})
	if err != nil {
		return domain.Identity{}, err
	}
	if !token.Valid {
		return domain.Identity{}, domain.ErrInvalidToken
	}

	now := time.Now()

	// issuer
	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return domain.Identity{}, domain.ErrInvalidIssuer
	}
	// audience
	if v.audience != "" && !claims.VerifyAudience(v.audience, true) {
		return domain.Identity{}, domain.ErrInvalidAudience
	}

	// временные клеймы с допуском clockSkew
	nbf := time.Unix(claims.NotBefore, 0).Add(-v.clockSkew)
	exp := time.Unix(claims.ExpiresAt, 0).Add(v.clockSkew)
	if now.Before(nbf) || now.After(exp) {
		return domain.Identity{}, domain.ErrTokenExpired
	}

	if claims.Subject == "" {
		return domain.Identity{}, domain.ErrInvalidSubject
	}
	role, ok := domain.ParseRole(claims.Role)
	if !ok {
		return domain.Identity{}, domain.ErrUnknownRole
	}

	return domain.Identity{
		ID:    claims.Subject,
		Role:  role,
		Name:  claims.Name,
		Email: claims.Email,
	}, nil
}
