package http

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/mirror520/taskboard/conf"
	"github.com/mirror520/taskboard/model"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims identify the caller. The subject is the user id the engine
// treats as the actor.
type Claims struct {
	jwt.RegisteredClaims
}

func (c *Claims) Actor() (model.ID, error) {
	id, err := model.ParseID(c.Subject)
	if err != nil {
		return model.ID{}, ErrInvalidToken
	}

	return id, nil
}

// TokenParser validates HS256 bearer tokens issued for this instance.
type TokenParser struct {
	secret []byte
	issuer string
	leeway time.Duration
}

func NewTokenParser(cfg conf.JWT, issuer string) *TokenParser {
	return &TokenParser{
		secret: cfg.Secret,
		issuer: issuer,
		leeway: 10 * time.Second,
	}
}

func (p *TokenParser) keyFn(t *jwt.Token) (any, error) {
	return p.secret, nil
}

func (p *TokenParser) Parse(tokenStr string, claims jwt.Claims) error {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(p.leeway),
		jwt.WithExpirationRequired(),
	}

	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}

	if _, err := jwt.ParseWithClaims(tokenStr, claims, p.keyFn, opts...); err != nil {
		return errors.Join(ErrInvalidToken, err)
	}

	return nil
}

func (p *TokenParser) ParseToken(ctx *gin.Context, claims jwt.Claims) error {
	tokenStr := ctx.GetHeader("Authorization")
	if !strings.HasPrefix(tokenStr, "Bearer ") {
		return ErrInvalidToken
	}

	tokenStr = strings.TrimPrefix(tokenStr, "Bearer ")

	return p.Parse(tokenStr, claims)
}

// NewToken signs a token for actor. Sessions are issued elsewhere; this
// serves tooling and tests sharing the secret.
func NewToken(cfg conf.JWT, issuer string, actor model.ID) (string, error) {
	now := time.Now()

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = time.Hour
	}

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   actor.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(timeout)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(cfg.Secret)
}
