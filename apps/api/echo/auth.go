package echoapi

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/user"
)

const (
	contextUserKey   = "user"
	contextClaimsKey = "userToken"
	tokenQueryParam  = "token"
)

var (
	errMissingToken     = core.NewAuthenticationError("missing or malformed jwt")
	errInvalidToken     = core.NewAuthenticationError("invalid or expired jwt")
	errRevokedToken     = core.NewAuthenticationError("token has been revoked")
	errUnknownAccount   = core.NewAuthenticationError("account not found")
	errUnauthorized     = core.NewAuthenticationError("user not authenticated")
	errRefreshExpired   = core.NewAuthorizationError("refresh has expired")
	errForbidden        = core.NewAuthorizationError("permission denied")
	errEmailNotVerified = core.NewAuthorizationError("email not verified")
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	Role         string `json:"role"`
	OrigIssuedAt int64  `json:"oriat,omitempty"`
}

// GenerateToken signs a HS256 token for the account. `origIat` carries the first issue time across refreshes.
func GenerateToken(conf *core.Config, usr user.User, origIat ...int64) (string, *Claims, error) {
	now := time.Now()
	oriat := now.Unix()
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    conf.AppName,
			Subject:   usr.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(conf.Server.JWTExpirationDelta)),
		},
		Role:         usr.Role,
		OrigIssuedAt: oriat,
	}
	ss, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", nil, errors.Wrap(err, "signing token")
	}
	return ss, claims, nil
}

type authenticator struct {
	conf     *core.Config
	users    user.ServiceInterface
	sessions core.SessionStore
}

func newAuthenticator(conf *core.Config, users user.ServiceInterface, sessions core.SessionStore) *authenticator {
	return &authenticator{conf: conf, users: users, sessions: sessions}
}

func (a *authenticator) parse(tokenStr string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(
		tokenStr,
		claims,
		func(*jwt.Token) (interface{}, error) { return []byte(a.conf.SecretKey), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, errInvalidToken
	}
	return claims, nil
}

// authenticate resolves the token to its account. Revoked tokens and blocked accounts are
// rejected here, before any role check runs.
func (a *authenticator) authenticate(ctx context.Context, tokenStr string) (user.User, *Claims, error) {
	claims, err := a.parse(tokenStr)
	if err != nil {
		return user.User{}, nil, err
	}
	revoked, err := a.sessions.IsRevoked(ctx, claims.ID)
	if err != nil {
		return user.User{}, nil, errors.Wrap(err, "checking token revocation")
	}
	if revoked {
		return user.User{}, nil, errRevokedToken
	}

	usr, err := a.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if core.IsNotFound(err) {
			return user.User{}, nil, errUnknownAccount
		}
		return user.User{}, nil, errors.Wrap(err, "finding user by ID")
	}
	if err = usr.Blocked(); err != nil {
		return user.User{}, nil, err
	}
	return usr, claims, nil
}

// middleware authenticates the bearer token of the request. Websocket clients, which cannot
// set headers, may pass it as the `token` query parameter instead.
func (a *authenticator) middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			tokenStr := bearerToken(ctx)
			if tokenStr == "" {
				return errMissingToken
			}
			usr, claims, err := a.authenticate(ctx.Request().Context(), tokenStr)
			if err != nil {
				return err
			}
			ctx.Set(contextUserKey, usr)
			ctx.Set(contextClaimsKey, claims)
			return next(ctx)
		}
	}
}

func bearerToken(ctx echo.Context) string {
	header := ctx.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return ctx.QueryParam(tokenQueryParam)
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// refresh issues a new token keeping the original issue time, and revokes the presented one.
func (a *authenticator) refresh(ctx echo.Context) (string, error) {
	usr, err := getContextUser(ctx)
	if err != nil {
		return "", err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", err
	}

	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(a.conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	token, _, err := GenerateToken(a.conf, usr, claims.OrigIssuedAt)
	if err != nil {
		return "", errors.Wrap(err, "generating token")
	}
	if err = a.revoke(ctx.Request().Context(), claims); err != nil {
		return "", err
	}
	return token, nil
}

// revoke blacklists the token until it would have expired anyway.
func (a *authenticator) revoke(ctx context.Context, claims *Claims) error {
	var ttl time.Duration
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	return errors.Wrap(a.sessions.Revoke(ctx, claims.ID, ttl), "revoking token")
}

func getContextClaims(ctx echo.Context) (*Claims, error) {
	if claims, ok := ctx.Get(contextClaimsKey).(*Claims); ok {
		return claims, nil
	}
	return nil, errUnauthorized
}

func getContextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}
	return user.User{}, errUnauthorized
}
