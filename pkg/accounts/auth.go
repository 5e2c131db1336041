package accounts

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sipcass/sipcass/pkg/authz"
	"github.com/sipcass/sipcass/pkg/metrics"
)

// ErrInvalidCredentials is returned for any failed login. It never says
// whether the id or the password was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Session is the result of a successful login or refresh.
type Session struct {
	authz.TokenPair
	User authz.Principal `json:"user"`
}

// Authenticator checks credentials and manages session tokens.
type Authenticator struct {
	store  *AccountStore
	tokens *authz.TokenIssuer
	logger *slog.Logger
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(store *AccountStore, tokens *authz.TokenIssuer, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{store: store, tokens: tokens, logger: logger}
}

// Login verifies employeeID and password and issues a token pair.
func (a *Authenticator) Login(ctx context.Context, employeeID, password string) (*Session, error) {
	acct, err := a.store.Get(ctx, employeeID)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	hash := string(dummyHash)
	if acct != nil {
		hash = acct.PasswordHash
	}
	if !CheckPassword(hash, password) || acct == nil {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		a.logger.Info("login failed", "employee_id", authz.NormalizeID(employeeID))
		return nil, ErrInvalidCredentials
	}

	p := acct.Principal()
	pair, err := a.tokens.Issue(p)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return &Session{TokenPair: pair, User: p}, nil
}

// Refresh exchanges a refresh token for a new pair and revokes the old one.
// The principal is reloaded so role changes apply.
func (a *Authenticator) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := a.tokens.VerifyRefresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	p, err := a.store.ResolvePrincipal(ctx, claims.Subject)
	if errors.Is(err, authz.ErrUnknownPrincipal) {
		return nil, authz.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if err := a.tokens.Revoke(ctx, claims); err != nil {
		return nil, err
	}
	pair, err := a.tokens.Issue(p)
	if err != nil {
		return nil, err
	}
	return &Session{TokenPair: pair, User: p}, nil
}

// Logout revokes a refresh token.
func (a *Authenticator) Logout(ctx context.Context, refreshToken string) error {
	claims, err := a.tokens.VerifyRefresh(ctx, refreshToken)
	if err != nil {
		return err
	}
	return a.tokens.Revoke(ctx, claims)
}
