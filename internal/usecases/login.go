package usecases

import (
	"context"
	"errors"

	"leaderdesk/internal/domain"
	"leaderdesk/pkg/log"
)

// IdentityBackend is the slice of the identity provider the login flow
// needs.
type IdentityBackend interface {
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	Profile(ctx context.Context, userID string) (*domain.Leader, error)
	TouchLastLogin(ctx context.Context, userID string) error
}

// Login authenticates a leader and loads their profile. A session for
// a user with no leader row, or with an inactive one, is rejected —
// the dashboard is for active team leaders only.
type Login struct {
	identity IdentityBackend
}

func NewLogin(identity IdentityBackend) *Login {
	return &Login{identity: identity}
}

func (u *Login) Execute(ctx context.Context, email, password string) (*domain.Session, *domain.Leader, error) {
	session, err := u.identity.SignIn(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}

	leader, err := u.identity.Profile(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrLeaderNotFound) {
			log.GlobalWarnCtx(ctx, "authenticated user has no leader profile", "user_id", session.UserID)
		}
		return nil, nil, err
	}
	if !leader.IsActive {
		return nil, nil, domain.ErrLeaderInactive
	}

	// Best effort; a failed timestamp update must not block the login.
	if err := u.identity.TouchLastLogin(ctx, session.UserID); err != nil {
		log.GlobalWarnCtx(ctx, "could not update last login", "user_id", session.UserID, "error", err)
	}

	return session, leader, nil
}
