package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/campuscard/internal/domain/models"
)

// ErrUserNotFound is returned by a Repository for unknown user ids.
var ErrUserNotFound = errors.New("user not found")

// Record is a stored user plus its outstanding verification token hash.
type Record struct {
	User               models.User
	VerificationHash   string
	VerificationSentAt time.Time
}

func (r Record) state() State {
	s := FromUser(r.User)
	s.VerificationHash = r.VerificationHash
	s.VerificationSentAt = r.VerificationSentAt
	return s
}

func (r *Record) apply(s State) {
	s.ApplyTo(&r.User)
	r.VerificationHash = s.VerificationHash
	r.VerificationSentAt = s.VerificationSentAt
}

// Repository loads and saves records by user id.
type Repository interface {
	Load(ctx context.Context, userID models.ID) (Record, error)
	Save(ctx context.Context, rec Record) error
}

// Dispatcher delivers a plain verification token out of band.
type Dispatcher interface {
	DispatchVerification(ctx context.Context, user models.User, token string) error
}

// Machine applies lifecycle transitions to stored records.
type Machine struct {
	repo     Repository
	dispatch Dispatcher
	now      func() time.Time
}

// NewMachine returns a Machine over repo. dispatch may be nil, in which
// case issued tokens are only returned to the caller.
func NewMachine(repo Repository, dispatch Dispatcher) *Machine {
	return &Machine{repo: repo, dispatch: dispatch, now: time.Now}
}

// WithClock replaces the time source. Intended for tests.
func (m *Machine) WithClock(now func() time.Time) *Machine {
	m.now = now
	return m
}

func (m *Machine) Approve(ctx context.Context, userID models.ID) (models.User, error) {
	rec, err := m.repo.Load(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	next, changed, err := Approve(rec.state())
	if err != nil {
		return rec.User, err
	}
	if !changed {
		return rec.User, nil
	}
	rec.apply(next)
	return rec.User, m.repo.Save(ctx, rec)
}

func (m *Machine) Reject(ctx context.Context, userID models.ID, reason string) (models.User, error) {
	rec, err := m.repo.Load(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	next, err := Reject(rec.state(), reason)
	if err != nil {
		return rec.User, err
	}
	rec.apply(next)
	return rec.User, m.repo.Save(ctx, rec)
}

// SendVerification issues a fresh token, stores its hash and dispatches
// it. The plain token is returned for callers that expose it in testing
// mode.
func (m *Machine) SendVerification(ctx context.Context, userID models.ID) (string, error) {
	rec, err := m.repo.Load(ctx, userID)
	if err != nil {
		return "", err
	}
	next, token, err := IssueVerification(rec.state(), m.now())
	if err != nil {
		return "", err
	}
	rec.apply(next)
	if err := m.repo.Save(ctx, rec); err != nil {
		return "", err
	}
	if m.dispatch != nil {
		if err := m.dispatch.DispatchVerification(ctx, rec.User, token); err != nil {
			return "", fmt.Errorf("dispatch verification: %w", err)
		}
	}
	return token, nil
}

func (m *Machine) ConfirmVerification(ctx context.Context, userID models.ID, token string) (models.User, error) {
	rec, err := m.repo.Load(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	next, err := ConfirmVerification(rec.state(), token, m.now())
	if err != nil {
		return rec.User, err
	}
	rec.apply(next)
	return rec.User, m.repo.Save(ctx, rec)
}

// ChangeRole sets the role of userID. An actor may not change their own
// role.
func (m *Machine) ChangeRole(ctx context.Context, actorID, userID models.ID, role models.Role) (models.User, error) {
	if err := CheckRoleActor(actorID, userID); err != nil {
		return models.User{}, err
	}
	rec, err := m.repo.Load(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	next, err := ChangeRole(rec.state(), role)
	if err != nil {
		return rec.User, err
	}
	rec.apply(next)
	return rec.User, m.repo.Save(ctx, rec)
}
