// Package moderation carries out administrator actions on CampusCard
// accounts.
//
// Every action follows the same sequence: require an ADMIN actor, fetch
// the current record, check the transition against the lifecycle rules,
// call the API, and audit the outcome. The API stays authoritative; the
// local check only stops requests that are certain to fail.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dalemusser/campuscard/internal/app/store/audit"
	"github.com/dalemusser/campuscard/internal/app/system/apiclient"
	"github.com/dalemusser/campuscard/internal/app/system/apperr"
	"github.com/dalemusser/campuscard/internal/app/system/auditlog"
	"github.com/dalemusser/campuscard/internal/app/system/auth"
	"github.com/dalemusser/campuscard/internal/domain/lifecycle"
	"github.com/dalemusser/campuscard/internal/domain/models"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// MaxReasonLength bounds a rejection reason.
const MaxReasonLength = 500

// API is the part of the CampusCard API the service drives.
type API interface {
	ListUsers(ctx context.Context, token string) ([]models.User, error)
	ListPendingUsers(ctx context.Context, token string) ([]models.User, error)
	GetUser(ctx context.Context, token string, id models.ID) (models.User, error)
	DashboardStats(ctx context.Context, token string) (models.DashboardStats, error)
	ApproveUser(ctx context.Context, token string, id models.ID) (models.User, error)
	RejectUser(ctx context.Context, token string, id models.ID, reason string) (models.User, error)
	SendVerification(ctx context.Context, token string, id models.ID) (apiclient.VerificationResult, error)
	VerifyEmail(ctx context.Context, token string, id models.ID, verificationToken string) error
	ChangeRole(ctx context.Context, token string, id models.ID, role models.Role) (models.User, error)
}

// Actor is who performs an action. Request is optional and only feeds the
// audit trail.
type Actor struct {
	Token   string
	ID      models.ID
	Role    models.Role
	Request *http.Request
}

// ActorFrom builds the actor from the session loaded for r.
func ActorFrom(r *http.Request) Actor {
	s, ok := auth.CurrentSession(r)
	if !ok {
		return Actor{Request: r}
	}
	return Actor{Token: s.Token, ID: s.UserID, Role: s.Role, Request: r}
}

// Service runs moderation actions.
type Service struct {
	api      API
	audit    *auditlog.Logger
	validate *validator.Validate
	log      *zap.Logger
}

// New returns a Service. auditLog may be nil.
func New(api API, auditLog *auditlog.Logger, logger *zap.Logger) *Service {
	return &Service{
		api:      api,
		audit:    auditLog,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      logger,
	}
}

type userInput struct {
	UserID string `validate:"required"`
}

type rejectInput struct {
	UserID string `validate:"required"`
	Reason string `validate:"max=500"`
}

type verifyInput struct {
	UserID string `validate:"required"`
	Token  string `validate:"required,uuid|hexadecimal"`
}

type roleInput struct {
	UserID string `validate:"required"`
	Role   string `validate:"required,oneof=STUDENT ADMIN"`
}

// requireAdmin stops non-admin actors before any API call.
func requireAdmin(a Actor) error {
	if a.Token == "" {
		return &apperr.UnauthorizedError{Message: "sign in required"}
	}
	if a.Role != models.RoleAdmin {
		return &apperr.ForbiddenError{Message: "administrator role required"}
	}
	return nil
}

func (s *Service) check(in any) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := jsonName(fe.Field())
		msg := fieldMessage(fe)
		fields[name] = msg
		parts = append(parts, name+": "+msg)
	}
	return &apperr.ValidationError{Message: strings.Join(parts, ", "), Fields: fields}
}

func jsonName(field string) string {
	switch field {
	case "UserID":
		return "userId"
	case "Reason":
		return "rejectionReason"
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of " + fe.Param()
	case "uuid|hexadecimal":
		return "is not a valid verification token"
	}
	return "is invalid"
}

// transitionError treats a 400 from a transition endpoint as the API
// refusing the transition.
func transitionError(action lifecycle.Action, err error) error {
	var ve *apperr.ValidationError
	if errors.As(err, &ve) && len(ve.Fields) == 0 {
		return &lifecycle.InvalidTransition{Action: action, Reason: ve.Message, Err: err}
	}
	return err
}

// load fetches the record the action will be checked against.
func (s *Service) load(ctx context.Context, a Actor, id models.ID) (models.User, error) {
	u, err := s.api.GetUser(ctx, a.Token, id)
	if err != nil {
		return models.User{}, fmt.Errorf("load user %s: %w", id, err)
	}
	return u, nil
}

func (s *Service) record(ctx context.Context, a Actor, eventType string, id models.ID, details map[string]string, err error) {
	// Authentication failures end the session and are audited as logout.
	if errors.Is(err, apperr.ErrUnauthorized) {
		return
	}
	s.audit.Transition(ctx, a.Request, eventType, a.ID, id, details, err)
}

// Approve moves a user to APPROVED. Approving an approved user returns it
// unchanged without calling the API.
func (s *Service) Approve(ctx context.Context, a Actor, id models.ID) (models.User, error) {
	if err := requireAdmin(a); err != nil {
		return models.User{}, err
	}
	if err := s.check(userInput{UserID: id.String()}); err != nil {
		return models.User{}, err
	}

	u, err := s.load(ctx, a, id)
	if err != nil {
		return models.User{}, err
	}
	_, changed, err := lifecycle.Approve(lifecycle.FromUser(u))
	if err != nil {
		s.record(ctx, a, audit.EventUserApproved, id, nil, err)
		return models.User{}, err
	}
	if !changed {
		return u, nil
	}

	out, err := s.api.ApproveUser(ctx, a.Token, id)
	err = transitionError(lifecycle.ActionApprove, err)
	s.record(ctx, a, audit.EventUserApproved, id, map[string]string{"from_status": u.Status.String()}, err)
	if err != nil {
		return models.User{}, fmt.Errorf("approve user %s: %w", id, err)
	}
	return out, nil
}

// Reject moves a user to REJECTED with an optional reason.
func (s *Service) Reject(ctx context.Context, a Actor, id models.ID, reason string) (models.User, error) {
	if err := requireAdmin(a); err != nil {
		return models.User{}, err
	}
	reason = strings.TrimSpace(reason)
	if err := s.check(rejectInput{UserID: id.String(), Reason: reason}); err != nil {
		return models.User{}, err
	}

	u, err := s.load(ctx, a, id)
	if err != nil {
		return models.User{}, err
	}
	details := map[string]string{"from_status": u.Status.String(), "reason": reason}
	if _, err := lifecycle.Reject(lifecycle.FromUser(u), reason); err != nil {
		s.record(ctx, a, audit.EventUserRejected, id, details, err)
		return models.User{}, err
	}

	out, err := s.api.RejectUser(ctx, a.Token, id, reason)
	err = transitionError(lifecycle.ActionReject, err)
	s.record(ctx, a, audit.EventUserRejected, id, details, err)
	if err != nil {
		return models.User{}, fmt.Errorf("reject user %s: %w", id, err)
	}
	return out, nil
}

// SendVerification asks the API to issue a fresh verification token. Each
// call replaces the outstanding token.
func (s *Service) SendVerification(ctx context.Context, a Actor, id models.ID) (apiclient.VerificationResult, error) {
	if err := requireAdmin(a); err != nil {
		return apiclient.VerificationResult{}, err
	}
	if err := s.check(userInput{UserID: id.String()}); err != nil {
		return apiclient.VerificationResult{}, err
	}

	u, err := s.load(ctx, a, id)
	if err != nil {
		return apiclient.VerificationResult{}, err
	}
	if err := lifecycle.CanSendVerification(lifecycle.FromUser(u)); err != nil {
		s.record(ctx, a, audit.EventVerificationSent, id, nil, err)
		return apiclient.VerificationResult{}, err
	}

	res, err := s.api.SendVerification(ctx, a.Token, id)
	err = transitionError(lifecycle.ActionSendVerification, err)
	s.record(ctx, a, audit.EventVerificationSent, id, map[string]string{"email": u.Email}, err)
	if err != nil {
		return apiclient.VerificationResult{}, fmt.Errorf("send verification to %s: %w", id, err)
	}
	return res, nil
}

// ConfirmVerification marks a user's email verified when token matches
// the outstanding one.
func (s *Service) ConfirmVerification(ctx context.Context, a Actor, id models.ID, token string) error {
	if err := requireAdmin(a); err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if err := s.check(verifyInput{UserID: id.String(), Token: token}); err != nil {
		return err
	}

	u, err := s.load(ctx, a, id)
	if err != nil {
		return err
	}
	if err := lifecycle.CanConfirmVerification(lifecycle.FromUser(u)); err != nil {
		s.record(ctx, a, audit.EventEmailVerified, id, nil, err)
		return err
	}

	err = transitionError(lifecycle.ActionConfirmVerification, s.api.VerifyEmail(ctx, a.Token, id, token))
	s.record(ctx, a, audit.EventEmailVerified, id, nil, err)
	if err != nil {
		return fmt.Errorf("verify email of %s: %w", id, err)
	}
	return nil
}

// ChangeRole sets a user's role. Administrators cannot change their own.
func (s *Service) ChangeRole(ctx context.Context, a Actor, id models.ID, role string) (models.User, error) {
	if err := requireAdmin(a); err != nil {
		return models.User{}, err
	}
	parsed, ok := models.ParseRole(role)
	if ok {
		role = parsed.String()
	}
	if err := s.check(roleInput{UserID: id.String(), Role: role}); err != nil {
		return models.User{}, err
	}
	if err := lifecycle.CheckRoleActor(a.ID, id); err != nil {
		s.record(ctx, a, audit.EventRoleChanged, id, map[string]string{"role": role}, err)
		return models.User{}, err
	}

	u, err := s.load(ctx, a, id)
	if err != nil {
		return models.User{}, err
	}
	details := map[string]string{"from_role": u.Role.String(), "role": role}
	if _, err := lifecycle.ChangeRole(lifecycle.FromUser(u), parsed); err != nil {
		s.record(ctx, a, audit.EventRoleChanged, id, details, err)
		return models.User{}, err
	}

	out, err := s.api.ChangeRole(ctx, a.Token, id, parsed)
	err = transitionError(lifecycle.ActionChangeRole, err)
	s.record(ctx, a, audit.EventRoleChanged, id, details, err)
	if err != nil {
		return models.User{}, fmt.Errorf("change role of %s: %w", id, err)
	}
	return out, nil
}

// ListUsers returns every account.
func (s *Service) ListUsers(ctx context.Context, a Actor) ([]models.User, error) {
	if err := requireAdmin(a); err != nil {
		return nil, err
	}
	return s.api.ListUsers(ctx, a.Token)
}

// ListPending returns accounts awaiting moderation.
func (s *Service) ListPending(ctx context.Context, a Actor) ([]models.User, error) {
	if err := requireAdmin(a); err != nil {
		return nil, err
	}
	return s.api.ListPendingUsers(ctx, a.Token)
}

// GetUser returns one account.
func (s *Service) GetUser(ctx context.Context, a Actor, id models.ID) (models.User, error) {
	if err := requireAdmin(a); err != nil {
		return models.User{}, err
	}
	if err := s.check(userInput{UserID: id.String()}); err != nil {
		return models.User{}, err
	}
	return s.api.GetUser(ctx, a.Token, id)
}

// Stats returns the dashboard counters.
func (s *Service) Stats(ctx context.Context, a Actor) (models.DashboardStats, error) {
	if err := requireAdmin(a); err != nil {
		return models.DashboardStats{}, err
	}
	return s.api.DashboardStats(ctx, a.Token)
}
