package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/campuscard/internal/domain/models"
)

func TestApprove(t *testing.T) {
	tests := []struct {
		name        string
		from        models.Status
		reason      string
		wantChanged bool
		wantErr     bool
	}{
		{"from pending", models.StatusPending, "", true, false},
		{"from rejected clears reason", models.StatusRejected, "blurry id", true, false},
		{"already approved is noop", models.StatusApproved, "", false, false},
		{"unknown status", models.StatusUnknown, "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := State{Status: tt.from, RejectionReason: tt.reason, Role: models.RoleStudent}
			next, changed, err := Approve(s)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Fatalf("err = %v, want ErrInvalidTransition", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if changed != tt.wantChanged {
				t.Errorf("changed = %v, want %v", changed, tt.wantChanged)
			}
			if next.Status != models.StatusApproved {
				t.Errorf("Status = %q, want APPROVED", next.Status)
			}
			if next.RejectionReason != "" {
				t.Errorf("RejectionReason = %q, want empty", next.RejectionReason)
			}
		})
	}
}

func TestReject(t *testing.T) {
	for _, from := range []models.Status{models.StatusPending, models.StatusApproved} {
		next, err := Reject(State{Status: from}, "  photo unreadable ")
		if err != nil {
			t.Fatalf("Reject from %s: %v", from, err)
		}
		if next.Status != models.StatusRejected {
			t.Errorf("Status = %q, want REJECTED", next.Status)
		}
		if next.RejectionReason != "photo unreadable" {
			t.Errorf("RejectionReason = %q", next.RejectionReason)
		}
	}

	s := State{Status: models.StatusRejected, RejectionReason: "first"}
	next, err := Reject(s, "second")
	var it *InvalidTransition
	if !errors.As(err, &it) {
		t.Fatalf("err = %v, want *InvalidTransition", err)
	}
	if it.Action != ActionReject || it.From != models.StatusRejected {
		t.Errorf("InvalidTransition = %+v", it)
	}
	if next != s {
		t.Errorf("state changed on invalid transition: %+v", next)
	}
}

func TestTransitionsAreOrthogonal(t *testing.T) {
	s := State{Status: models.StatusPending, EmailVerified: true, Role: models.RoleStudent}

	next, _, _ := Approve(s)
	if next.EmailVerified != s.EmailVerified || next.Role != s.Role {
		t.Errorf("Approve touched other axes: %+v", next)
	}

	next, _ = Reject(s, "x")
	if next.EmailVerified != s.EmailVerified || next.Role != s.Role {
		t.Errorf("Reject touched other axes: %+v", next)
	}

	next, err := ChangeRole(s, models.RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}
	if next.Status != models.StatusPending || !next.EmailVerified {
		t.Errorf("ChangeRole touched other axes: %+v", next)
	}
	if next.Role != models.RoleAdmin {
		t.Errorf("Role = %q, want ADMIN", next.Role)
	}
}

func TestChangeRole_Unknown(t *testing.T) {
	if _, err := ChangeRole(State{}, models.RoleUnknown); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestVerification(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := Initial()

	s1, tok1, err := IssueVerification(s, now)
	if err != nil {
		t.Fatalf("IssueVerification: %v", err)
	}
	if s1.EmailVerified {
		t.Fatal("issuing a token must not verify")
	}
	if len(tok1) != TokenLength*2 {
		t.Errorf("token length = %d", len(tok1))
	}

	// Reissuing replaces the outstanding token.
	s2, tok2, err := IssueVerification(s1, now)
	if err != nil {
		t.Fatalf("reissue: %v", err)
	}
	if tok1 == tok2 {
		t.Fatal("expected a fresh token")
	}

	bad, err := ConfirmVerification(s2, tok1, now)
	if !errors.Is(err, ErrInvalidToken) || !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("stale token err = %v", err)
	}
	if bad != s2 {
		t.Error("state changed on invalid token")
	}

	done, err := ConfirmVerification(s2, tok2, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("ConfirmVerification: %v", err)
	}
	if !done.EmailVerified || done.VerificationHash != "" {
		t.Errorf("after confirm: %+v", done)
	}

	if _, _, err := IssueVerification(done, now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("issue after verified: err = %v", err)
	}
}

func TestVerification_Expired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, tok, err := IssueVerification(Initial(), now)
	if err != nil {
		t.Fatal(err)
	}
	_, err = ConfirmVerification(s, tok, now.Add(TokenTTL+time.Minute))
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("err = %v, want ErrTokenExpired", err)
	}
}

func TestVerification_NoneOutstanding(t *testing.T) {
	_, err := ConfirmVerification(Initial(), "abc", time.Now())
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

type memRepo struct {
	mu   sync.Mutex
	recs map[models.ID]Record
}

func newMemRepo(users ...models.User) *memRepo {
	r := &memRepo{recs: map[models.ID]Record{}}
	for _, u := range users {
		r.recs[u.ID] = Record{User: u}
	}
	return r
}

func (r *memRepo) Load(_ context.Context, id models.ID) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recs[id]
	if !ok {
		return Record{}, ErrUserNotFound
	}
	return rec, nil
}

func (r *memRepo) Save(_ context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs[rec.User.ID] = rec
	return nil
}

type captureDispatcher struct {
	tokens []string
}

func (d *captureDispatcher) DispatchVerification(_ context.Context, _ models.User, token string) error {
	d.tokens = append(d.tokens, token)
	return nil
}

func TestMachine_VerificationRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo(models.User{ID: "u1", Email: "a@uni.edu", Status: models.StatusPending, Role: models.RoleStudent})
	disp := &captureDispatcher{}
	m := NewMachine(repo, disp)

	tok, err := m.SendVerification(ctx, "u1")
	if err != nil {
		t.Fatalf("SendVerification: %v", err)
	}
	if len(disp.tokens) != 1 || disp.tokens[0] != tok {
		t.Fatalf("dispatched %v, returned %q", disp.tokens, tok)
	}

	if _, err := m.ConfirmVerification(ctx, "u1", "wrong"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong token err = %v", err)
	}
	u, err := m.ConfirmVerification(ctx, "u1", tok)
	if err != nil {
		t.Fatalf("ConfirmVerification: %v", err)
	}
	if !u.EmailVerified {
		t.Error("expected verified")
	}
	if u.Status != models.StatusPending {
		t.Errorf("Status = %q, verification must not approve", u.Status)
	}
}

func TestMachine_ApproveRejectFlow(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo(models.User{ID: "u1", Status: models.StatusPending, Role: models.RoleStudent})
	m := NewMachine(repo, nil)

	if _, err := m.Reject(ctx, "u1", "missing scan"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Reject(ctx, "u1", "again"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("double reject err = %v", err)
	}
	u, err := m.Approve(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if u.Status != models.StatusApproved || u.RejectionReason != "" {
		t.Errorf("after approve: %+v", u)
	}
	if _, err := m.Approve(ctx, "u1"); err != nil {
		t.Errorf("approve of approved should be noop, got %v", err)
	}
	if _, err := m.Approve(ctx, "nope"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("missing user err = %v", err)
	}
}

func TestMachine_ChangeOwnRole(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo(models.User{ID: "admin1", Status: models.StatusApproved, Role: models.RoleAdmin})
	m := NewMachine(repo, nil)

	_, err := m.ChangeRole(ctx, "admin1", "admin1", models.RoleStudent)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
	rec, _ := repo.Load(ctx, "admin1")
	if rec.User.Role != models.RoleAdmin {
		t.Errorf("role changed to %q", rec.User.Role)
	}
}
