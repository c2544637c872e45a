package authpw

import (
	"context"
	"errors"
	"testing"
	"time"

	"atelier/api/internal/store"
)

type fakeProfileStore struct {
	byEmail map[string]store.Profile
	byID    map[string]store.Profile
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{
		byEmail: map[string]store.Profile{},
		byID:    map[string]store.Profile{},
	}
}

func (f *fakeProfileStore) GetProfileByEmail(_ context.Context, email string) (store.Profile, error) {
	p, ok := f.byEmail[email]
	if !ok {
		return store.Profile{}, errors.New("not found")
	}
	return p, nil
}

func (f *fakeProfileStore) GetProfileByID(_ context.Context, id string) (store.Profile, error) {
	p, ok := f.byID[id]
	if !ok {
		return store.Profile{}, errors.New("not found")
	}
	return p, nil
}

func (f *fakeProfileStore) CreateProfile(_ context.Context, p store.Profile) error {
	f.byEmail[p.Email] = p
	f.byID[p.ID] = p
	return nil
}

func (f *fakeProfileStore) UpdateProfilePassword(_ context.Context, id, hash string) error {
	p, ok := f.byID[id]
	if !ok {
		return errors.New("not found")
	}
	p.PasswordHash = hash
	f.byID[id] = p
	f.byEmail[p.Email] = p
	return nil
}

func TestSignUpAndSignIn(t *testing.T) {
	svc := NewService(newFakeProfileStore())
	ctx := context.Background()

	created, err := svc.SignUp(ctx, SignUpRequest{
		Email:       "mira@atelier.sg",
		Password:    "correct-horse",
		DisplayName: "Mira",
		Role:        "manager",
	})
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	if created.Role != "manager" {
		t.Fatalf("role = %q, want manager", created.Role)
	}
	if created.PasswordHash == "correct-horse" {
		t.Fatal("password stored in clear")
	}

	got, err := svc.SignIn(ctx, "mira@atelier.sg", "correct-horse")
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("signed in as %s, want %s", got.ID, created.ID)
	}

	if _, err := svc.SignIn(ctx, "mira@atelier.sg", "wrong"); err == nil {
		t.Fatal("expected SignIn() to fail with wrong password")
	}
}

func TestSignUpRejectsDuplicateEmail(t *testing.T) {
	svc := NewService(newFakeProfileStore())
	ctx := context.Background()

	req := SignUpRequest{Email: "mira@atelier.sg", Password: "correct-horse", DisplayName: "Mira"}
	if _, err := svc.SignUp(ctx, req); err != nil {
		t.Fatalf("first SignUp() error = %v", err)
	}
	if _, err := svc.SignUp(ctx, req); err == nil {
		t.Fatal("expected duplicate email to fail")
	}
}

func TestSignUpNormalizesUnknownRole(t *testing.T) {
	svc := NewService(newFakeProfileStore())

	created, err := svc.SignUp(context.Background(), SignUpRequest{
		Email: "x@atelier.sg", Password: "correct-horse", DisplayName: "X", Role: "superuser",
	})
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	if created.Role != "viewer" {
		t.Fatalf("role = %q, want viewer", created.Role)
	}
}

func TestSignInRejectsDeactivated(t *testing.T) {
	fs := newFakeProfileStore()
	svc := NewService(fs)
	ctx := context.Background()

	created, err := svc.SignUp(ctx, SignUpRequest{Email: "gone@atelier.sg", Password: "correct-horse", DisplayName: "Gone"})
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	now := time.Now()
	created.DeactivatedAt = &now
	fs.byEmail[created.Email] = created
	fs.byID[created.ID] = created

	if _, err := svc.SignIn(ctx, "gone@atelier.sg", "correct-horse"); err == nil {
		t.Fatal("expected deactivated profile to be rejected")
	}
}

func TestChangePassword(t *testing.T) {
	svc := NewService(newFakeProfileStore())
	ctx := context.Background()

	created, err := svc.SignUp(ctx, SignUpRequest{Email: "mira@atelier.sg", Password: "correct-horse", DisplayName: "Mira"})
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	if err := svc.ChangePassword(ctx, created.ID, "wrong", "new-password-1"); err == nil {
		t.Fatal("expected wrong current password to fail")
	}
	if err := svc.ChangePassword(ctx, created.ID, "correct-horse", "new-password-1"); err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}
	if _, err := svc.SignIn(ctx, "mira@atelier.sg", "new-password-1"); err != nil {
		t.Fatalf("SignIn() with new password error = %v", err)
	}
	if _, err := svc.SignIn(ctx, "mira@atelier.sg", "correct-horse"); err == nil {
		t.Fatal("old password still accepted")
	}
}
