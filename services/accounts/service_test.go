package accounts

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

var testSecret = []byte("test-secret")

// setupTestService creates a new accounts service for testing with a temp directory.
func setupTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(t.TempDir(), testSecret)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return svc
}

func TestNewService_EmptyStorageDir(t *testing.T) {
	_, err := NewService("", testSecret)
	if err != ErrStorageDirRequired {
		t.Errorf("expected ErrStorageDirRequired, got %v", err)
	}

	_, err = NewService("   ", testSecret)
	if err != ErrStorageDirRequired {
		t.Errorf("expected ErrStorageDirRequired for whitespace, got %v", err)
	}
}

func TestNewService_LoadsExistingAccounts(t *testing.T) {
	tmpDir := t.TempDir()

	// Create first service and add an account
	svc1, err := NewService(tmpDir, testSecret)
	if err != nil {
		t.Fatalf("failed to create first service: %v", err)
	}
	_, err = svc1.Create("user@example.com", "password123")
	if err != nil {
		t.Fatalf("failed to create account: %v", err)
	}

	// Create second service pointing to same directory
	svc2, err := NewService(tmpDir, testSecret)
	if err != nil {
		t.Fatalf("failed to create second service: %v", err)
	}

	// Should have loaded the account
	_, ok := svc2.GetByEmail("user@example.com")
	if !ok {
		t.Error("expected account to be loaded from disk")
	}
}

func TestCreate_Success(t *testing.T) {
	svc := setupTestService(t)

	account, err := svc.Create("new@example.com", "password123")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if account.ID == "" {
		t.Error("expected non-empty ID")
	}
	if account.Email != "new@example.com" {
		t.Errorf("expected email 'new@example.com', got %q", account.Email)
	}
	if account.CreatedAt.IsZero() {
		t.Error("expected non-zero CreatedAt")
	}

	// Verify password was hashed
	err = bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("password123"))
	if err != nil {
		t.Error("expected password to be correctly hashed")
	}
}

func TestCreate_InvalidEmail(t *testing.T) {
	svc := setupTestService(t)

	for _, email := range []string{"", "   ", "not-an-email"} {
		if _, err := svc.Create(email, "password123"); err != ErrEmailRequired {
			t.Errorf("Create(%q): expected ErrEmailRequired, got %v", email, err)
		}
	}
}

func TestCreate_EmptyPassword(t *testing.T) {
	svc := setupTestService(t)

	if _, err := svc.Create("a@example.com", ""); err != ErrPasswordRequired {
		t.Errorf("expected ErrPasswordRequired, got %v", err)
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	svc := setupTestService(t)

	if _, err := svc.Create("dup@example.com", "password123"); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	// Same email, different case
	if _, err := svc.Create("DUP@Example.com", "password456"); err != ErrEmailExists {
		t.Errorf("expected ErrEmailExists, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc := setupTestService(t)

	created, err := svc.Create("auth@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	account, err := svc.Authenticate("auth@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if account.ID != created.ID {
		t.Errorf("expected account %q, got %q", created.ID, account.ID)
	}

	// Case-insensitive email lookup
	if _, err := svc.Authenticate("AUTH@example.com", "correct-horse"); err != nil {
		t.Errorf("expected case-insensitive email match, got %v", err)
	}

	if _, err := svc.Authenticate("auth@example.com", "wrong"); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials for bad password, got %v", err)
	}
	if _, err := svc.Authenticate("nobody@example.com", "correct-horse"); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestUpdatePassword(t *testing.T) {
	svc := setupTestService(t)

	account, err := svc.Create("pw@example.com", "old-password")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := svc.UpdatePassword(account.ID, "new-password"); err != nil {
		t.Fatalf("UpdatePassword failed: %v", err)
	}

	if _, err := svc.Authenticate("pw@example.com", "old-password"); err != ErrInvalidCredentials {
		t.Error("old password should no longer authenticate")
	}
	if _, err := svc.Authenticate("pw@example.com", "new-password"); err != nil {
		t.Errorf("new password should authenticate, got %v", err)
	}

	if err := svc.UpdatePassword("missing", "x"); err != ErrAccountNotFound {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	svc := setupTestService(t)

	account, err := svc.Create("gone@example.com", "password123")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := svc.Delete(account.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if svc.Exists(account.ID) {
		t.Error("deleted account still exists")
	}
	if err := svc.Delete(account.ID); err != ErrAccountNotFound {
		t.Errorf("expected ErrAccountNotFound on double delete, got %v", err)
	}
}

func TestPasswordResetRoundTrip(t *testing.T) {
	svc := setupTestService(t)

	if _, err := svc.Create("reset@example.com", "original"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	token, err := svc.NewPasswordResetToken("reset@example.com")
	if err != nil {
		t.Fatalf("NewPasswordResetToken failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	accountID, err := svc.ConfirmPasswordReset(token, "replacement")
	if err != nil {
		t.Fatalf("ConfirmPasswordReset failed: %v", err)
	}
	if account, ok := svc.GetByEmail("reset@example.com"); !ok || account.ID != accountID {
		t.Errorf("expected reset to return the account id, got %q", accountID)
	}

	if _, err := svc.Authenticate("reset@example.com", "replacement"); err != nil {
		t.Errorf("new password should authenticate, got %v", err)
	}
	if _, err := svc.Authenticate("reset@example.com", "original"); err != ErrInvalidCredentials {
		t.Error("old password should no longer authenticate")
	}
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	svc := setupTestService(t)

	if _, err := svc.NewPasswordResetToken("nobody@example.com"); err != ErrAccountNotFound {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestConfirmPasswordResetRejectsBadToken(t *testing.T) {
	svc := setupTestService(t)

	if _, err := svc.Create("victim@example.com", "original"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.ConfirmPasswordReset("not-a-jwt", "replacement"); err != ErrInvalidResetToken {
		t.Errorf("expected ErrInvalidResetToken, got %v", err)
	}

	// Token signed with a different secret must not validate
	other, err := NewService(t.TempDir(), []byte("other-secret"))
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	if _, err := other.Create("victim@example.com", "x"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	forged, err := other.NewPasswordResetToken("victim@example.com")
	if err != nil {
		t.Fatalf("NewPasswordResetToken failed: %v", err)
	}
	if _, err := svc.ConfirmPasswordReset(forged, "replacement"); err != ErrInvalidResetToken {
		t.Errorf("expected ErrInvalidResetToken for foreign signature, got %v", err)
	}

	if _, err := svc.Authenticate("victim@example.com", "original"); err != nil {
		t.Errorf("password must be unchanged after rejected resets, got %v", err)
	}
}

func TestConfirmPasswordResetEmptyPassword(t *testing.T) {
	svc := setupTestService(t)

	if _, err := svc.Create("reset@example.com", "original"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	token, err := svc.NewPasswordResetToken("reset@example.com")
	if err != nil {
		t.Fatalf("NewPasswordResetToken failed: %v", err)
	}
	if _, err := svc.ConfirmPasswordReset(token, "  "); err != ErrPasswordRequired {
		t.Errorf("expected ErrPasswordRequired, got %v", err)
	}
}
