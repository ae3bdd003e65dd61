package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		cost     int
		wantErr  error
	}{
		{
			name:     "valid password",
			password: "pw1",
			cost:     bcrypt.MinCost,
			wantErr:  nil,
		},
		{
			name:     "empty password",
			password: "",
			cost:     bcrypt.MinCost,
			wantErr:  ErrPasswordEmpty,
		},
		{
			name:     "password too long",
			password: strings.Repeat("a", 73),
			cost:     bcrypt.MinCost,
			wantErr:  ErrPasswordTooLong,
		},
		{
			name:     "password at maximum length",
			password: strings.Repeat("a", 72),
			cost:     bcrypt.MinCost,
			wantErr:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password, tt.cost)
			if err != tt.wantErr {
				t.Errorf("HashPassword() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr == nil && hash == "" {
				t.Error("HashPassword() returned empty hash for valid password")
			}
			if tt.wantErr == nil && hash == tt.password {
				t.Error("HashPassword() returned the plaintext")
			}
		})
	}
}

func TestHashPassword_Salted(t *testing.T) {
	first, err := HashPassword("same-password", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	second, err := HashPassword("same-password", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	if first == second {
		t.Error("two hashes of the same password should differ")
	}
}

func TestCheckPassword(t *testing.T) {
	password := "testpassword123"
	hash, err := HashPassword(password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{
			name:     "correct password",
			password: password,
			wantErr:  nil,
		},
		{
			name:     "incorrect password",
			password: "wrongpassword",
			wantErr:  ErrInvalidPassword,
		},
		{
			name:     "empty password",
			password: "",
			wantErr:  ErrInvalidPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPassword(tt.password, hash)
			if err != tt.wantErr {
				t.Errorf("CheckPassword() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGenerateSessionSecret(t *testing.T) {
	secret1, err := GenerateSessionSecret()
	if err != nil {
		t.Fatalf("GenerateSessionSecret() error = %v", err)
	}

	// 32 bytes = 64 hex characters
	if len(secret1) != 64 {
		t.Errorf("GenerateSessionSecret() length = %d, want 64", len(secret1))
	}

	secret2, _ := GenerateSessionSecret()
	if secret1 == secret2 {
		t.Error("GenerateSessionSecret() returned same secret twice")
	}
}
