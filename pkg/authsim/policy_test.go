package authsim

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// testHash returns a minimum-cost bcrypt hash so tables stay fast.
func testHash(t *testing.T, code string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return string(h)
}

func TestParsePolicy(t *testing.T) {
	doc := fmt.Sprintf(`
users:
  - uid: DEADBEEF
    name: Alice
    pin_hash: %q
  - uid: cafe0042
shared_pin_hash: %q
reply_delay_ms: 150
`, testHash(t, "1234"), testHash(t, "9999"))

	p, err := ParsePolicy([]byte(doc))
	if err != nil {
		t.Fatalf("ParsePolicy() error = %v", err)
	}

	if len(p.Users) != 2 {
		t.Fatalf("got %d users, want 2", len(p.Users))
	}
	if !p.AllowUID("deadbeef") {
		t.Error("AllowUID(deadbeef) = false, want normalized match")
	}
	if p.AllowUID("00000000") {
		t.Error("AllowUID(00000000) = true, want deny for unlisted")
	}
	if got := p.ReplyDelay(); got != 150*time.Millisecond {
		t.Errorf("ReplyDelay() = %v, want 150ms", got)
	}
}

func TestParsePolicyRejectsInvalid(t *testing.T) {
	_, err := ParsePolicy([]byte("users: []\n"))
	if !errors.Is(err, ErrInvalidPolicy) {
		t.Errorf("ParsePolicy() error = %v, want ErrInvalidPolicy", err)
	}
}

func TestPolicyValidate(t *testing.T) {
	hash := testHash(t, "1234")

	tests := []struct {
		name    string
		policy  Policy
		wantErr bool
	}{
		{
			name:    "ValidPersonalPINs",
			policy:  Policy{Users: []User{{UID: "deadbeef", PINHash: hash}}},
			wantErr: false,
		},
		{
			name:    "ValidSharedFallback",
			policy:  Policy{Users: []User{{UID: "deadbeef"}}, SharedPINHash: hash},
			wantErr: false,
		},
		{
			name:    "NoUsers",
			policy:  Policy{},
			wantErr: true,
		},
		{
			name:    "EmptyUID",
			policy:  Policy{Users: []User{{UID: "   ", PINHash: hash}}},
			wantErr: true,
		},
		{
			name: "DuplicateUIDDiffersOnlyInCase",
			policy: Policy{Users: []User{
				{UID: "DEADBEEF", PINHash: hash},
				{UID: "deadbeef", PINHash: hash},
			}},
			wantErr: true,
		},
		{
			name:    "MalformedUserHash",
			policy:  Policy{Users: []User{{UID: "deadbeef", PINHash: "plaintext"}}},
			wantErr: true,
		},
		{
			name:    "MalformedSharedHash",
			policy:  Policy{Users: []User{{UID: "deadbeef"}}, SharedPINHash: "plaintext"},
			wantErr: true,
		},
		{
			name:    "NoHashApplies",
			policy:  Policy{Users: []User{{UID: "deadbeef"}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidPolicy) {
				t.Errorf("Validate() error = %v, want wrapped ErrInvalidPolicy", err)
			}
		})
	}
}

func TestVerifyPIN(t *testing.T) {
	p := Policy{
		Users: []User{
			{UID: "deadbeef", PINHash: testHash(t, "1234")},
			{UID: "cafe0042"},
		},
		SharedPINHash: testHash(t, "2468"),
	}

	if !p.VerifyPIN("DEADBEEF ", "1234") {
		t.Error("personal PIN with unnormalized uid should verify")
	}
	if p.VerifyPIN("deadbeef", "0000") {
		t.Error("wrong personal PIN should fail")
	}
	if p.VerifyPIN("deadbeef", "2468") {
		t.Error("shared PIN must not apply to a user with a personal hash")
	}
	if !p.VerifyPIN("cafe0042", "2468") {
		t.Error("shared PIN fallback should verify")
	}
	if p.VerifyPIN("00000000", "1234") {
		t.Error("unknown uid should fail")
	}
}

func TestHashPIN(t *testing.T) {
	hash, err := HashPIN("1234")
	if err != nil {
		t.Fatalf("HashPIN() error = %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("1234")); err != nil {
		t.Errorf("hash does not verify: %v", err)
	}
}
