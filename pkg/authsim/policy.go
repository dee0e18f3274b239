package authsim

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// ErrInvalidPolicy is wrapped by all policy validation failures.
var ErrInvalidPolicy = errors.New("authsim: invalid policy")

// User is one allowed credential and its optional personal PIN.
type User struct {
	// UID is the credential identifier, lowercase hex. Mixed case in
	// the file is accepted and normalized.
	UID string `yaml:"uid"`

	// Name is an optional operator-facing label.
	Name string `yaml:"name,omitempty"`

	// PINHash is the bcrypt hash of this user's PIN. When empty the
	// policy's shared hash applies.
	PINHash string `yaml:"pin_hash,omitempty"`
}

// Policy is the backend decision table. Credentials not listed are
// denied in phase 1; PINs are verified against the user's own hash,
// falling back to the shared hash.
type Policy struct {
	// Users is the credential allowlist.
	Users []User `yaml:"users"`

	// SharedPINHash is the bcrypt hash used for users without their
	// own PINHash.
	SharedPINHash string `yaml:"shared_pin_hash,omitempty"`

	// ReplyDelayMS delays every published decision by this many
	// milliseconds. Zero replies on the next loop pass.
	ReplyDelayMS uint32 `yaml:"reply_delay_ms,omitempty"`
}

// ParsePolicy parses a policy from YAML bytes and validates it.
func ParsePolicy(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadPolicy loads and parses a policy file.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParsePolicy(data)
}

// Validate checks the policy for structural problems: empty or
// duplicate UIDs, malformed bcrypt hashes, and users that could never
// pass phase 2 because no hash applies to them.
func (p *Policy) Validate() error {
	if len(p.Users) == 0 {
		return fmt.Errorf("%w: no users", ErrInvalidPolicy)
	}
	if p.SharedPINHash != "" {
		if _, err := bcrypt.Cost([]byte(p.SharedPINHash)); err != nil {
			return fmt.Errorf("%w: shared_pin_hash: %v", ErrInvalidPolicy, err)
		}
	}

	seen := make(map[string]bool, len(p.Users))
	for i, u := range p.Users {
		uid := NormalizeUID(u.UID)
		if uid == "" {
			return fmt.Errorf("%w: users[%d]: empty uid", ErrInvalidPolicy, i)
		}
		if seen[uid] {
			return fmt.Errorf("%w: duplicate uid %q", ErrInvalidPolicy, uid)
		}
		seen[uid] = true

		if u.PINHash != "" {
			if _, err := bcrypt.Cost([]byte(u.PINHash)); err != nil {
				return fmt.Errorf("%w: uid %q pin_hash: %v", ErrInvalidPolicy, uid, err)
			}
		} else if p.SharedPINHash == "" {
			return fmt.Errorf("%w: uid %q has no pin_hash and no shared_pin_hash is set", ErrInvalidPolicy, uid)
		}
	}
	return nil
}

// ReplyDelay returns the configured decision delay.
func (p *Policy) ReplyDelay() time.Duration {
	return time.Duration(p.ReplyDelayMS) * time.Millisecond
}

// AllowUID reports whether the credential is on the allowlist.
func (p *Policy) AllowUID(uid string) bool {
	return p.user(uid) != nil
}

// VerifyPIN checks a submitted code against the PIN hash that applies
// to the given credential. Unknown credentials always fail.
func (p *Policy) VerifyPIN(uid, code string) bool {
	u := p.user(uid)
	if u == nil {
		return false
	}
	hash := u.PINHash
	if hash == "" {
		hash = p.SharedPINHash
	}
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}

func (p *Policy) user(uid string) *User {
	uid = NormalizeUID(uid)
	for i := range p.Users {
		if NormalizeUID(p.Users[i].UID) == uid {
			return &p.Users[i]
		}
	}
	return nil
}

// NormalizeUID canonicalizes a credential identifier the way stations
// print them: trimmed, lowercase hex.
func NormalizeUID(uid string) string {
	return strings.ToLower(strings.TrimSpace(uid))
}

// HashPIN produces a bcrypt hash suitable for a policy file. Used by
// the authsim binary's hashpin helper.
func HashPIN(code string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
