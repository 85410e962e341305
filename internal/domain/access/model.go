package access

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MinPasscodeLength is the minimum length of the local unlock passcode.
const MinPasscodeLength = 8

// Domain errors.
var (
	ErrEmptyPasscode    = errors.New("passcode cannot be empty")
	ErrPasscodeTooShort = errors.New("passcode must be at least 8 characters")
	ErrWrongPasscode    = errors.New("incorrect passcode")
)

// Lock guards the locally served dashboard with a single passcode. The CRM's
// real authentication stays server-side; the dashboard only holds an API token,
// and the lock keeps that token from being exercised by anyone at the machine.
type Lock struct {
	PasscodeHash string
}

// SetPasscode hashes and stores a passcode using bcrypt with cost 12.
// PRE: plaintext is non-empty and >= MinPasscodeLength characters
// POST: PasscodeHash is set to a bcrypt hash
func (l *Lock) SetPasscode(plaintext string) error {
	if plaintext == "" {
		return ErrEmptyPasscode
	}
	if len(plaintext) < MinPasscodeLength {
		return ErrPasscodeTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), 12)
	if err != nil {
		return err
	}
	l.PasscodeHash = string(hash)
	return nil
}

// CheckPasscode verifies a passcode against the stored hash.
// PRE: PasscodeHash is set
// INVARIANT: Lock fields are not mutated
func (l *Lock) CheckPasscode(plaintext string) error {
	if l.PasscodeHash == "" {
		return ErrWrongPasscode
	}
	if bcrypt.CompareHashAndPassword([]byte(l.PasscodeHash), []byte(plaintext)) != nil {
		return ErrWrongPasscode
	}
	return nil
}

// Enabled reports whether a passcode has been configured. An empty hash means
// the dashboard runs unlocked, which is the default for local development.
func (l *Lock) Enabled() bool {
	return l.PasscodeHash != ""
}
