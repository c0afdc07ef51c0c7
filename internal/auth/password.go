package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher turns a plaintext password into a self-describing digest and
// checks a candidate against one.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) (bool, error)
}

var ErrUnknownDigest = errors.New("unrecognised password digest format")

type BcryptHasher struct {
	Cost int
}

func (b BcryptHasher) Hash(plain string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}
	return string(hash), nil
}

func (b BcryptHasher) Verify(plain, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("bcrypt verify: %w", err)
	}
}

type Argon2idHasher struct {
	Params *argon2id.Params
}

func (a Argon2idHasher) Hash(plain string) (string, error) {
	params := a.Params
	if params == nil {
		params = argon2id.DefaultParams
	}
	hash, err := argon2id.CreateHash(plain, params)
	if err != nil {
		return "", fmt.Errorf("argon2id hash: %w", err)
	}
	return hash, nil
}

func (a Argon2idHasher) Verify(plain, digest string) (bool, error) {
	match, err := argon2id.ComparePasswordAndHash(plain, digest)
	if err != nil {
		return false, fmt.Errorf("argon2id verify: %w", err)
	}
	return match, nil
}

// MultiHasher hashes with its primary algorithm and verifies any digest it
// recognises by prefix, so switching algorithm keeps old passwords valid.
type MultiHasher struct {
	primary PasswordHasher
	bcrypt  BcryptHasher
	argon   Argon2idHasher
}

func NewPasswordHasher(algorithm string, bcryptCost int) (*MultiHasher, error) {
	m := &MultiHasher{
		bcrypt: BcryptHasher{Cost: bcryptCost},
		argon:  Argon2idHasher{Params: argon2id.DefaultParams},
	}
	switch algorithm {
	case "", "bcrypt":
		m.primary = m.bcrypt
	case "argon2id":
		m.primary = m.argon
	default:
		return nil, fmt.Errorf("unsupported password hasher %q", algorithm)
	}
	return m, nil
}

// WithArgon2Params replaces the argon2id parameters used for new digests.
func (m *MultiHasher) WithArgon2Params(params *argon2id.Params) *MultiHasher {
	m.argon = Argon2idHasher{Params: params}
	if _, ok := m.primary.(Argon2idHasher); ok {
		m.primary = m.argon
	}
	return m
}

func (m *MultiHasher) Hash(plain string) (string, error) {
	return m.primary.Hash(plain)
}

func (m *MultiHasher) Verify(plain, digest string) (bool, error) {
	switch {
	case strings.HasPrefix(digest, "$argon2id$"):
		return m.argon.Verify(plain, digest)
	case strings.HasPrefix(digest, "$2a$"), strings.HasPrefix(digest, "$2b$"), strings.HasPrefix(digest, "$2y$"):
		return m.bcrypt.Verify(plain, digest)
	default:
		return false, ErrUnknownDigest
	}
}
