package identity

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/goliatone/go-authflow/core"
	goerrors "github.com/goliatone/go-errors"
)

var ErrAccountNotFound = errors.New("identity: account not found")

// BadCredentialsError wraps a failed credential check so transport layers can
// surface a uniform envelope without leaking which part of the check failed.
type BadCredentialsError struct {
	Identifier string
	Cause      error
}

func (e *BadCredentialsError) Error() string {
	if e == nil {
		return core.ErrBadCredentials.Error()
	}
	identifier := strings.TrimSpace(e.Identifier)
	if identifier == "" {
		return core.ErrBadCredentials.Error()
	}
	return core.ErrBadCredentials.Error() + ": " + identifier
}

func (e *BadCredentialsError) Unwrap() error {
	if e == nil {
		return nil
	}
	if e.Cause == nil {
		return core.ErrBadCredentials
	}
	return errors.Join(core.ErrBadCredentials, e.Cause)
}

func (e *BadCredentialsError) ToFlowError() *goerrors.Error {
	return goerrors.New(e.Error(), goerrors.CategoryAuth).
		WithCode(http.StatusUnauthorized).
		WithTextCode(core.FlowErrorBadCredentials)
}

func badCredentials(identifier string, cause error) error {
	return &BadCredentialsError{Identifier: identifier, Cause: cause}
}

// VerifierFunc adapts a plain function to core.CredentialVerifier.
type VerifierFunc func(ctx context.Context, creds core.Credentials) (string, error)

func (f VerifierFunc) Verify(ctx context.Context, creds core.Credentials) (string, error) {
	if f == nil {
		return "", badCredentials(creds.Identifier, nil)
	}
	return f(ctx, creds)
}

// Account is one resource-owner entry in a static directory.
type Account struct {
	Identifier string
	Secret     string
	UserRef    string
	Disabled   bool
}

type DirectoryConfig struct {
	Accounts []Account
}

// Directory verifies resource-owner credentials against an in-memory account
// list. It is the verifier used by tests and single-tenant deployments;
// production installs plug an external directory through VerifierFunc or
// their own core.CredentialVerifier.
type Directory struct {
	accounts map[string]Account
}

func NewDirectory(cfg DirectoryConfig) *Directory {
	accounts := make(map[string]Account, len(cfg.Accounts))
	for _, account := range cfg.Accounts {
		identifier := normalizeIdentifier(account.Identifier)
		if identifier == "" {
			continue
		}
		account.Identifier = identifier
		if strings.TrimSpace(account.UserRef) == "" {
			account.UserRef = identifier
		}
		accounts[identifier] = account
	}
	return &Directory{accounts: accounts}
}

func (d *Directory) Verify(_ context.Context, creds core.Credentials) (string, error) {
	if d == nil {
		return "", badCredentials(creds.Identifier, nil)
	}
	identifier := normalizeIdentifier(creds.Identifier)
	if identifier == "" {
		return "", badCredentials(creds.Identifier, nil)
	}

	account, ok := d.accounts[identifier]
	if !ok {
		// Run the comparison against a zero account anyway so lookups for
		// unknown identifiers take the same time as failed password checks.
		secretsEqual("", creds.Secret)
		return "", badCredentials(identifier, ErrAccountNotFound)
	}
	if account.Disabled {
		return "", badCredentials(identifier, errors.New("identity: account disabled"))
	}
	if !secretsEqual(account.Secret, creds.Secret) {
		return "", badCredentials(identifier, nil)
	}
	return account.UserRef, nil
}

func secretsEqual(stored, supplied string) bool {
	if stored == "" || supplied == "" {
		storedDigest := sha256.Sum256([]byte(stored))
		suppliedDigest := sha256.Sum256([]byte(supplied))
		subtle.ConstantTimeCompare(storedDigest[:], suppliedDigest[:])
		return false
	}
	storedDigest := sha256.Sum256([]byte(stored))
	suppliedDigest := sha256.Sum256([]byte(supplied))
	return subtle.ConstantTimeCompare(storedDigest[:], suppliedDigest[:]) == 1
}

func normalizeIdentifier(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}

var _ core.CredentialVerifier = (*Directory)(nil)
var _ core.CredentialVerifier = VerifierFunc(nil)
