package credentials

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Source names where a resolved key came from.
type Source string

const (
	SourceNone   Source = ""
	SourceEnv    Source = "env"
	SourceDotEnv Source = ".env"
	SourceStore  Source = "credentials.toml"
)

const defaultDotEnv = ".env"

// KeyStore is the read side of Manager.
type KeyStore interface {
	GetKey(provider string) (string, error)
}

// Resolver finds the API key for a provider. Lookup order is the process
// environment, then a .env file, then the key store.
type Resolver struct {
	store  KeyStore
	dotEnv string
	getenv func(string) string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithDotEnv reads keys from the given file instead of ./.env. An empty path
// disables the .env source.
func WithDotEnv(path string) ResolverOption {
	return func(r *Resolver) { r.dotEnv = path }
}

// WithGetenv replaces os.Getenv.
func WithGetenv(getenv func(string) string) ResolverOption {
	return func(r *Resolver) { r.getenv = getenv }
}

// NewResolver returns a Resolver backed by store, which may be nil.
func NewResolver(store KeyStore, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store:  store,
		dotEnv: defaultDotEnv,
		getenv: os.Getenv,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Lookup returns the key for provider and where it was found. A missing key
// is not an error: it returns "", SourceNone, nil and the exchange reports
// the missing key itself.
func (r *Resolver) Lookup(provider string) (string, Source, error) {
	envVar := EnvVarForProvider(provider)
	if envVar == "" {
		return "", SourceNone, fmt.Errorf("unsupported provider: %q", provider)
	}

	if key := strings.TrimSpace(r.getenv(envVar)); key != "" {
		return key, SourceEnv, nil
	}

	if r.dotEnv != "" {
		// godotenv.Read leaves the process environment untouched.
		vars, err := godotenv.Read(r.dotEnv)
		switch {
		case err == nil:
			if key := strings.TrimSpace(vars[envVar]); key != "" {
				return key, SourceDotEnv, nil
			}
		case !errors.Is(err, fs.ErrNotExist):
			return "", SourceNone, fmt.Errorf("reading %s: %w", r.dotEnv, err)
		}
	}

	if r.store != nil {
		key, err := r.store.GetKey(provider)
		if err != nil {
			return "", SourceNone, err
		}
		if key = strings.TrimSpace(key); key != "" {
			return key, SourceStore, nil
		}
	}

	return "", SourceNone, nil
}
