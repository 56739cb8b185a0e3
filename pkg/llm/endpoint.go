package llm

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidTarget is wrapped by every error that prevents an endpoint URL
// from being constructed.
var ErrInvalidTarget = errors.New("invalid request target")

// BaseURL returns the first non-blank candidate parsed as an absolute
// http(s) URL with a host and a rooted path. Candidates are given in precedence order.
func BaseURL(candidates ...string) (*url.URL, error) {
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}

		u, err := url.Parse(c)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing base URL %q: %v", ErrInvalidTarget, c, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("%w: base URL %q must be an absolute http(s) URL", ErrInvalidTarget, c)
		}
		// JoinPath keeps an empty path relative.
		if u.Path == "" {
			u.Path = "/"
		}
		return u, nil
	}

	return nil, fmt.Errorf("%w: no base URL configured", ErrInvalidTarget)
}

// CheckModel rejects a model without a name.
func CheckModel(model ModelConfig) error {
	if strings.TrimSpace(model.Name) == "" {
		return fmt.Errorf("%w: model name is empty", ErrInvalidTarget)
	}
	return nil
}
