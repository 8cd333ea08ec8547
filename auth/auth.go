package auth

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/oauth2"
)

// ErrNoToken is returned when no API token has been configured.
var ErrNoToken = errors.New("no API token configured")

// tokenType is the scheme renewables.ninja expects in the Authorization
// header, e.g. "Authorization: Token 0123abcd".
const tokenType = "Token"

// APIToken authenticates requests with a long-lived API key.
type APIToken struct {
	token *oauth2.Token
}

func NewAPIToken(key string) *APIToken {
	return &APIToken{token: &oauth2.Token{AccessToken: key, TokenType: tokenType}}
}

// GetToken returns the configured key.
func (a *APIToken) GetToken() (string, error) {
	if a.token.AccessToken == "" {
		return "", ErrNoToken
	}
	return a.token.AccessToken, nil
}

// SetAuthHeader sets the Authorization header of req.
func (a *APIToken) SetAuthHeader(req *http.Request) error {
	if _, err := a.GetToken(); err != nil {
		return err
	}
	a.token.SetAuthHeader(req)
	return nil
}

// Client wraps base so that every request it sends carries the token. A nil
// base uses http.DefaultClient.
func (a *APIToken) Client(ctx context.Context, base *http.Client) (*http.Client, error) {
	if _, err := a.GetToken(); err != nil {
		return nil, err
	}
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}
	c := oauth2.NewClient(ctx, oauth2.StaticTokenSource(a.token))
	if base != nil {
		c.Timeout = base.Timeout
	}
	return c, nil
}
