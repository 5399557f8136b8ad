// Package client holds the REST collaborators of the console core: the
// record store client and the schema fetch client. Credential storage stays
// outside; callers inject a TokenSource.
package client

import "context"

// TokenSource supplies the bearer credential attached to every request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource for a fixed credential. An empty token sends
// no Authorization header.
type StaticToken string

func (s StaticToken) Token(ctx context.Context) (string, error) {
	return string(s), nil
}
