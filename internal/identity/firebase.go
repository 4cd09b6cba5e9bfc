// Package identity verifies ID tokens issued by the federated login provider.
package identity

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

var ErrDisabled = errors.New("federated login is not configured")

// Identity is what the provider vouches for.
type Identity struct {
	UID           string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

type Verifier interface {
	Verify(ctx context.Context, idToken string) (Identity, error)
}

type Firebase struct {
	client *auth.Client
}

// NewFirebase builds a verifier from service-account JSON. Empty credentials
// yield a verifier that always reports ErrDisabled.
func NewFirebase(ctx context.Context, credentialsJSON string) (*Firebase, error) {
	if credentialsJSON == "" {
		return &Firebase{}, nil
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsJSON([]byte(credentialsJSON)))
	if err != nil {
		return nil, fmt.Errorf("identity.NewFirebase: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("identity.NewFirebase: %w", err)
	}
	return &Firebase{client: client}, nil
}

func (f *Firebase) Verify(ctx context.Context, idToken string) (Identity, error) {
	if f.client == nil {
		return Identity{}, ErrDisabled
	}
	token, err := f.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return Identity{}, fmt.Errorf("identity.Verify: %w", err)
	}
	return Identity{
		UID:           token.UID,
		Email:         claim(token.Claims, "email"),
		EmailVerified: verified(token.Claims),
		Name:          claim(token.Claims, "name"),
		Picture:       claim(token.Claims, "picture"),
	}, nil
}

func claim(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

func verified(claims map[string]interface{}) bool {
	v, ok := claims["email_verified"].(bool)
	return ok && v
}
