// internal/auth/google.go
// Google ID token verification

package auth

import (
    "context"
    "errors"
    "fmt"

    "google.golang.org/api/oauth2/v2"
    "google.golang.org/api/option"
)

// GoogleIdentity is the verified subject of a Google ID token
type GoogleIdentity struct {
    UserID string
    Email  string
    Name   string
}

// GoogleVerifier checks a Google ID token
type GoogleVerifier interface {
    Verify(ctx context.Context, idToken string) (*GoogleIdentity, error)
}

type googleVerifier struct {
    clientID string
}

// NewGoogleVerifier verifies tokens with Google's tokeninfo endpoint. When
// clientID is set the token audience must match it.
func NewGoogleVerifier(clientID string) GoogleVerifier {
    return &googleVerifier{clientID: clientID}
}

func (g *googleVerifier) Verify(ctx context.Context, idToken string) (*GoogleIdentity, error) {
    svc, err := oauth2.NewService(ctx, option.WithoutAuthentication())
    if err != nil {
        return nil, fmt.Errorf("failed to create oauth2 service: %w", err)
    }

    info, err := svc.Tokeninfo().IdToken(idToken).Context(ctx).Do()
    if err != nil {
        return nil, fmt.Errorf("invalid Google token: %w", err)
    }

    if g.clientID != "" && info.Audience != g.clientID {
        return nil, errors.New("token audience mismatch")
    }
    if info.Email == "" || !info.VerifiedEmail {
        return nil, errors.New("google account email is not verified")
    }

    return &GoogleIdentity{
        UserID: info.UserId,
        Email:  info.Email,
    }, nil
}
