package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// Verification failures surfaced to middleware. Handlers map these to
// coded HTTP responses.
var (
	ErrTokenExpired = errors.New("auth: token expired")
	ErrTokenInvalid = errors.New("auth: token invalid")
	ErrUserDisabled = errors.New("auth: user disabled")
)

// TokenVerifier validates a Firebase ID token and returns the caller's
// identity.
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (Identity, error)
}

// FirebaseVerifier verifies ID tokens against a Firebase project.
type FirebaseVerifier struct {
	client *firebaseauth.Client
}

// NewFirebaseVerifier initialises the Firebase Admin SDK. credentialsFile
// may be empty to use application default credentials.
func NewFirebaseVerifier(ctx context.Context, projectID, credentialsFile string) (*FirebaseVerifier, error) {
	if projectID == "" {
		return nil, errors.New("auth: firebase project id is required")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("auth: init firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth: init firebase auth: %w", err)
	}
	return &FirebaseVerifier{client: client}, nil
}

// Verify checks the token signature and revocation state, then extracts
// roles from custom claims.
func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (Identity, error) {
	token, err := v.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		return Identity{}, classifyVerifyError(err)
	}

	identity := Identity{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		identity.Email = email
	}
	identity.Roles = rolesFromClaims(token.Claims)
	return identity, nil
}

func rolesFromClaims(claims map[string]any) []Role {
	switch value := claims["role"].(type) {
	case string:
		if role := normalizeRole(value); role != "" {
			return []Role{role}
		}
	case []any:
		roles := make([]Role, 0, len(value))
		for _, entry := range value {
			if s, ok := entry.(string); ok {
				if role := normalizeRole(s); role != "" {
					roles = append(roles, role)
				}
			}
		}
		return roles
	}
	// Legacy admin builds set a bare boolean claim.
	if isAdmin, ok := claims["admin"].(bool); ok && isAdmin {
		return []Role{RoleAdmin}
	}
	return nil
}

func normalizeRole(raw string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleStaff:
		return RoleStaff
	default:
		return ""
	}
}

func classifyVerifyError(err error) error {
	if firebaseauth.IsIDTokenExpired(err) || firebaseauth.IsIDTokenRevoked(err) || firebaseauth.IsSessionCookieExpired(err) {
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	}
	if firebaseauth.IsUserDisabled(err) {
		return fmt.Errorf("%w: %v", ErrUserDisabled, err)
	}
	return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
}
