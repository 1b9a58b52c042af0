// Package secrets resolves sm:// references against Secret Manager.
package secrets

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

const refPrefix = "sm://"

// Fetcher resolves secret references of the form
// sm://projects/{project}/secrets/{name}/versions/{version}.
type Fetcher struct {
	client *secretmanager.Client
}

// NewFetcher dials Secret Manager.
func NewFetcher(ctx context.Context) (*Fetcher, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("secrets: create client: %w", err)
	}
	return &Fetcher{client: client}, nil
}

// Resolve returns the payload of the referenced secret version.
func (f *Fetcher) Resolve(ctx context.Context, ref string) (string, error) {
	name, ok := strings.CutPrefix(ref, refPrefix)
	if !ok {
		return "", fmt.Errorf("secrets: %q is not an sm:// reference", ref)
	}
	if !strings.Contains(name, "/versions/") {
		name += "/versions/latest"
	}

	resp, err := f.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("secrets: access %s: %w", name, err)
	}
	return string(resp.GetPayload().GetData()), nil
}

// Close releases the underlying client.
func (f *Fetcher) Close() error {
	return f.client.Close()
}
