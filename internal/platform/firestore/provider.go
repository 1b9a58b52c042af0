// Package firestore wraps the Firestore client with error mapping, a
// generic document repository, transactions, and snapshot watching.
package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
)

// Provider owns the Firestore client for the process.
type Provider struct {
	client *firestore.Client
}

// NewProvider connects to the given project/database. credentialsFile may
// be empty to use application default credentials.
func NewProvider(ctx context.Context, projectID, databaseID, credentialsFile string) (*Provider, error) {
	if projectID == "" {
		return nil, errors.New("firestore: project id is required")
	}
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore: connect %s/%s: %w", projectID, databaseID, err)
	}
	return &Provider{client: client}, nil
}

// Client exposes the raw client for repositories.
func (p *Provider) Client() *firestore.Client {
	return p.client
}

// Close releases the client.
func (p *Provider) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}
