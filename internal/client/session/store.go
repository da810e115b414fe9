package session

import (
	"context"

	"github.com/dmitrijs2005/iotadmin/internal/client/repositories/metadata"
)

// Store persists the token across process restarts.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// MetadataStore keeps the token in the local metadata table under
// metadata.KeyToken.
type MetadataStore struct {
	repo metadata.Repository
}

func NewMetadataStore(repo metadata.Repository) *MetadataStore {
	return &MetadataStore{repo: repo}
}

func (s *MetadataStore) Load(ctx context.Context) (string, error) {
	v, _, err := s.repo.Get(ctx, metadata.KeyToken)
	return v, err
}

func (s *MetadataStore) Save(ctx context.Context, token string) error {
	return s.repo.Set(ctx, metadata.KeyToken, token)
}

func (s *MetadataStore) Clear(ctx context.Context) error {
	return s.repo.Delete(ctx, metadata.KeyToken)
}
