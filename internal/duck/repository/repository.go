package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/pikecape/duck-service/internal/duck"
)

// Repository is the duck data-access contract. Every failure is a *duck.Error.
// A missing duck is not an error: FindByUID returns (nil, nil) and
// Update/DeleteByUID report zero counts.
type Repository interface {
	FindAll(ctx context.Context) ([]duck.Duck, error)
	FindByUID(ctx context.Context, uid string) (duck.Duck, error)
	Create(ctx context.Context, fields duck.Fields) (duck.Duck, error)
	Update(ctx context.Context, uid string, fields duck.Fields) (*duck.UpdateResult, error)
	DeleteByUID(ctx context.Context, uid string) (*duck.DeleteResult, error)
}

// IDGenerator returns a fresh identifier for a new duck.
type IDGenerator func() string

// Option configures a repository.
type Option func(*repoOptions)

type repoOptions struct {
	newID IDGenerator
}

// WithIDGenerator overrides the default UUIDv4 identifier generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(o *repoOptions) {
		if g != nil {
			o.newID = g
		}
	}
}

func buildOptions(opts []Option) repoOptions {
	o := repoOptions{newID: uuid.NewString}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// newDocument copies fields and stamps them with id, replacing any caller id.
func newDocument(id string, fields duck.Fields) duck.Duck {
	d := make(duck.Duck, len(fields)+1)
	for k, v := range fields {
		d[k] = v
	}
	d[duck.IDField] = id
	return d
}
