package service

import (
	"context"
	"time"

	"github.com/pikecape/duck-service/internal/duck"
	"github.com/pikecape/duck-service/internal/duck/repository"
	"github.com/pikecape/duck-service/pkg/logger"
	"github.com/pikecape/duck-service/pkg/metrics"
)

// Service defines the duck operations used by the handler layer.
type Service interface {
	FindAll(ctx context.Context) ([]duck.Duck, error)
	FindByUID(ctx context.Context, uid string) (duck.Duck, error)
	Create(ctx context.Context, fields duck.Fields) (duck.Duck, error)
	Update(ctx context.Context, uid string, fields duck.Fields) (*duck.UpdateResult, error)
	DeleteByUID(ctx context.Context, uid string) (*duck.DeleteResult, error)
}

// New returns a Service backed by repo. Results and errors pass through
// unchanged; each call is counted and timed.
func New(repo repository.Repository) Service {
	return &instrumented{repo: repo}
}

// NewMemoryService returns a Service backed by a fresh in-memory repository.
func NewMemoryService(opts ...repository.Option) Service {
	return New(repository.NewMemoryRepo(opts...))
}

type instrumented struct {
	repo repository.Repository
}

func observe(op string, start time.Time, err error) {
	metrics.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StoreOperations.WithLabelValues(op, "error").Inc()
		logger.Errorf("duck store %s failed: %v", op, err)
		return
	}
	metrics.StoreOperations.WithLabelValues(op, "ok").Inc()
}

func (s *instrumented) FindAll(ctx context.Context) (list []duck.Duck, err error) {
	defer func(start time.Time) { observe("find_all", start, err) }(time.Now())
	return s.repo.FindAll(ctx)
}

func (s *instrumented) FindByUID(ctx context.Context, uid string) (d duck.Duck, err error) {
	defer func(start time.Time) { observe("find_by_uid", start, err) }(time.Now())
	return s.repo.FindByUID(ctx, uid)
}

func (s *instrumented) Create(ctx context.Context, fields duck.Fields) (d duck.Duck, err error) {
	defer func(start time.Time) { observe("create", start, err) }(time.Now())
	d, err = s.repo.Create(ctx, fields)
	if err == nil {
		logger.Debugf("created duck %s", d.ID())
	}
	return d, err
}

func (s *instrumented) Update(ctx context.Context, uid string, fields duck.Fields) (res *duck.UpdateResult, err error) {
	defer func(start time.Time) { observe("update", start, err) }(time.Now())
	return s.repo.Update(ctx, uid, fields)
}

func (s *instrumented) DeleteByUID(ctx context.Context, uid string) (res *duck.DeleteResult, err error) {
	defer func(start time.Time) { observe("delete", start, err) }(time.Now())
	return s.repo.DeleteByUID(ctx, uid)
}
