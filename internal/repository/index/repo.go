// Package index provisions the search index of every resource from the field schema.
package index

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dpla/platform-search/internal/db"
	"github.com/dpla/platform-search/internal/domain"
	"github.com/dpla/platform-search/internal/domain/resource"
	"github.com/dpla/platform-search/internal/domain/schema/field"
)

// store is the consumer interface for index management (ISP).
type store interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// fieldSource lists the schema of each resource.
type fieldSource interface {
	Resources() []resource.Resource
	Fields(res resource.Resource) []field.Field
}

// Repo creates and drops resource indexes.
type Repo struct {
	store  store
	schema fieldSource
	keys   resource.Keyspace
	logger *zap.Logger
}

// New creates an index repository.
func New(s store, schema fieldSource, keys resource.Keyspace, logger *zap.Logger) *Repo {
	return &Repo{store: s, schema: schema, keys: keys, logger: logger}
}

// Definition returns the index definition of a resource.
func (r *Repo) Definition(res resource.Resource) (*db.IndexDefinition, error) {
	return buildIndex(r.keys.IndexName(res), r.keys.DocPrefix(res), r.schema.Fields(res))
}

// Ensure creates the index of res unless it exists. With recreate an existing
// index is dropped first; documents are kept and re-indexed by the engine.
func (r *Repo) Ensure(ctx context.Context, res resource.Resource, recreate bool) error {
	def, err := r.Definition(res)
	if err != nil {
		return err
	}

	if recreate {
		if err := r.store.DropIndex(ctx, def.Name); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
			return r.mapErr("drop", def.Name, err)
		}
	} else {
		exists, err := r.store.IndexExists(ctx, def.Name)
		if err != nil {
			return r.mapErr("check", def.Name, err)
		}
		if exists {
			r.logger.Debug("Index exists", zap.String("index", def.Name))
			return nil
		}
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		// a concurrent provisioner won the race
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return r.mapErr("create", def.Name, err)
	}

	r.logger.Info("Index created",
		zap.String("index", def.Name),
		zap.Int("attributes", len(def.Attributes)),
		zap.Bool("recreated", recreate),
	)
	return nil
}

// EnsureAll provisions the index of every schema resource concurrently.
func (r *Repo) EnsureAll(ctx context.Context, recreate bool) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, res := range r.schema.Resources() {
		g.Go(func() error {
			return r.Ensure(ctx, res, recreate)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("provision indexes: %w", err)
	}
	return nil
}

// Drop removes the index of res. Documents are kept.
func (r *Repo) Drop(ctx context.Context, res resource.Resource) error {
	name := r.keys.IndexName(res)
	if err := r.store.DropIndex(ctx, name); err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return domain.NotFound("Index not found: %s", name)
		}
		return r.mapErr("drop", name, err)
	}
	return nil
}

func (r *Repo) mapErr(op, name string, err error) error {
	if errors.Is(err, db.ErrUnavailable) {
		return domain.ServiceUnavailable(err)
	}
	return fmt.Errorf("%s index %s: %w", op, name, err)
}
