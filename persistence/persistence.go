package persistence

import (
	"context"
	"errors"

	"github.com/mirror520/taskboard/conf"
	"github.com/mirror520/taskboard/task"
	"github.com/mirror520/taskboard/workspace"
)

// Tx exposes the repositories of one unit of work. Everything read or
// written through it commits or rolls back together.
type Tx interface {
	Workspaces() workspace.Repository
	Tasks() task.Repository
}

type Store interface {
	// WithTx runs fn in a transaction. The transaction commits when fn
	// returns nil and rolls back otherwise; a context cancelled before
	// the commit boundary also rolls it back.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

type factory func(cfg conf.Persistence) (Store, error)

var factories = make(map[conf.PersistenceDriver]factory)

func AddFactory(driver conf.PersistenceDriver, factory factory) {
	factories[driver] = factory
}

func NewStore(cfg conf.Persistence) (Store, error) {
	factory, ok := factories[cfg.Driver]
	if !ok {
		return nil, errors.New("driver not supported")
	}

	return factory(cfg)
}
