package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/mirror520/taskboard/conf"
	"github.com/mirror520/taskboard/model"
	"github.com/mirror520/taskboard/persistence"
	"github.com/mirror520/taskboard/task"
	"github.com/mirror520/taskboard/workspace"
)

type store struct {
	log *zap.Logger
	db  *badger.DB
}

// NewStore opens a badger database. Badger transactions are
// serializable snapshot transactions, so a unit of work that read a key
// another transaction has since committed fails with ErrConflict.
func NewStore(cfg conf.Persistence) (persistence.Store, error) {
	opts := badger.DefaultOptions(cfg.Host + "/" + cfg.Name)
	if cfg.InMem {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	log := zap.L().With(
		zap.String("persistence", "badger"),
		zap.String("name", cfg.Name),
		zap.Bool("inmem", cfg.InMem),
	)

	return &store{log, db}, nil
}

func (s *store) WithTx(ctx context.Context, fn func(tx persistence.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return translate(err)
	}

	txn := s.db.NewTransaction(true)
	defer txn.Discard()

	if err := fn(&kvTx{txn}); err != nil {
		return err
	}

	// Past this point the unit of work is committed whole or not at all.
	if err := ctx.Err(); err != nil {
		return translate(err)
	}

	if err := txn.Commit(); err != nil {
		s.log.Debug(err.Error(), zap.String("action", "commit"))
		return translate(err)
	}

	return nil
}

func (s *store) DB() *badger.DB {
	return s.db
}

func (s *store) Close() error {
	return s.db.Close()
}

type kvTx struct {
	txn *badger.Txn
}

func (tx *kvTx) Workspaces() workspace.Repository {
	return &workspaceRepository{tx.txn}
}

func (tx *kvTx) Tasks() task.Repository {
	return &taskRepository{tx.txn}
}

func translate(err error) error {
	switch {
	case errors.Is(err, badger.ErrConflict):
		return fmt.Errorf("%w: %s", model.ErrConflict, err.Error())

	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %s", model.ErrTransient, err.Error())

	default:
		return err
	}
}

func get(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return model.ErrNotFound
		}

		return translate(err)
	}

	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func exists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return false, nil
		}

		return false, translate(err)
	}

	return true, nil
}

func set(txn *badger.Txn, key []byte, v any) error {
	bs, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return translate(txn.Set(key, bs))
}

// scan visits every value under prefix in key order. fn must not open
// another iterator.
func scan(txn *badger.Txn, prefix []byte, fn func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix

	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		if err := it.Item().Value(fn); err != nil {
			return err
		}
	}

	return nil
}

func keys(txn *badger.Txn, prefix []byte) [][]byte {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false

	it := txn.NewIterator(opts)
	defer it.Close()

	ks := make([][]byte, 0)
	for it.Rewind(); it.Valid(); it.Next() {
		ks = append(ks, it.Item().KeyCopy(nil))
	}

	return ks
}

func deletePrefix(txn *badger.Txn, prefix []byte) error {
	for _, key := range keys(txn, prefix) {
		if err := txn.Delete(key); err != nil {
			return translate(err)
		}
	}

	return nil
}
