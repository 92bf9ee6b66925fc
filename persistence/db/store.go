package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mirror520/taskboard/conf"
	"github.com/mirror520/taskboard/model"
	"github.com/mirror520/taskboard/persistence"
	"github.com/mirror520/taskboard/task"
	"github.com/mirror520/taskboard/workspace"
)

type store struct {
	log *zap.Logger
	db  *gorm.DB
}

// NewStore opens a sqlite database. SQLite allows a single writer, so
// the pool is limited to one connection and units of work are applied
// one after another.
func NewStore(cfg conf.Persistence) (persistence.Store, error) {
	dsn := cfg.Host + "/" + cfg.Name + ".db"
	if cfg.InMem {
		dsn = "file:" + cfg.Name + "?mode=memory&cache=shared"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	err = db.AutoMigrate(
		&Workspace{}, &Member{}, &Service{},
		&Task{}, &TaskFollower{}, &TaskHistory{},
		&TaskMessage{}, &TaskAttachment{}, &Partition{},
	)
	if err != nil {
		return nil, err
	}

	log := zap.L().With(
		zap.String("persistence", "sqlite"),
		zap.String("name", cfg.Name),
		zap.Bool("inmem", cfg.InMem),
	)

	return &store{log, db}, nil
}

func (s *store) WithTx(ctx context.Context, fn func(tx persistence.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return translate(err)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(&dbTx{tx}); err != nil {
			return err
		}

		return ctx.Err()
	})
	if err != nil {
		s.log.Debug(err.Error(), zap.String("action", "transaction"))
		return translate(err)
	}

	return nil
}

func (s *store) DB() *gorm.DB {
	return s.db
}

func (s *store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

type dbTx struct {
	db *gorm.DB
}

func (tx *dbTx) Workspaces() workspace.Repository {
	return &workspaceRepository{tx.db}
}

func (tx *dbTx) Tasks() task.Repository {
	return &taskRepository{tx.db}
}

func translate(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.ErrNotFound
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", model.ErrTransient, err.Error())
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return fmt.Errorf("%w: %s", model.ErrTransient, err.Error())

		case sqlite3.ErrConstraint:
			return fmt.Errorf("%w: %s", model.ErrConflict, err.Error())
		}
	}

	return err
}
