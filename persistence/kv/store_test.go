package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mirror520/taskboard/conf"
	"github.com/mirror520/taskboard/model"
	"github.com/mirror520/taskboard/persistence"
	"github.com/mirror520/taskboard/task"
	"github.com/mirror520/taskboard/workspace"
)

type storeTestSuite struct {
	suite.Suite
	store     persistence.Store
	ctx       context.Context
	owner     model.ID
	workspace *workspace.Workspace
	service   *workspace.Service
}

func (suite *storeTestSuite) SetupTest() {
	cfg := conf.Persistence{
		Driver: conf.BadgerDB,
		Name:   "taskboard",
		InMem:  true,
	}

	store, err := NewStore(cfg)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.ctx = context.Background()
	suite.owner = model.NewID()

	w, _ := workspace.NewWorkspace("Mirror's Workspace", suite.owner)
	svc, _ := workspace.NewService(w.ID, "identity")

	err = store.WithTx(suite.ctx, func(tx persistence.Tx) error {
		repo := tx.Workspaces()
		if err := repo.Store(suite.ctx, w); err != nil {
			return err
		}

		if err := repo.StoreMember(suite.ctx, workspace.NewMember(w.ID, suite.owner, workspace.RoleAdmin)); err != nil {
			return err
		}

		return repo.StoreService(suite.ctx, svc)
	})
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.store = store
	suite.workspace = w
	suite.service = svc
}

func (suite *storeTestSuite) TearDownTest() {
	suite.store.Close()
}

func (suite *storeTestSuite) newTask(name string, position float64) *task.Task {
	t, err := task.NewTask(suite.workspace.ID, suite.service.ID, suite.owner, task.Fields{Name: name})
	suite.Require().NoError(err)

	t.Position = position
	err = suite.store.WithTx(suite.ctx, func(tx persistence.Tx) error {
		return tx.Tasks().Store(suite.ctx, t)
	})
	suite.Require().NoError(err)

	return t
}

func (suite *storeTestSuite) TestFindByInviteCode() {
	old := suite.workspace.InviteCode

	err := suite.store.WithTx(suite.ctx, func(tx persistence.Tx) error {
		suite.workspace.RegenerateInviteCode()
		return tx.Workspaces().Store(suite.ctx, suite.workspace)
	})
	suite.Require().NoError(err)

	suite.store.WithTx(suite.ctx, func(tx persistence.Tx) error {
		w, err := tx.Workspaces().FindByInviteCode(suite.ctx, suite.workspace.InviteCode)
		suite.Require().NoError(err)
		suite.Equal(suite.workspace.ID, w.ID)

		_, err = tx.Workspaces().FindByInviteCode(suite.ctx, old)
		suite.ErrorIs(err, model.ErrNotFound)
		return nil
	})
}

func (suite *storeTestSuite) TestInviteCodeTakenByAnotherWorkspace() {
	other, err := workspace.NewWorkspace("Other Workspace", suite.owner)
	suite.Require().NoError(err)
	other.InviteCode = suite.workspace.InviteCode

	err = suite.store.WithTx(suite.ctx, func(tx persistence.Tx) error {
		return tx.Workspaces().Store(suite.ctx, other)
	})
	suite.ErrorIs(err, model.ErrConflict)

	suite.store.WithTx(suite.ctx, func(tx persistence.Tx) error {
		w, err := tx.Workspaces().FindByInviteCode(suite.ctx, suite.workspace.InviteCode)
		suite.Require().NoError(err)
		suite.Equal(suite.workspace.ID, w.ID)

		_, err = tx.Workspaces().Find(suite.ctx, other.ID)
		suite.ErrorIs(err, model.ErrNotFound)
		return nil
	})
}

func (suite *storeTestSuite) TestMembers() {
	visitor := model.NewID()

	err := suite.store.WithTx(suite.ctx, func(tx persistence.Tx) error {
		return tx.Workspaces().StoreMember(suite.ctx, workspace.NewMember(suite.workspace.ID, visitor, workspace.RoleVisitor))
	})
	suite.Require().NoError(err)

	suite.store.WithTx(suite.ctx, func(tx persistence.Tx) error {
		members, err := tx.Workspaces().ListMembers(suite.ctx, suite.workspace.ID)
		suite.Require().NoError(err)
		suite.Len(members, 2)

		m, err := tx.Workspaces().FindMember(suite.ctx, suite.workspace.ID, visitor)
		suite.Require().NoError(err)
		suite.Equal(workspace.RoleVisitor, m.Role)

		suite.NoError(tx.Workspaces().DeleteMember(suite.ctx, suite.workspace.ID, visitor))
		suite.ErrorIs(tx.Workspaces().DeleteMember(suite.ctx, suite.workspace.ID, visitor), model.ErrNotFound)
		return nil
	})
}

func (suite *storeTestSuite) TestBumpVersion() {
	err := suite.store.WithTx(suite.ctx, func(tx persistence.Tx) error {
		return tx.Workspaces().BumpVersion(suite.ctx, suite.workspace.ID, 0)
	})
	suite.Require().NoError(err)

	err = suite.store.WithTx(suite.ctx, func(tx persistence.Tx) error {
		return tx.Workspaces().BumpVersion(suite.ctx, suite.workspace.ID, 0)
	})
	suite.ErrorIs(err, model.ErrConflict)
}

func (suite *storeTestSuite) TestPartition() {
	a := suite.newTask("a", 2000)
	b := suite.newTask("b", 1000)
	suite.newTask("c", 3000)

	archived := suite.newTask("archived", 500)
	archived.Status = task.Archived
	suite.store.WithTx(suite.ctx, func(tx persistence.Tx) error {
		return tx.Tasks().Store(suite.ctx, archived)
	})

	suite.store.WithTx(suite.ctx, func(tx persistence.Tx) error {
		partition, version, err := tx.Tasks().Partition(suite.ctx, suite.workspace.ID, task.Todo)
		suite.Require().NoError(err)
		suite.Equal(uint64(0), version)
		suite.Len(partition, 3)
		suite.Equal(b.ID, partition[0].ID)
		suite.Equal(a.ID, partition[1].ID)

		tasks, err := tx.Tasks().List(suite.ctx, suite.workspace.ID, task.Filter{})
		suite.Require().NoError(err)
		suite.Len(tasks, 3)

		tasks, err = tx.Tasks().List(suite.ctx, suite.workspace.ID, task.Filter{Status: task.Archived})
		suite.Require().NoError(err)
		suite.Len(tasks, 1)
		return nil
	})
}

func (suite *storeTestSuite) TestConcurrentPartitionBump() {
	suite.newTask("a", 1000)

	err := suite.store.WithTx(suite.ctx, func(tx persistence.Tx) error {
		_, version, err := tx.Tasks().Partition(suite.ctx, suite.workspace.ID, task.Todo)
		if err != nil {
			return err
		}

		err = suite.store.WithTx(suite.ctx, func(other persistence.Tx) error {
			return other.Tasks().BumpPartition(suite.ctx, suite.workspace.ID, task.Todo, version)
		})
		suite.Require().NoError(err)

		return tx.Tasks().BumpPartition(suite.ctx, suite.workspace.ID, task.Todo, version)
	})

	suite.ErrorIs(err, model.ErrConflict)
	suite.False(model.IsRetryable(err))
}

func (suite *storeTestSuite) TestHistoryAndCascade() {
	t := suite.newTask("a", 1000)
	recorder := task.NewRecorder()

	entries := recorder.Record(suite.owner, nil, t)

	after := t.Clone()
	after.Status = task.InProgress
	entries = append(entries, recorder.Record(suite.owner, t, after)...)

	m, err := task.NewMessage(t, suite.owner, "hello")
	suite.Require().NoError(err)

	err = suite.store.WithTx(suite.ctx, func(tx persistence.Tx) error {
		if err := tx.Tasks().AppendHistory(suite.ctx, entries...); err != nil {
			return err
		}

		return tx.Tasks().StoreMessage(suite.ctx, m)
	})
	suite.Require().NoError(err)

	suite.store.WithTx(suite.ctx, func(tx persistence.Tx) error {
		history, err := tx.Tasks().History(suite.ctx, t.ID)
		suite.Require().NoError(err)
		suite.Len(history, 2)
		suite.Equal(task.Created, history[0].Action)
		suite.Equal(task.StatusChanged, history[1].Action)
		return nil
	})

	err = suite.store.WithTx(suite.ctx, func(tx persistence.Tx) error {
		return tx.Workspaces().Delete(suite.ctx, suite.workspace.ID)
	})
	suite.Require().NoError(err)

	suite.store.WithTx(suite.ctx, func(tx persistence.Tx) error {
		_, err := tx.Tasks().Find(suite.ctx, t.ID)
		suite.ErrorIs(err, model.ErrNotFound)

		history, err := tx.Tasks().History(suite.ctx, t.ID)
		suite.Require().NoError(err)
		suite.Empty(history)

		messages, err := tx.Tasks().Messages(suite.ctx, t.ID)
		suite.Require().NoError(err)
		suite.Empty(messages)

		_, err = tx.Workspaces().Find(suite.ctx, suite.workspace.ID)
		suite.ErrorIs(err, model.ErrNotFound)
		return nil
	})
}

func (suite *storeTestSuite) TestRollback() {
	t, _ := task.NewTask(suite.workspace.ID, suite.service.ID, suite.owner, task.Fields{Name: "rolled back"})

	err := suite.store.WithTx(suite.ctx, func(tx persistence.Tx) error {
		if err := tx.Tasks().Store(suite.ctx, t); err != nil {
			return err
		}

		return model.ErrInvalidArgument
	})
	suite.ErrorIs(err, model.ErrInvalidArgument)

	suite.store.WithTx(suite.ctx, func(tx persistence.Tx) error {
		_, err := tx.Tasks().Find(suite.ctx, t.ID)
		suite.ErrorIs(err, model.ErrNotFound)
		return nil
	})
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(storeTestSuite))
}
