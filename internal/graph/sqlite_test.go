package graph

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_NodesAndEdges(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var personID, skillID int64
	err := s.InTx(ctx, func(tx Tx) error {
		var err error
		personID, err = tx.CreateNode(ctx, LabelPerson, Props{"name": "Ada", "email": "ada@example.com"})
		if err != nil {
			return err
		}
		skillID, err = tx.CreateNode(ctx, LabelSkill, Props{"name": "Go"})
		if err != nil {
			return err
		}
		created, err := tx.MergeEdge(ctx, personID, skillID, RelHasSkill, Props{"created_at": "t0"})
		if err != nil {
			return err
		}
		assert.True(t, created)
		created, err = tx.MergeEdge(ctx, personID, skillID, RelHasSkill, nil)
		assert.False(t, created)
		return err
	})
	require.NoError(t, err)

	err = s.InTx(ctx, func(tx Tx) error {
		n, err := tx.FindByKey(ctx, LabelPerson, "Ada")
		require.NoError(t, err)
		assert.Equal(t, personID, n.ID)
		assert.Equal(t, "ada@example.com", n.Props.String("email"))

		links, err := tx.Out(ctx, personID, RelHasSkill)
		require.NoError(t, err)
		require.Len(t, links, 1)
		assert.Equal(t, "Go", links[0].Node.Props.String("name"))
		assert.Equal(t, LabelSkill, links[0].Node.Label)
		assert.Equal(t, "t0", links[0].Props.String("created_at"))
		return nil
	})
	require.NoError(t, err)
}

func TestSQLiteStore_FindByKeyMissing(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	err := s.InTx(ctx, func(tx Tx) error {
		_, err := tx.FindByKey(ctx, LabelJobPosting, "https://x/none")
		return err
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_UniqueKey(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	err := s.InTx(ctx, func(tx Tx) error {
		if _, err := tx.CreateNode(ctx, LabelSkill, Props{"name": "Go"}); err != nil {
			return err
		}
		_, err := tx.CreateNode(ctx, LabelSkill, Props{"name": "Go"})
		return err
	})
	assert.Error(t, err, "second Skill with the same name must violate the key index")
}

func TestSQLiteStore_DeleteNodeCascadesEdges(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	err := s.InTx(ctx, func(tx Tx) error {
		p, _ := tx.CreateNode(ctx, LabelPerson, Props{"name": "Ada"})
		e, _ := tx.CreateNode(ctx, LabelExperience, Props{"title": "Engineer"})
		if _, err := tx.MergeEdge(ctx, p, e, RelHasExperience, nil); err != nil {
			return err
		}
		if err := tx.DeleteNode(ctx, e); err != nil {
			return err
		}
		links, err := tx.Out(ctx, p, RelHasExperience)
		assert.Empty(t, links)
		return err
	})
	require.NoError(t, err)
}

func TestSQLiteStore_SetPropsRemovesNil(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	err := s.InTx(ctx, func(tx Tx) error {
		id, _ := tx.CreateNode(ctx, LabelPerson, Props{"name": "Ada", "phone": "555"})
		if err := tx.SetProps(ctx, id, Props{"phone": nil, "location": "Paris"}); err != nil {
			return err
		}
		n, err := tx.FindByKey(ctx, LabelPerson, "Ada")
		if err != nil {
			return err
		}
		_, hasPhone := n.Props["phone"]
		assert.False(t, hasPhone)
		assert.Equal(t, "Paris", n.Props.String("location"))
		return nil
	})
	require.NoError(t, err)
}

func TestSQLiteStore_RollbackOnError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx Tx) error {
		if _, err := tx.CreateNode(ctx, LabelPerson, Props{"name": "Ada"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = s.InTx(ctx, func(tx Tx) error {
		nodes, err := tx.Nodes(ctx, LabelPerson)
		assert.Empty(t, nodes)
		return err
	})
	require.NoError(t, err)
}

func TestSQLiteStore_DeleteEdge(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	err := s.InTx(ctx, func(tx Tx) error {
		r, _ := tx.CreateNode(ctx, LabelResume, Props{"id": "r1"})
		j, _ := tx.CreateNode(ctx, LabelJobPosting, Props{"apply_url": "https://x/1"})
		if _, err := tx.MergeEdge(ctx, r, j, RelSavedJob, Props{"notes": "a"}); err != nil {
			return err
		}
		deleted, err := tx.DeleteEdge(ctx, r, j, RelSavedJob)
		require.NoError(t, err)
		assert.True(t, deleted)
		deleted, err = tx.DeleteEdge(ctx, r, j, RelSavedJob)
		assert.False(t, deleted)
		return err
	})
	require.NoError(t, err)
}
