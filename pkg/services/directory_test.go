package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowdesk/glowdesk/pkg/models"
	"github.com/glowdesk/glowdesk/pkg/persistence/file"
)

func makeDirectory(t *testing.T, s *Directory, name string, parentID *string) *models.WorkflowDirectory {
	t.Helper()

	d, err := s.Create(context.Background(), &models.WorkflowDirectory{
		OrganizationID: "org-1",
		Name:           name,
		ParentID:       parentID,
	})
	require.NoError(t, err)

	return d
}

func TestDirectory_Create_ParentMustExist(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	s := NewDirectory(p)

	missing := "no-such-dir"
	_, err := s.Create(context.Background(), &models.WorkflowDirectory{
		OrganizationID: "org-1",
		Name:           "Aftercare",
		ParentID:       &missing,
	})
	assert.ErrorIs(t, err, ErrParentNotFound)
}

func TestDirectory_Update_RejectsMoveIntoSelf(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	s := NewDirectory(p)

	d := makeDirectory(t, s, "Campaigns", nil)
	d.ParentID = &d.ID

	_, err := s.Update(context.Background(), d)
	assert.ErrorIs(t, err, ErrDirectoryIntoSelf)
}

func TestDirectory_Update_RejectsMoveIntoDescendant(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	s := NewDirectory(p)

	root := makeDirectory(t, s, "Root", nil)
	child := makeDirectory(t, s, "Child", &root.ID)
	grandchild := makeDirectory(t, s, "Grandchild", &child.ID)

	root.ParentID = &grandchild.ID

	_, err := s.Update(context.Background(), root)
	assert.ErrorIs(t, err, ErrDirectoryIntoDescendant)

	// The rejected move must not leave partial writes behind.
	stored, err := s.Get(context.Background(), "org-1", root.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ParentID)
}

func TestDirectory_Update_ValidMove(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	s := NewDirectory(p)

	a := makeDirectory(t, s, "A", nil)
	b := makeDirectory(t, s, "B", nil)

	b.ParentID = &a.ID

	updated, err := s.Update(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, a.ID, *updated.ParentID)
}

func TestDirectory_Delete_SplicesTree(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	s := NewDirectory(p)

	root := makeDirectory(t, s, "Root", nil)
	middle := makeDirectory(t, s, "Middle", &root.ID)
	leaf := makeDirectory(t, s, "Leaf", &middle.ID)

	workflow := &models.Workflow{
		ID:             "wf-1",
		OrganizationID: "org-1",
		Name:           "Welcome series",
		Trigger:        models.TriggerClientCreated,
		DirectoryID:    &middle.ID,
	}
	require.NoError(t, p.Workflows().Save(context.Background(), workflow))

	require.NoError(t, s.Delete(context.Background(), "org-1", middle.ID))

	// Leaf moves up to the deleted node's parent.
	storedLeaf, err := s.Get(context.Background(), "org-1", leaf.ID)
	require.NoError(t, err)
	require.NotNil(t, storedLeaf.ParentID)
	assert.Equal(t, root.ID, *storedLeaf.ParentID)

	// The workflow survives, detached to root level.
	storedWf, err := p.Workflows().GetByID(context.Background(), "org-1", "wf-1")
	require.NoError(t, err)
	assert.Nil(t, storedWf.DirectoryID)
}

func TestDirectory_Tree(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	s := NewDirectory(p)

	root := makeDirectory(t, s, "Root", nil)
	makeDirectory(t, s, "Beta", &root.ID)
	makeDirectory(t, s, "Alpha", &root.ID)
	makeDirectory(t, s, "Another root", nil)

	roots, err := s.Tree(context.Background(), "org-1")
	require.NoError(t, err)
	require.Len(t, roots, 2)

	assert.Equal(t, "Another root", roots[0].Name)
	assert.Equal(t, "Root", roots[1].Name)
	require.Len(t, roots[1].Children, 2)
	assert.Equal(t, "Alpha", roots[1].Children[0].Name)
	assert.Equal(t, "Beta", roots[1].Children[1].Name)
}
