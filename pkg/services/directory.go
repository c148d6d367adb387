package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/glowdesk/glowdesk/pkg/models"
	"github.com/glowdesk/glowdesk/pkg/persistence"
)

// Directory manages the per-organization workflow folder tree. Moves are
// validated against the directory's descendant set so the tree can never
// acquire a cycle; nothing is mutated when a move is rejected.
type Directory struct {
	persistence persistence.Persistence
}

func NewDirectory(persistence persistence.Persistence) *Directory {
	return &Directory{persistence: persistence}
}

func (s *Directory) Create(ctx context.Context, directory *models.WorkflowDirectory) (*models.WorkflowDirectory, error) {
	err := validate.Struct(directory)
	if err != nil {
		return nil, NewValidationError("Directory.Create", "INVALID_DIRECTORY", err.Error(), ErrInvalidRequest)
	}

	if directory.ParentID != nil {
		_, err = s.persistence.Directories().GetByID(ctx, directory.OrganizationID, *directory.ParentID)
		if err != nil {
			if persistence.IsNotFound(err) {
				return nil, ErrParentNotFound
			}

			return nil, err
		}
	}

	now := time.Now().UTC()
	directory.ID = uuid.New().String()
	directory.CreatedAt = now
	directory.UpdatedAt = now

	err = s.persistence.Directories().Save(ctx, directory)
	if err != nil {
		return nil, fmt.Errorf("failed to save directory: %w", err)
	}

	return directory, nil
}

func (s *Directory) Get(ctx context.Context, orgID, id string) (*models.WorkflowDirectory, error) {
	return s.persistence.Directories().GetByID(ctx, orgID, id)
}

// Update renames or moves a directory. A move into the directory itself or
// into any of its descendants is rejected before anything is written.
func (s *Directory) Update(ctx context.Context, directory *models.WorkflowDirectory) (*models.WorkflowDirectory, error) {
	existing, err := s.persistence.Directories().GetByID(ctx, directory.OrganizationID, directory.ID)
	if err != nil {
		return nil, err
	}

	err = validate.Struct(directory)
	if err != nil {
		return nil, NewValidationError("Directory.Update", "INVALID_DIRECTORY", err.Error(), ErrInvalidRequest)
	}

	if directory.ParentID != nil {
		if *directory.ParentID == directory.ID {
			return nil, ErrDirectoryIntoSelf
		}

		_, err = s.persistence.Directories().GetByID(ctx, directory.OrganizationID, *directory.ParentID)
		if err != nil {
			if persistence.IsNotFound(err) {
				return nil, ErrParentNotFound
			}

			return nil, err
		}

		descendants, err := s.descendantSet(ctx, directory.OrganizationID, directory.ID)
		if err != nil {
			return nil, err
		}

		if descendants[*directory.ParentID] {
			return nil, ErrDirectoryIntoDescendant
		}
	}

	directory.CreatedAt = existing.CreatedAt
	directory.UpdatedAt = time.Now().UTC()

	err = s.persistence.Directories().Save(ctx, directory)
	if err != nil {
		return nil, fmt.Errorf("failed to save directory: %w", err)
	}

	return directory, nil
}

// Delete removes a directory and splices the tree: child directories move up
// to the deleted node's parent, workflows filed in the directory move to the
// root level. Workflows are never deleted with their folder.
func (s *Directory) Delete(ctx context.Context, orgID, id string) error {
	deleted, err := s.persistence.Directories().GetByID(ctx, orgID, id)
	if err != nil {
		return err
	}

	all, err := s.persistence.Directories().ListByOrganization(ctx, orgID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	for _, d := range all {
		if d.ParentID != nil && *d.ParentID == id {
			d.ParentID = deleted.ParentID
			d.UpdatedAt = now

			err = s.persistence.Directories().Save(ctx, d)
			if err != nil {
				return fmt.Errorf("failed to reparent directory %s: %w", d.ID, err)
			}
		}
	}

	workflows, err := s.persistence.Workflows().ListByDirectory(ctx, orgID, id)
	if err != nil {
		return err
	}

	for _, w := range workflows {
		w.DirectoryID = nil
		w.UpdatedAt = now

		err = s.persistence.Workflows().Save(ctx, w)
		if err != nil {
			return fmt.Errorf("failed to detach workflow %s: %w", w.ID, err)
		}
	}

	return s.persistence.Directories().Delete(ctx, orgID, id)
}

// Tree lists the organization's directories as a forest of root nodes,
// children sorted by name. Directories whose parent is missing surface as
// roots instead of disappearing.
func (s *Directory) Tree(ctx context.Context, orgID string) ([]*models.DirectoryNode, error) {
	all, err := s.persistence.Directories().ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	nodes := make(map[string]*models.DirectoryNode, len(all))
	for _, d := range all {
		nodes[d.ID] = &models.DirectoryNode{WorkflowDirectory: d, Children: []*models.DirectoryNode{}}
	}

	roots := make([]*models.DirectoryNode, 0)

	for _, n := range nodes {
		if n.ParentID == nil {
			roots = append(roots, n)

			continue
		}

		parent, ok := nodes[*n.ParentID]
		if !ok {
			roots = append(roots, n)

			continue
		}

		parent.Children = append(parent.Children, n)
	}

	sortNodes(roots)

	return roots, nil
}

// descendantSet walks the tree breadth-first from the given directory and
// returns every directory below it.
func (s *Directory) descendantSet(ctx context.Context, orgID, id string) (map[string]bool, error) {
	all, err := s.persistence.Directories().ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	children := make(map[string][]string, len(all))

	for _, d := range all {
		if d.ParentID != nil {
			children[*d.ParentID] = append(children[*d.ParentID], d.ID)
		}
	}

	descendants := make(map[string]bool)
	queue := []string{id}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, childID := range children[current] {
			if !descendants[childID] {
				descendants[childID] = true
				queue = append(queue, childID)
			}
		}
	}

	return descendants, nil
}

func sortNodes(nodes []*models.DirectoryNode) {
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].Name < nodes[j].Name
	})

	for _, n := range nodes {
		sortNodes(n.Children)
	}
}
