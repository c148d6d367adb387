package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/glowdesk/glowdesk/pkg/models"
	"github.com/glowdesk/glowdesk/pkg/persistence"
)

// OrganizationRepository handles organization rows.
type OrganizationRepository struct {
	db *sql.DB
}

func (r *OrganizationRepository) Save(ctx context.Context, org *models.Organization) error {
	limitsJSON, err := json.Marshal(org.Limits)
	if err != nil {
		return fmt.Errorf("failed to marshal limits: %w", err)
	}

	query := `
		INSERT INTO organizations (id, name, limits, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			limits = EXCLUDED.limits,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query, org.ID, org.Name, limitsJSON, org.CreatedAt, org.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save organization: %w", err)
	}

	return nil
}

func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	query := `SELECT id, name, limits, created_at, updated_at FROM organizations WHERE id = $1`

	var (
		org        models.Organization
		limitsJSON []byte
	)

	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&org.ID, &org.Name, &limitsJSON, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrOrganizationNotFound
		}

		return nil, fmt.Errorf("failed to scan organization: %w", err)
	}

	err = json.Unmarshal(limitsJSON, &org.Limits)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal limits: %w", err)
	}

	return &org, nil
}

func (r *OrganizationRepository) List(ctx context.Context) ([]*models.Organization, error) {
	query := `SELECT id, name, limits, created_at, updated_at FROM organizations ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query organizations: %w", err)
	}
	defer rows.Close()

	var orgs []*models.Organization

	for rows.Next() {
		var (
			org        models.Organization
			limitsJSON []byte
		)

		err = rows.Scan(&org.ID, &org.Name, &limitsJSON, &org.CreatedAt, &org.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}

		err = json.Unmarshal(limitsJSON, &org.Limits)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal limits: %w", err)
		}

		orgs = append(orgs, &org)
	}

	return orgs, rows.Err()
}

func (r *OrganizationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}

	return checkAffected(result, persistence.ErrOrganizationNotFound)
}

// ClientRepository handles client rows.
type ClientRepository struct {
	db *sql.DB
}

func (r *ClientRepository) Save(ctx context.Context, client *models.Client) error {
	client.NormalizeTags()

	phonesJSON, err := json.Marshal(client.Phones)
	if err != nil {
		return fmt.Errorf("failed to marshal phones: %w", err)
	}

	tagsJSON, err := json.Marshal(client.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	query := `
		INSERT INTO clients (id, organization_id, full_name, phones, email, tags, portal_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			phones = EXCLUDED.phones,
			email = EXCLUDED.email,
			tags = EXCLUDED.tags,
			portal_status = EXCLUDED.portal_status,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		client.ID, client.OrganizationID, client.FullName, phonesJSON,
		client.Email, tagsJSON, client.PortalStatus, client.CreatedAt, client.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save client: %w", err)
	}

	return nil
}

func (r *ClientRepository) GetByID(ctx context.Context, orgID, id string) (*models.Client, error) {
	query := `
		SELECT id, organization_id, full_name, phones, email, tags, portal_status, created_at, updated_at
		FROM clients WHERE id = $1 AND organization_id = $2
	`

	client, err := scanClient(r.db.QueryRowContext(ctx, query, id, orgID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrClientNotFound
		}

		return nil, err
	}

	return client, nil
}

func (r *ClientRepository) ListByOrganization(ctx context.Context, orgID string) ([]*models.Client, error) {
	query := `
		SELECT id, organization_id, full_name, phones, email, tags, portal_status, created_at, updated_at
		FROM clients WHERE organization_id = $1 ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	var clients []*models.Client

	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, err
		}

		clients = append(clients, client)
	}

	return clients, rows.Err()
}

func (r *ClientRepository) Delete(ctx context.Context, orgID, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM clients WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}

	return checkAffected(result, persistence.ErrClientNotFound)
}

func scanClient(scanner interface{ Scan(dest ...any) error }) (*models.Client, error) {
	var (
		client               models.Client
		phonesJSON, tagsJSON []byte
		email                sql.NullString
	)

	err := scanner.Scan(&client.ID, &client.OrganizationID, &client.FullName, &phonesJSON,
		&email, &tagsJSON, &client.PortalStatus, &client.CreatedAt, &client.UpdatedAt)
	if err != nil {
		return nil, err
	}

	client.Email = email.String

	err = json.Unmarshal(phonesJSON, &client.Phones)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal phones: %w", err)
	}

	err = json.Unmarshal(tagsJSON, &client.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}

	client.NormalizeTags()

	return &client, nil
}

// DirectoryRepository handles workflow directory rows.
type DirectoryRepository struct {
	db *sql.DB
}

func (r *DirectoryRepository) Save(ctx context.Context, directory *models.WorkflowDirectory) error {
	query := `
		INSERT INTO workflow_directories (id, organization_id, name, parent_id, color, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			parent_id = EXCLUDED.parent_id,
			color = EXCLUDED.color,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		directory.ID, directory.OrganizationID, directory.Name, directory.ParentID,
		nullString(directory.Color), directory.CreatedAt, directory.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save directory: %w", err)
	}

	return nil
}

func (r *DirectoryRepository) GetByID(ctx context.Context, orgID, id string) (*models.WorkflowDirectory, error) {
	query := `
		SELECT id, organization_id, name, parent_id, color, created_at, updated_at
		FROM workflow_directories WHERE id = $1 AND organization_id = $2
	`

	directory, err := scanDirectory(r.db.QueryRowContext(ctx, query, id, orgID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrDirectoryNotFound
		}

		return nil, err
	}

	return directory, nil
}

func (r *DirectoryRepository) ListByOrganization(ctx context.Context, orgID string) ([]*models.WorkflowDirectory, error) {
	query := `
		SELECT id, organization_id, name, parent_id, color, created_at, updated_at
		FROM workflow_directories WHERE organization_id = $1 ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to query directories: %w", err)
	}
	defer rows.Close()

	var directories []*models.WorkflowDirectory

	for rows.Next() {
		directory, err := scanDirectory(rows)
		if err != nil {
			return nil, err
		}

		directories = append(directories, directory)
	}

	return directories, rows.Err()
}

func (r *DirectoryRepository) Delete(ctx context.Context, orgID, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM workflow_directories WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete directory: %w", err)
	}

	return checkAffected(result, persistence.ErrDirectoryNotFound)
}

func scanDirectory(scanner interface{ Scan(dest ...any) error }) (*models.WorkflowDirectory, error) {
	var (
		directory models.WorkflowDirectory
		parentID  sql.NullString
		color     sql.NullString
	)

	err := scanner.Scan(&directory.ID, &directory.OrganizationID, &directory.Name,
		&parentID, &color, &directory.CreatedAt, &directory.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		directory.ParentID = &parentID.String
	}

	directory.Color = color.String

	return &directory, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func checkAffected(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}

	if affected == 0 {
		return notFound
	}

	return nil
}
