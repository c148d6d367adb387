package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/glowdesk/glowdesk/pkg/models"
	"github.com/glowdesk/glowdesk/pkg/persistence"
)

var validate = validator.New()

// Organization handles tenant management.
type Organization struct {
	persistence persistence.Persistence
}

func NewOrganization(persistence persistence.Persistence) *Organization {
	return &Organization{persistence: persistence}
}

// HealthCheck checks the health of the persistence layer.
func (s *Organization) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := s.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

func (s *Organization) Create(ctx context.Context, org *models.Organization) (*models.Organization, error) {
	err := validate.Struct(org)
	if err != nil {
		return nil, NewValidationError("Organization.Create", "INVALID_ORGANIZATION", err.Error(), ErrInvalidRequest)
	}

	now := time.Now().UTC()
	org.ID = uuid.New().String()
	org.CreatedAt = now
	org.UpdatedAt = now

	err = s.persistence.Organizations().Save(ctx, org)
	if err != nil {
		return nil, fmt.Errorf("failed to save organization: %w", err)
	}

	return org, nil
}

func (s *Organization) Get(ctx context.Context, id string) (*models.Organization, error) {
	return s.persistence.Organizations().GetByID(ctx, id)
}

func (s *Organization) List(ctx context.Context) ([]*models.Organization, error) {
	return s.persistence.Organizations().List(ctx)
}

func (s *Organization) Update(ctx context.Context, org *models.Organization) (*models.Organization, error) {
	existing, err := s.persistence.Organizations().GetByID(ctx, org.ID)
	if err != nil {
		return nil, err
	}

	err = validate.Struct(org)
	if err != nil {
		return nil, NewValidationError("Organization.Update", "INVALID_ORGANIZATION", err.Error(), ErrInvalidRequest)
	}

	org.CreatedAt = existing.CreatedAt
	org.UpdatedAt = time.Now().UTC()

	err = s.persistence.Organizations().Save(ctx, org)
	if err != nil {
		return nil, fmt.Errorf("failed to save organization: %w", err)
	}

	return org, nil
}

func (s *Organization) Delete(ctx context.Context, id string) error {
	return s.persistence.Organizations().Delete(ctx, id)
}
