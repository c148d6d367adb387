package web

import (
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

// OrganizationHeader carries the tenant identity on every scoped request.
const OrganizationHeader = "X-Organization-ID"

const organizationIDKey = "organization_id"

// TenantMiddleware requires the organization header and stores the tenant ID
// for handlers. Requests without it are rejected before any handler runs.
func TenantMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		orgID := c.Get(OrganizationHeader)
		if orgID == "" {
			problem := problems.NewStatusProblem(400).
				WithInstance(c.Path()).
				WithType("missing_organization").
				WithDetail(OrganizationHeader + " header is required")

			return c.Status(fiber.StatusBadRequest).JSON(problem)
		}

		c.Locals(organizationIDKey, orgID)

		return c.Next()
	}
}

// OrganizationID returns the tenant set by TenantMiddleware.
func OrganizationID(c fiber.Ctx) string {
	orgID, _ := c.Locals(organizationIDKey).(string)

	return orgID
}
