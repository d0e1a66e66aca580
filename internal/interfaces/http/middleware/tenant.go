package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/erp/invoicing/internal/infrastructure/logger"
	"github.com/erp/invoicing/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// TenantIDKey stores the tenant uuid.UUID in the gin context
	TenantIDKey = "tenant_id"
	// TenantHeaderKey names the header every API request identifies its tenant with
	TenantHeaderKey = "X-Tenant-ID"
)

// TenantValidator checks that a tenant exists
type TenantValidator interface {
	ValidateTenant(ctx context.Context, tenantID uuid.UUID) error
}

// TenantValidatorFunc adapts a function to TenantValidator
type TenantValidatorFunc func(ctx context.Context, tenantID uuid.UUID) error

// ValidateTenant calls f
func (f TenantValidatorFunc) ValidateTenant(ctx context.Context, tenantID uuid.UUID) error {
	return f(ctx, tenantID)
}

// TenantConfig configures Tenant
type TenantConfig struct {
	// Validator is optional; without it any well-formed id is accepted
	Validator TenantValidator
	Logger    *zap.Logger
}

// Tenant reads the tenant from the X-Tenant-ID header, rejects requests
// without a valid one and stores it in the gin and request contexts.
func Tenant(cfg TenantConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		raw := c.GetHeader(TenantHeaderKey)
		if raw == "" {
			abort(c, http.StatusBadRequest, dto.ErrCodeTenantRequired, "X-Tenant-ID header is required")
			return
		}
		tenantID, err := uuid.Parse(raw)
		if err != nil || tenantID == uuid.Nil {
			abort(c, http.StatusBadRequest, dto.ErrCodeTenantRequired, "X-Tenant-ID must be a UUID")
			return
		}

		if cfg.Validator != nil {
			if err := cfg.Validator.ValidateTenant(c.Request.Context(), tenantID); err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					abort(c, http.StatusNotFound, dto.ErrCodeNotFound, "Unknown tenant")
					return
				}
				log.Error("Tenant validation failed", zap.String("tenant_id", raw), zap.Error(err))
				abort(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
				return
			}
		}

		c.Set(TenantIDKey, tenantID)
		ctx, _ := logger.WithTenantID(c.Request.Context(), logger.GetGinLogger(c), raw)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetTenantID returns the tenant set by Tenant, or uuid.Nil
func GetTenantID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(TenantIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
