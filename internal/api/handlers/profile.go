package handlers

import (
	"net/http"

	"ledger-api/internal/ledger/models"
	"ledger-api/internal/pkg/apierrors"
	"ledger-api/internal/pkg/logging"

	"github.com/gin-gonic/gin"
)

// MakeCreateProfileHandler wraps Engine.CreateProfile: bind, validate, call
// the kernel, log, respond.
func MakeCreateProfileHandler(container HandlerDependencies) gin.HandlerFunc {
	engine := container.GetEngine()

	return func(c *gin.Context) {
		var req struct {
			Name            string `json:"name" binding:"required"`
			Owner           string `json:"owner" binding:"required"`
			DefaultCurrency string `json:"default_currency" binding:"required"`
			AccountingMode  string `json:"accounting_mode"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			apiErr := apierrors.NewValidationError("invalid request body")
			logging.Warn("invalid create profile request", map[string]interface{}{"error": err.Error()})
			c.JSON(apiErr.Status, apiErr)
			return
		}

		cur, ok := engine.Currencies().Get(req.DefaultCurrency)
		if !ok {
			apiErr := apierrors.NewValidationError("unknown currency code: " + req.DefaultCurrency)
			c.JSON(apiErr.Status, apiErr)
			return
		}

		mode := models.AccountingMode(req.AccountingMode)
		profile, err := engine.CreateProfile(c.Request.Context(), cur, req.Name, req.Owner, mode)
		if err != nil {
			apiErr := apierrors.FromKernel(err)
			logging.Warn("create profile failed", map[string]interface{}{"error": err.Error()})
			c.JSON(apiErr.Status, apiErr)
			return
		}

		logging.Info("profile created", map[string]interface{}{"profile_id": profile.ID.String()})
		c.JSON(http.StatusCreated, profile)
	}
}
