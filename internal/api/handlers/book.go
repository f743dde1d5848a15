package handlers

import (
	"net/http"
	"time"

	"ledger-api/internal/pkg/apierrors"
	"ledger-api/internal/pkg/logging"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MakeCreateBookHandler wraps Engine.CreateBook and Engine.SeedDefaultChart:
// a book is useless until it has its four designated system accounts, so the
// handler seeds the default chart in the same call rather than exposing a
// second bootstrap endpoint.
func MakeCreateBookHandler(container HandlerDependencies) gin.HandlerFunc {
	engine := container.GetEngine()
	store := container.GetStore()

	return func(c *gin.Context) {
		profileID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			apiErr := apierrors.NewValidationError("invalid profile id")
			c.JSON(apiErr.Status, apiErr)
			return
		}

		var req struct {
			Code         string     `json:"code" binding:"required"`
			Name         string     `json:"name" binding:"required"`
			Start        time.Time  `json:"start" binding:"required"`
			End          *time.Time `json:"end"`
			CheckingName string     `json:"checking_account_name"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			apiErr := apierrors.NewValidationError("invalid request body")
			c.JSON(apiErr.Status, apiErr)
			return
		}

		profile, err := store.GetProfile(c.Request.Context(), profileID)
		if err != nil {
			apiErr := apierrors.NewNotFoundError("profile")
			c.JSON(apiErr.Status, apiErr)
			return
		}

		book, err := engine.CreateBook(c.Request.Context(), profile, req.Code, req.Name, req.Start, req.End)
		if err != nil {
			apiErr := apierrors.FromKernel(err)
			c.JSON(apiErr.Status, apiErr)
			return
		}

		checkingName := req.CheckingName
		if checkingName == "" {
			checkingName = "Checking Account"
		}
		chart, err := engine.SeedDefaultChart(c.Request.Context(), profile, book, checkingName, profile.DefaultCurrency)
		if err != nil {
			apiErr := apierrors.FromKernel(err)
			logging.Error("failed to seed default chart", err, map[string]interface{}{"book_id": book.ID.String()})
			c.JSON(apiErr.Status, apiErr)
			return
		}

		logging.Info("book created", map[string]interface{}{"book_id": book.ID.String(), "profile_id": profileID.String()})
		c.JSON(http.StatusCreated, gin.H{
			"book":  book,
			"chart": chart,
		})
	}
}
