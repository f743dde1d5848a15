package handlers

import (
	"net/http"

	"ledger-api/internal/pkg/apierrors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MakeCreateGroupHandler wraps Engine.CreateTopLevelGroup / CreateChildGroup:
// a group with no parent_id becomes a top-level group in the book, one with
// a parent_id becomes a child of that group.
func MakeCreateGroupHandler(container HandlerDependencies) gin.HandlerFunc {
	engine := container.GetEngine()
	store := container.GetStore()

	return func(c *gin.Context) {
		bookID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			apiErr := apierrors.NewValidationError("invalid book id")
			c.JSON(apiErr.Status, apiErr)
			return
		}

		var req struct {
			Code     string  `json:"code" binding:"required"`
			Name     string  `json:"name" binding:"required"`
			ParentID *string `json:"parent_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			apiErr := apierrors.NewValidationError("invalid request body")
			c.JSON(apiErr.Status, apiErr)
			return
		}

		book, err := store.GetBook(c.Request.Context(), bookID)
		if err != nil {
			apiErr := apierrors.NewNotFoundError("book")
			c.JSON(apiErr.Status, apiErr)
			return
		}

		var group interface{}
		if req.ParentID != nil && *req.ParentID != "" {
			parentID, err := uuid.Parse(*req.ParentID)
			if err != nil {
				apiErr := apierrors.NewValidationError("invalid parent_id")
				c.JSON(apiErr.Status, apiErr)
				return
			}
			parent, err := store.GetGroup(c.Request.Context(), parentID)
			if err != nil {
				apiErr := apierrors.NewNotFoundError("parent group")
				c.JSON(apiErr.Status, apiErr)
				return
			}
			g, err := engine.CreateChildGroup(c.Request.Context(), parent, req.Name, req.Code)
			if err != nil {
				apiErr := apierrors.FromKernel(err)
				c.JSON(apiErr.Status, apiErr)
				return
			}
			group = g
		} else {
			g, err := engine.CreateTopLevelGroup(c.Request.Context(), book, req.Name, req.Code)
			if err != nil {
				apiErr := apierrors.FromKernel(err)
				c.JSON(apiErr.Status, apiErr)
				return
			}
			group = g
		}

		c.JSON(http.StatusCreated, group)
	}
}
