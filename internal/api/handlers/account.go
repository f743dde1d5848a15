package handlers

import (
	"net/http"

	"ledger-api/internal/ledger/models"
	"ledger-api/internal/pkg/apierrors"
	metrics "ledger-api/internal/pkg/telemetry"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MakeCreateAccountHandler wraps Engine.CreateAccount.
func MakeCreateAccountHandler(container HandlerDependencies) gin.HandlerFunc {
	engine := container.GetEngine()
	store := container.GetStore()

	return func(c *gin.Context) {
		groupID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			apiErr := apierrors.NewValidationError("invalid group id")
			c.JSON(apiErr.Status, apiErr)
			return
		}

		var req struct {
			Code        string `json:"code" binding:"required"`
			Name        string `json:"name" binding:"required"`
			Currency    string `json:"currency" binding:"required"`
			AccountType string `json:"account_type" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			apiErr := apierrors.NewValidationError("invalid request body")
			c.JSON(apiErr.Status, apiErr)
			return
		}

		group, err := store.GetGroup(c.Request.Context(), groupID)
		if err != nil {
			apiErr := apierrors.NewNotFoundError("group")
			c.JSON(apiErr.Status, apiErr)
			return
		}
		// The group belongs to a book, which belongs to a profile; accounts
		// are created against that profile's currency rules.
		book, err := store.GetBook(c.Request.Context(), group.BookID)
		if err != nil {
			apiErr := apierrors.NewNotFoundError("book")
			c.JSON(apiErr.Status, apiErr)
			return
		}
		profile, err := store.GetProfile(c.Request.Context(), book.ProfileID)
		if err != nil {
			apiErr := apierrors.NewNotFoundError("profile")
			c.JSON(apiErr.Status, apiErr)
			return
		}

		cur, ok := engine.Currencies().Get(req.Currency)
		if !ok {
			apiErr := apierrors.NewValidationError("unknown currency code: " + req.Currency)
			c.JSON(apiErr.Status, apiErr)
			return
		}

		account, err := engine.CreateAccount(c.Request.Context(), profile, group, req.Code, req.Name, cur, models.AccountType(req.AccountType))
		if err != nil {
			apiErr := apierrors.FromKernel(err)
			c.JSON(apiErr.Status, apiErr)
			return
		}

		c.JSON(http.StatusCreated, account)
	}
}

// MakeGetBalancesHandler wraps Engine.GetBalances.
func MakeGetBalancesHandler(container HandlerDependencies) gin.HandlerFunc {
	engine := container.GetEngine()
	store := container.GetStore()

	return func(c *gin.Context) {
		accountID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			apiErr := apierrors.NewValidationError("invalid account id")
			c.JSON(apiErr.Status, apiErr)
			return
		}

		account, err := store.GetAccount(c.Request.Context(), accountID)
		if err != nil {
			apiErr := apierrors.NewNotFoundError("account")
			c.JSON(apiErr.Status, apiErr)
			return
		}

		accountBalance, profileBalance, err := engine.GetBalances(c.Request.Context(), account)
		if err != nil {
			apiErr := apierrors.FromKernel(err)
			c.JSON(apiErr.Status, apiErr)
			return
		}

		profileBalanceFloat, _ := profileBalance.Decimal().Float64()
		metrics.RecordAccountBalance(profileBalanceFloat)
		if pockets, err := store.PocketsByAccount(c.Request.Context(), account.ID); err == nil {
			imbalance, _ := account.Imbalance.Decimal().Float64()
			metrics.RecordAccountState(account.ID.String(), len(pockets), imbalance)
		}

		c.JSON(http.StatusOK, gin.H{
			"account_id":      account.ID,
			"account_balance": accountBalance.String(),
			"profile_balance": profileBalance.String(),
			"currency":        account.Currency.Code,
		})
	}
}
