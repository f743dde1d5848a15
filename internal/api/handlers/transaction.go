package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"ledger-api/internal/infrastructure/events"
	"ledger-api/internal/infrastructure/messaging"
	"ledger-api/internal/ledger/kernelerr"
	"ledger-api/internal/ledger/models"
	"ledger-api/internal/ledger/money"
	"ledger-api/internal/pkg/apierrors"
	"ledger-api/internal/pkg/idempotency"
	"ledger-api/internal/pkg/logging"
	metrics "ledger-api/internal/pkg/telemetry"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type splitRequest struct {
	AccountID string `json:"account_id" binding:"required"`
	SplitType string `json:"split_type" binding:"required"` // DEBIT or CREDIT
	Amount    string `json:"amount" binding:"required"`
}

// MakeQueueTransactionHandler accepts the same request body as the
// synchronous posting endpoint but only validates shape and queues the
// request on the command topic; the transaction consumer posts it through
// the kernel later. Responds 202 with the idempotency key the consumer will
// dedup on.
func MakeQueueTransactionHandler(container HandlerDependencies) gin.HandlerFunc {
	store := container.GetStore()
	publisher := container.GetEventPublisher()

	return func(c *gin.Context) {
		bookID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			apiErr := apierrors.NewValidationError("invalid book id")
			c.JSON(apiErr.Status, apiErr)
			return
		}

		var req struct {
			Description     string         `json:"description" binding:"required"`
			TransactionDate time.Time      `json:"transaction_date" binding:"required"`
			Splits          []splitRequest `json:"splits" binding:"required,min=1"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			apiErr := apierrors.NewValidationError("invalid request body: " + err.Error())
			c.JSON(apiErr.Status, apiErr)
			return
		}

		if _, err := store.GetBook(c.Request.Context(), bookID); err != nil {
			apiErr := apierrors.NewNotFoundError("book")
			c.JSON(apiErr.Status, apiErr)
			return
		}

		requested := make([]messaging.RequestedSplit, 0, len(req.Splits))
		fingerprint := strings.Builder{}
		for _, rs := range req.Splits {
			if _, err := uuid.Parse(rs.AccountID); err != nil {
				apiErr := apierrors.NewValidationError("invalid account_id: " + rs.AccountID)
				c.JSON(apiErr.Status, apiErr)
				return
			}
			if _, err := money.NewFromString(rs.Amount); err != nil {
				apiErr := apierrors.NewValidationError("invalid amount: " + rs.Amount)
				c.JSON(apiErr.Status, apiErr)
				return
			}
			requested = append(requested, messaging.RequestedSplit{
				AccountID:     rs.AccountID,
				SplitType:     strings.ToUpper(rs.SplitType),
				AccountAmount: rs.Amount,
			})
			fmt.Fprintf(&fingerprint, "%s:%s:%s|", rs.SplitType, rs.AccountID, rs.Amount)
		}

		idempotencyKey := idempotency.GenerateTransactionKey(bookID, req.TransactionDate, req.Description, fingerprint.String())

		event := messaging.TransactionRequestedEvent{
			IdempotencyKey:  idempotencyKey,
			BookID:          bookID.String(),
			Description:     req.Description,
			TransactionDate: req.TransactionDate,
			Splits:          requested,
			Timestamp:       time.Now(),
		}
		if err := publisher.PublishTransactionRequested(event); err != nil {
			logging.Error("failed to queue transaction request", err, map[string]interface{}{
				"book_id": bookID.String(),
			})
			apiErr := apierrors.NewInternalServerError()
			c.JSON(apiErr.Status, apiErr)
			return
		}

		logging.Info("transaction request queued", map[string]interface{}{
			"book_id":         bookID.String(),
			"idempotency_key": idempotencyKey,
		})
		c.JSON(http.StatusAccepted, gin.H{
			"status":          "queued",
			"idempotency_key": idempotencyKey,
		})
	}
}

// MakeCreateTransactionHandler wraps Engine.CreateTransaction, serialized per
// book through bookguard: the kernel assumes one writer per book at a time,
// so the host enforces it here.
func MakeCreateTransactionHandler(container HandlerDependencies) gin.HandlerFunc {
	engine := container.GetEngine()
	store := container.GetStore()
	guard := container.GetBookGuard()
	publisher := container.GetEventPublisher()

	return func(c *gin.Context) {
		bookID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			apiErr := apierrors.NewValidationError("invalid book id")
			c.JSON(apiErr.Status, apiErr)
			return
		}

		var req struct {
			Description     string         `json:"description" binding:"required"`
			TransactionDate time.Time      `json:"transaction_date" binding:"required"`
			Splits          []splitRequest `json:"splits" binding:"required,min=1"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			apiErr := apierrors.NewValidationError("invalid request body: " + err.Error())
			c.JSON(apiErr.Status, apiErr)
			return
		}

		book, err := store.GetBook(c.Request.Context(), bookID)
		if err != nil {
			apiErr := apierrors.NewNotFoundError("book")
			c.JSON(apiErr.Status, apiErr)
			return
		}

		splits := make([]*models.Split, 0, len(req.Splits))
		fingerprint := strings.Builder{}
		for _, rs := range req.Splits {
			accountID, err := uuid.Parse(rs.AccountID)
			if err != nil {
				apiErr := apierrors.NewValidationError("invalid account_id: " + rs.AccountID)
				c.JSON(apiErr.Status, apiErr)
				return
			}
			amount, err := money.NewFromString(rs.Amount)
			if err != nil {
				apiErr := apierrors.NewValidationError("invalid amount: " + rs.Amount)
				c.JSON(apiErr.Status, apiErr)
				return
			}
			splitType := models.Debit
			if strings.EqualFold(rs.SplitType, "CREDIT") {
				splitType = models.Credit
			}
			splits = append(splits, models.NewSplit(accountID, amount, splitType))
			fmt.Fprintf(&fingerprint, "%s:%s:%s|", rs.SplitType, rs.AccountID, rs.Amount)
		}

		idempotencyKey := idempotency.GenerateTransactionKey(bookID, req.TransactionDate, req.Description, fingerprint.String())

		var tx *models.Transaction
		lockErr := guard.With(bookID, func() error {
			tx, err = engine.CreateTransaction(c.Request.Context(), book, req.TransactionDate, req.Description, splits)
			return err
		})

		if lockErr != nil {
			apiErr := apierrors.FromKernel(lockErr)
			kind, _ := kernelerr.KindOf(lockErr)
			logging.Warn("transaction failed", map[string]interface{}{
				"book_id": bookID.String(),
				"error":   lockErr.Error(),
			})
			metrics.RecordTransactionRolledBack(string(kind))

			_ = publisher.PublishTransactionFailed(messaging.TransactionFailedEvent{
				BookID:          bookID.String(),
				Description:     req.Description,
				TransactionDate: req.TransactionDate,
				ErrorKind:       string(kind),
				ErrorMessage:    lockErr.Error(),
				Timestamp:       time.Now(),
			})
			events.GetBroker().Publish(events.TransactionEvent{
				Type:        "rolled_back",
				BookID:      bookID.String(),
				Description: req.Description,
				Error:       lockErr.Error(),
			})

			c.JSON(apiErr.Status, apiErr)
			return
		}

		totDebits, totCredits := money.Zero, money.Zero
		for _, s := range tx.Splits {
			if s.SplitType == models.Debit {
				totDebits = totDebits.Add(s.ProfileAmount)
			} else {
				totCredits = totCredits.Add(s.ProfileAmount)
			}
		}

		metrics.RecordTransactionPosted()
		// The builder appends the synthetic exchange split last when totals
		// needed reconciling.
		if len(tx.Splits) > len(req.Splits) {
			xe := tx.Splits[len(tx.Splits)-1]
			direction := "gain"
			if xe.SplitType == models.Debit {
				direction = "loss"
			}
			metrics.RecordExchangeReconciliation(direction)
		}

		if err := publisher.PublishTransactionPosted(messaging.TransactionPostedEvent{
			TransactionID:   tx.ID.String(),
			BookID:          bookID.String(),
			Description:     tx.Description,
			TransactionDate: tx.TransactionDate,
			TotalDebits:     totDebits.String(),
			TotalCredits:    totCredits.String(),
			Timestamp:       time.Now(),
		}); err != nil {
			logging.Error("failed to publish transaction posted event", err, map[string]interface{}{
				"transaction_id": tx.ID.String(),
			})
		}

		debitsFloat, _ := totDebits.Decimal().Float64()
		creditsFloat, _ := totCredits.Decimal().Float64()
		events.GetBroker().Publish(events.TransactionEvent{
			Type:            "posted",
			TransactionID:   tx.ID.String(),
			BookID:          bookID.String(),
			Description:     tx.Description,
			TotalDebits:     debitsFloat,
			TotalCredits:    creditsFloat,
			TransactionDate: tx.TransactionDate.Format(time.RFC3339),
		})

		logging.Info("transaction posted", map[string]interface{}{
			"transaction_id":  tx.ID.String(),
			"book_id":         bookID.String(),
			"idempotency_key": idempotencyKey,
		})

		c.JSON(http.StatusCreated, tx)
	}
}
