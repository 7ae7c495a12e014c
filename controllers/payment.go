// controllers/payment.go
package controllers

import (
	"errors"
	"net/http"
	"time"

	"fieldservice-backend/billing"
	"fieldservice-backend/config"
	"fieldservice-backend/models"
	"fieldservice-backend/services"
	"fieldservice-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreatePaymentInput defines the expected JSON structure for recording a payment
type CreatePaymentInput struct {
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Method    string          `json:"method" binding:"required,oneof=cash card check bank_transfer other"`
	Date      *time.Time      `json:"date"`
	Reference string          `json:"reference"`
	Notes     string          `json:"notes"`
}

// CreatePayment records a payment against an invoice through the billing
// engine. Amounts over the outstanding balance are rejected outright.
func CreatePayment(c *gin.Context) {
	companyUUID, userUUID, ok := contextIDs(c)
	if !ok {
		return
	}

	invoiceUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid invoice ID format")
		return
	}

	var input CreatePaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	store := services.NewBillingStore(config.DB, companyUUID, userUUID)

	invoice, err := store.Fetch(c.Request.Context(), billing.KindInvoice, invoiceUUID.String())
	if err != nil {
		if errors.Is(err, services.ErrDocumentNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Invoice not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	payment := billing.Payment{
		Amount:    input.Amount,
		Method:    billing.PaymentMethod(input.Method),
		Reference: input.Reference,
		Notes:     input.Notes,
	}
	if input.Date != nil {
		payment.Date = *input.Date
	}

	updated, err := billing.RecordPayment(c.Request.Context(), store, store, invoice, payment)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrPaymentNotPositive),
			errors.Is(err, billing.ErrInvalidPaymentMethod):
			utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, billing.ErrPaymentExceedsBalance):
			utils.RespondWithError(c, http.StatusUnprocessableEntity,
				"Payment amount exceeds the outstanding balance of "+invoice.Balance.StringFixed(2))
		default:
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to record payment")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"invoice": updated,
		"balance": updated.Balance,
		"status":  updated.Status,
	})
}

// GetPayments lists the payments recorded against an invoice
func GetPayments(c *gin.Context) {
	companyUUID, _, ok := contextIDs(c)
	if !ok {
		return
	}

	invoiceUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid invoice ID format")
		return
	}

	var payments []models.Payment
	if err := config.DB.
		Where("company_id = ? AND document_id = ?", companyUUID, invoiceUUID).
		Order("paid_at").Find(&payments).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve payments")
		return
	}

	c.JSON(http.StatusOK, payments)
}
