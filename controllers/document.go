// controllers/document.go
package controllers

import (
	"errors"
	"net/http"

	"fieldservice-backend/billing"
	"fieldservice-backend/config"
	"fieldservice-backend/models"
	"fieldservice-backend/services"
	"fieldservice-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DocumentItemInput is one line item in a create/update request. Either
// productId (catalog line) or name/unitPrice (custom line) is expected.
type DocumentItemInput struct {
	ProductID   *uuid.UUID       `json:"productId"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Quantity    int              `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unitPrice"`
	OurPrice    *decimal.Decimal `json:"ourPrice"`
	Taxable     *bool            `json:"taxable"`
	Discount    *decimal.Decimal `json:"discount"`
}

// CreateDocumentInput defines the expected JSON structure for creating a document
type CreateDocumentInput struct {
	Kind    string              `json:"kind" binding:"required,oneof=estimate invoice"`
	JobID   uuid.UUID           `json:"jobId" binding:"required"`
	TaxRate *decimal.Decimal    `json:"taxRate"`
	Notes   string              `json:"notes"`
	Items   []DocumentItemInput `json:"items"`
}

// UpdateDocumentInput defines the expected JSON structure for updating a document
type UpdateDocumentInput struct {
	TaxRate *decimal.Decimal     `json:"taxRate"`
	Notes   *string              `json:"notes"`
	Items   *[]DocumentItemInput `json:"items"`
}

func contextIDs(c *gin.Context) (company, user uuid.UUID, ok bool) {
	companyID, exists := c.Get("companyId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Company ID not found in context")
		return uuid.Nil, uuid.Nil, false
	}
	companyUUID, err := uuid.Parse(companyID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid company ID format")
		return uuid.Nil, uuid.Nil, false
	}
	userUUID := uuid.Nil
	if userID, exists := c.Get("userId"); exists {
		userUUID, _ = uuid.Parse(userID.(string))
	}
	return companyUUID, userUUID, true
}

// defaultTaxRateFor returns the company's configured rate, or the house
// default when the company row is missing.
func defaultTaxRateFor(companyUUID uuid.UUID) decimal.Decimal {
	var company models.Company
	if err := config.DB.First(&company, "id = ?", companyUUID).Error; err != nil {
		return config.Settings.DefaultTaxRate
	}
	if company.DefaultTaxRate.IsZero() {
		return config.Settings.DefaultTaxRate
	}
	return company.DefaultTaxRate
}

// applyItemInputs adds request line items to a draft through the typed
// line-item operations, so totals stay consistent per mutation.
func applyItemInputs(companyUUID uuid.UUID, draft *billing.Draft, items []DocumentItemInput) error {
	for _, in := range items {
		var item billing.LineItem
		if in.ProductID != nil {
			var product models.Product
			if err := config.DB.Where("company_id = ? AND id = ?", companyUUID, *in.ProductID).
				First(&product).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errors.New("product not found: " + in.ProductID.String())
				}
				return err
			}
			catalogProduct := billing.Product{
				ID:          product.ID.String(),
				Name:        product.Name,
				Description: product.Description,
				Price:       product.Price,
				Cost:        product.Cost,
				Category:    product.Category,
				Tags:        product.Tags,
				IsWarranty:  product.IsWarranty,
			}
			if billing.IsWarrantyProduct(catalogProduct, warrantyKeywordsFor(companyUUID)) {
				item = draft.AddWarranty(catalogProduct)
			} else {
				item = draft.AddFromCatalog(catalogProduct)
			}
		} else {
			item = draft.AddCustomLine()
			draft.SetName(item.ID, in.Name)
		}

		if in.Description != "" {
			draft.SetDescription(item.ID, in.Description)
		}
		if in.UnitPrice != nil {
			draft.SetUnitPrice(item.ID, *in.UnitPrice)
		}
		if in.OurPrice != nil {
			draft.SetOurPrice(item.ID, *in.OurPrice)
		}
		if in.Quantity > 0 {
			draft.SetQuantity(item.ID, in.Quantity)
		}
		if in.Taxable != nil {
			draft.SetTaxable(item.ID, *in.Taxable)
		}
		if in.Discount != nil {
			draft.SetDiscount(item.ID, *in.Discount)
		}
	}
	return nil
}

// CreateDocument creates a new estimate or invoice through the billing engine
func CreateDocument(c *gin.Context) {
	companyUUID, userUUID, ok := contextIDs(c)
	if !ok {
		return
	}

	var input CreateDocumentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	// Validate job exists in the same company
	var job models.Job
	if err := config.DB.Where("company_id = ? AND id = ?", companyUUID, input.JobID).
		First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusBadRequest, "Job not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	store := services.NewBillingStore(config.DB, companyUUID, userUUID)
	kind := billing.Kind(input.Kind)

	taxRate := defaultTaxRateFor(companyUUID)
	if input.TaxRate != nil && !input.TaxRate.IsNegative() {
		taxRate = *input.TaxRate
	}

	draft := billing.NewDraft(c.Request.Context(), store, kind, input.JobID.String(), taxRate)
	draft.Notes = input.Notes

	if err := applyItemInputs(companyUUID, draft, input.Items); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := billing.Save(c.Request.Context(), store, draft); err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to save document")
		return
	}

	rec, err := store.Fetch(c.Request.Context(), kind, draft.ID)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load saved document")
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// GetDocuments retrieves the company's documents, filterable by kind,
// status, and job
func GetDocuments(c *gin.Context) {
	companyUUID, _, ok := contextIDs(c)
	if !ok {
		return
	}

	query := config.DB.Preload("Items").Where("company_id = ?", companyUUID)
	if kind := c.Query("kind"); kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if jobID := c.Query("jobId"); jobID != "" {
		query = query.Where("job_id = ?", jobID)
	}

	var documents []models.Document
	if err := query.Order("created_at DESC").Find(&documents).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve documents")
		return
	}

	c.JSON(http.StatusOK, documents)
}

// GetDocument retrieves a specific document with items and payments
func GetDocument(c *gin.Context) {
	companyUUID, _, ok := contextIDs(c)
	if !ok {
		return
	}

	documentUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid document ID format")
		return
	}

	var document models.Document
	if err := config.DB.Preload("Items").Preload("Payments").
		Where("company_id = ? AND id = ?", companyUUID, documentUUID).
		First(&document).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Document not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, document)
}

// UpdateDocument updates a document's items, notes, or tax rate through the
// billing engine. The document number never changes.
func UpdateDocument(c *gin.Context) {
	companyUUID, userUUID, ok := contextIDs(c)
	if !ok {
		return
	}

	documentUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid document ID format")
		return
	}

	var input UpdateDocumentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var document models.Document
	if err := config.DB.Where("company_id = ? AND id = ?", companyUUID, documentUUID).
		First(&document).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Document not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	store := services.NewBillingStore(config.DB, companyUUID, userUUID)
	kind := billing.Kind(document.Kind)

	rec, err := store.Fetch(c.Request.Context(), kind, documentUUID.String())
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load document")
		return
	}
	draft := billing.LoadDraft(kind, rec)

	if input.TaxRate != nil && !input.TaxRate.IsNegative() {
		draft.TaxRate = *input.TaxRate
	}
	if input.Notes != nil {
		draft.Notes = *input.Notes
	}
	if input.Items != nil {
		draft.Items = nil
		if err := applyItemInputs(companyUUID, draft, *input.Items); err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	if err := billing.Save(c.Request.Context(), store, draft); err != nil {
		if errors.Is(err, billing.ErrDocumentImmutable) {
			utils.RespondWithError(c, http.StatusConflict, "Converted estimates can no longer be modified")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update document")
		}
		return
	}

	updated, err := store.Fetch(c.Request.Context(), kind, draft.ID)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load updated document")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// ConvertDocument turns an estimate into a new invoice. A partial result
// (invoice created, estimate status update failed) is reported distinctly
// so the caller never mistakes it for full success.
func ConvertDocument(c *gin.Context) {
	companyUUID, userUUID, ok := contextIDs(c)
	if !ok {
		return
	}

	documentUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid document ID format")
		return
	}

	store := services.NewBillingStore(config.DB, companyUUID, userUUID)

	rec, err := store.Fetch(c.Request.Context(), billing.KindEstimate, documentUUID.String())
	if err != nil {
		if errors.Is(err, services.ErrDocumentNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Estimate not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}
	draft := billing.LoadDraft(billing.KindEstimate, rec)

	result := billing.ConvertToInvoice(c.Request.Context(), store, store, draft)
	switch result.State {
	case billing.Converted:
		invoice, err := store.Fetch(c.Request.Context(), billing.KindInvoice, result.InvoiceID)
		if err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load converted invoice")
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"state":   string(result.State),
			"invoice": invoice,
		})
	case billing.PartiallyConverted:
		c.JSON(http.StatusCreated, gin.H{
			"state":         string(result.State),
			"invoiceId":     result.InvoiceID,
			"invoiceNumber": result.InvoiceNumber,
			"warning":       "Invoice was created but the estimate could not be marked converted. Retry the estimate update.",
		})
	default:
		if errors.Is(result.Err, billing.ErrDocumentImmutable) {
			utils.RespondWithError(c, http.StatusConflict, "Estimate has already been converted")
			return
		}
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to convert estimate")
	}
}

// DeleteDocument soft deletes a document. Converted estimates and paid
// invoices stay on record.
func DeleteDocument(c *gin.Context) {
	companyUUID, _, ok := contextIDs(c)
	if !ok {
		return
	}

	documentUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid document ID format")
		return
	}

	var document models.Document
	if err := config.DB.Where("company_id = ? AND id = ?", companyUUID, documentUUID).
		First(&document).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Document not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if document.Status == billing.StatusConverted || document.Status == billing.StatusPaid {
		utils.RespondWithError(c, http.StatusConflict, "Document can no longer be deleted")
		return
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Where("document_id = ?", document.ID).Delete(&models.DocumentItem{}).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete document items")
		return
	}
	if err := tx.Delete(&document).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete document")
		return
	}

	tx.Commit()

	c.JSON(http.StatusOK, gin.H{"message": "Document deleted successfully"})
}
