// controllers/builder.go
package controllers

import (
	"errors"
	"net/http"
	"sync"

	"fieldservice-backend/billing"
	"fieldservice-backend/config"
	"fieldservice-backend/services"
	"fieldservice-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// builderSession is one live builder workflow. The app is single-operator,
// so sessions live in process memory and die with it; closing the session
// discards anything not yet saved.
type builderSession struct {
	mu        sync.Mutex
	id        string
	companyID uuid.UUID
	builder   *billing.Builder
	store     *services.BillingStore
}

var (
	sessionsMu sync.Mutex
	sessions   = make(map[string]*builderSession)
	// documentSessions prevents two live builders from persisting the same
	// document: last-writer-wins is accepted across logins, not within one.
	documentSessions = make(map[string]string)
)

var (
	dispatcherOnce sync.Once
	dispatcher     billing.Dispatcher
)

func builderDispatcher() billing.Dispatcher {
	dispatcherOnce.Do(func() {
		dispatcher = services.NewDispatchService(config.DB)
	})
	return dispatcher
}

// SetDispatcher overrides the SMS dispatcher (used by tests).
func SetDispatcher(d billing.Dispatcher) {
	dispatcherOnce.Do(func() {})
	dispatcher = d
}

func lookupSession(c *gin.Context) *builderSession {
	companyUUID, _, ok := contextIDs(c)
	if !ok {
		return nil
	}
	sessionsMu.Lock()
	session, found := sessions[c.Param("sid")]
	sessionsMu.Unlock()
	if !found || session.companyID != companyUUID {
		utils.RespondWithError(c, http.StatusNotFound, "Builder session not found")
		return nil
	}
	return session
}

func registerDocument(session *builderSession) {
	if id := session.builder.Draft().ID; id != "" {
		sessionsMu.Lock()
		documentSessions[id] = session.id
		sessionsMu.Unlock()
	}
}

func dropSession(session *builderSession) {
	sessionsMu.Lock()
	delete(sessions, session.id)
	if id := session.builder.Draft().ID; id != "" && documentSessions[id] == session.id {
		delete(documentSessions, id)
	}
	sessionsMu.Unlock()
}

func sessionState(session *builderSession) gin.H {
	draft := session.builder.Draft()
	rec := draft.Record()
	return gin.H{
		"sessionId": session.id,
		"step":      session.builder.Step().String(),
		"closed":    session.builder.Closed(),
		"document": gin.H{
			"id":        draft.ID,
			"kind":      draft.Kind,
			"number":    draft.Number,
			"status":    draft.Status,
			"jobId":     draft.JobID,
			"notes":     draft.Notes,
			"taxRate":   draft.TaxRate,
			"items":     rec.Items,
			"subtotal":  rec.Subtotal,
			"taxAmount": rec.TaxAmount,
			"total":     rec.Total,
			"margin":    billing.TotalMargin(draft.Items),
		},
	}
}

// StartBuilderInput defines the expected JSON structure for opening a session
type StartBuilderInput struct {
	Kind       string     `json:"kind" binding:"required,oneof=estimate invoice"`
	JobID      *uuid.UUID `json:"jobId"`
	DocumentID *uuid.UUID `json:"documentId"`
}

// StartBuilderSession opens a builder over a new or existing document. The
// session is not interactive until the draft is fully initialized,
// including its number.
func StartBuilderSession(c *gin.Context) {
	companyUUID, userUUID, ok := contextIDs(c)
	if !ok {
		return
	}

	var input StartBuilderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if input.DocumentID == nil && input.JobID == nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Either jobId or documentId is required")
		return
	}

	store := services.NewBillingStore(config.DB, companyUUID, userUUID)
	kind := billing.Kind(input.Kind)

	var draft *billing.Draft
	if input.DocumentID != nil {
		sessionsMu.Lock()
		_, busy := documentSessions[input.DocumentID.String()]
		sessionsMu.Unlock()
		if busy {
			utils.RespondWithError(c, http.StatusConflict, "A builder session is already open for this document")
			return
		}

		rec, err := store.Fetch(c.Request.Context(), kind, input.DocumentID.String())
		if err != nil {
			if errors.Is(err, services.ErrDocumentNotFound) {
				utils.RespondWithError(c, http.StatusNotFound, "Document not found")
			} else {
				utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			}
			return
		}
		if rec.Status == billing.StatusConverted {
			utils.RespondWithError(c, http.StatusConflict, "Converted estimates can no longer be edited")
			return
		}
		draft = billing.LoadDraft(kind, rec)
	} else {
		draft = billing.NewDraft(c.Request.Context(), store, kind, input.JobID.String(), defaultTaxRateFor(companyUUID))
	}

	session := &builderSession{
		id:        uuid.New().String(),
		companyID: companyUUID,
		builder:   billing.NewBuilder(draft, store, builderDispatcher()),
		store:     store,
	}

	sessionsMu.Lock()
	sessions[session.id] = session
	sessionsMu.Unlock()
	registerDocument(session)

	c.JSON(http.StatusCreated, sessionState(session))
}

// GetBuilderSession returns the current workflow state
func GetBuilderSession(c *gin.Context) {
	session := lookupSession(c)
	if session == nil {
		return
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	c.JSON(http.StatusOK, sessionState(session))
}

// AddBuilderItemInput defines one item addition inside a session
type AddBuilderItemInput struct {
	ProductID *uuid.UUID `json:"productId"`
	Custom    bool       `json:"custom"`
}

// AddBuilderItem appends a catalog or custom line item to the draft
func AddBuilderItem(c *gin.Context) {
	session := lookupSession(c)
	if session == nil {
		return
	}

	var input AddBuilderItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.builder.Closed() {
		utils.RespondWithError(c, http.StatusConflict, "Builder session is closed")
		return
	}

	draft := session.builder.Draft()
	if input.ProductID != nil {
		products, err := session.store.Products(c.Request.Context())
		if err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load catalog")
			return
		}
		for _, p := range products {
			if p.ID == input.ProductID.String() {
				draft.AddFromCatalog(p)
				c.JSON(http.StatusOK, sessionState(session))
				return
			}
		}
		utils.RespondWithError(c, http.StatusBadRequest, "Product not found")
		return
	}
	if !input.Custom {
		utils.RespondWithError(c, http.StatusBadRequest, "Either productId or custom is required")
		return
	}
	draft.AddCustomLine()
	c.JSON(http.StatusOK, sessionState(session))
}

// UpdateBuilderItemInput carries typed field updates for one line item
type UpdateBuilderItemInput struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Quantity    *int             `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unitPrice"`
	OurPrice    *decimal.Decimal `json:"ourPrice"`
	Taxable     *bool            `json:"taxable"`
	Discount    *decimal.Decimal `json:"discount"`
}

// UpdateBuilderItem applies typed setters to one line item. Quantity and
// unit price changes recompute the item total in the same operation.
func UpdateBuilderItem(c *gin.Context) {
	session := lookupSession(c)
	if session == nil {
		return
	}

	var input UpdateBuilderItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.builder.Closed() {
		utils.RespondWithError(c, http.StatusConflict, "Builder session is closed")
		return
	}

	draft := session.builder.Draft()
	itemID := c.Param("itemId")

	if input.Name != nil {
		draft.SetName(itemID, *input.Name)
	}
	if input.Description != nil {
		draft.SetDescription(itemID, *input.Description)
	}
	if input.Quantity != nil {
		draft.SetQuantity(itemID, *input.Quantity)
	}
	if input.UnitPrice != nil {
		draft.SetUnitPrice(itemID, *input.UnitPrice)
	}
	if input.OurPrice != nil {
		draft.SetOurPrice(itemID, *input.OurPrice)
	}
	if input.Taxable != nil {
		draft.SetTaxable(itemID, *input.Taxable)
	}
	if input.Discount != nil {
		draft.SetDiscount(itemID, *input.Discount)
	}

	c.JSON(http.StatusOK, sessionState(session))
}

// RemoveBuilderItem deletes a line item; unknown ids are a no-op
func RemoveBuilderItem(c *gin.Context) {
	session := lookupSession(c)
	if session == nil {
		return
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	session.builder.Draft().Remove(c.Param("itemId"))
	c.JSON(http.StatusOK, sessionState(session))
}

// AddBuilderWarrantyInput selects one warranty product
type AddBuilderWarrantyInput struct {
	ProductID uuid.UUID `json:"productId" binding:"required"`
}

// AddBuilderWarranty adds a warranty product as a non-taxable line item
func AddBuilderWarranty(c *gin.Context) {
	session := lookupSession(c)
	if session == nil {
		return
	}

	var input AddBuilderWarrantyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	draft := session.builder.Draft()
	if draft.HasWarranty(input.ProductID.String()) {
		c.JSON(http.StatusOK, sessionState(session))
		return
	}

	products, err := session.store.Products(c.Request.Context())
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load catalog")
		return
	}
	keywords := warrantyKeywordsFor(session.companyID)
	for _, p := range billing.WarrantyProducts(products, keywords) {
		if p.ID == input.ProductID.String() {
			draft.AddWarranty(p)
			c.JSON(http.StatusOK, sessionState(session))
			return
		}
	}
	utils.RespondWithError(c, http.StatusBadRequest, "Warranty product not found")
}

// RemoveBuilderWarranty removes the warranty line for a product
func RemoveBuilderWarranty(c *gin.Context) {
	session := lookupSession(c)
	if session == nil {
		return
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	session.builder.Draft().RemoveWarranty(c.Param("productId"))
	c.JSON(http.StatusOK, sessionState(session))
}

// BuilderNext advances the workflow one step
func BuilderNext(c *gin.Context) {
	session := lookupSession(c)
	if session == nil {
		return
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	if err := session.builder.Next(c.Request.Context()); err != nil {
		switch {
		case errors.Is(err, billing.ErrNoLineItems):
			utils.RespondWithError(c, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, billing.ErrSaveInFlight), errors.Is(err, billing.ErrAtLastStep):
			utils.RespondWithError(c, http.StatusConflict, err.Error())
		default:
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to save document")
		}
		return
	}
	registerDocument(session)
	c.JSON(http.StatusOK, sessionState(session))
}

// BuilderBack returns to the previous step
func BuilderBack(c *gin.Context) {
	session := lookupSession(c)
	if session == nil {
		return
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	if err := session.builder.Back(); err != nil {
		utils.RespondWithError(c, http.StatusConflict, err.Error())
		return
	}
	c.JSON(http.StatusOK, sessionState(session))
}

// BuilderSendInput names the recipient for dispatch
type BuilderSendInput struct {
	Recipient string `json:"recipient" binding:"required"`
}

// BuilderSend saves and dispatches the document, closing the session on
// success
func BuilderSend(c *gin.Context) {
	session := lookupSession(c)
	if session == nil {
		return
	}

	var input BuilderSendInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if err := session.builder.Send(c.Request.Context(), input.Recipient); err != nil {
		switch {
		case errors.Is(err, billing.ErrNotAtSendStep), errors.Is(err, billing.ErrSaveInFlight):
			utils.RespondWithError(c, http.StatusConflict, err.Error())
		default:
			utils.RespondWithError(c, http.StatusBadGateway, "Failed to dispatch document")
		}
		return
	}

	state := sessionState(session)
	dropSession(session)
	c.JSON(http.StatusOK, state)
}

// CloseBuilderSession cancels the workflow, discarding unsaved changes
func CloseBuilderSession(c *gin.Context) {
	session := lookupSession(c)
	if session == nil {
		return
	}
	session.mu.Lock()
	session.builder.Close()
	session.mu.Unlock()
	dropSession(session)

	c.JSON(http.StatusOK, gin.H{"message": "Builder session closed"})
}
