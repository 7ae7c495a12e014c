// controllers/product.go
package controllers

import (
	"errors"
	"net/http"

	"fieldservice-backend/billing"
	"fieldservice-backend/config"
	"fieldservice-backend/models"
	"fieldservice-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreateProductInput defines the expected JSON structure for creating a product
type CreateProductInput struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Cost        decimal.Decimal `json:"cost"`
	Category    string          `json:"category"`
	Tags        []string        `json:"tags"`
	IsWarranty  bool            `json:"isWarranty"`
}

// UpdateProductInput defines the expected JSON structure for updating a product
type UpdateProductInput struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Cost        *decimal.Decimal `json:"cost"`
	Category    *string          `json:"category"`
	Tags        *[]string        `json:"tags"`
	IsWarranty  *bool            `json:"isWarranty"`
	IsActive    *bool            `json:"isActive"`
}

// CreateProduct creates a new catalog product for the company
func CreateProduct(c *gin.Context) {
	companyID, exists := c.Get("companyId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Company ID not found in context")
		return
	}

	companyUUID, err := uuid.Parse(companyID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid company ID format")
		return
	}

	var input CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if input.Price.IsNegative() || input.Cost.IsNegative() {
		utils.RespondWithError(c, http.StatusBadRequest, "Price and cost must be non-negative")
		return
	}

	product := models.Product{
		CompanyID:   companyUUID,
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Cost:        input.Cost,
		Category:    input.Category,
		Tags:        input.Tags,
		IsWarranty:  input.IsWarranty,
		IsActive:    true,
	}

	if err := config.DB.Create(&product).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create product")
		return
	}

	c.JSON(http.StatusCreated, product)
}

// GetProducts retrieves the company's catalog. With ?warranty=true only
// warranty offerings (per the configured classification) are returned.
func GetProducts(c *gin.Context) {
	companyID, exists := c.Get("companyId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Company ID not found in context")
		return
	}

	companyUUID, err := uuid.Parse(companyID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid company ID format")
		return
	}

	var products []models.Product
	if err := config.DB.Where("company_id = ? AND is_active = ?", companyUUID, true).
		Order("name").Find(&products).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve products")
		return
	}

	if c.Query("warranty") != "true" {
		c.JSON(http.StatusOK, products)
		return
	}

	keywords := warrantyKeywordsFor(companyUUID)
	var warranties []models.Product
	for _, p := range products {
		candidate := billing.Product{
			Name:       p.Name,
			Category:   p.Category,
			Tags:       p.Tags,
			IsWarranty: p.IsWarranty,
		}
		if billing.IsWarrantyProduct(candidate, keywords) {
			warranties = append(warranties, p)
		}
	}
	c.JSON(http.StatusOK, warranties)
}

// warrantyKeywordsFor returns the company's configured keyword list, or the
// house default when unset.
func warrantyKeywordsFor(companyUUID uuid.UUID) []string {
	var company models.Company
	if err := config.DB.First(&company, "id = ?", companyUUID).Error; err != nil {
		return config.Settings.WarrantyKeywords
	}
	keywords := models.SplitKeywords(company.WarrantyKeywords)
	if len(keywords) == 0 {
		return config.Settings.WarrantyKeywords
	}
	return keywords
}

// GetProduct retrieves a specific product by ID
func GetProduct(c *gin.Context) {
	companyID, exists := c.Get("companyId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Company ID not found in context")
		return
	}

	companyUUID, err := uuid.Parse(companyID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid company ID format")
		return
	}

	productUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var product models.Product
	if err := config.DB.Where("company_id = ? AND id = ?", companyUUID, productUUID).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Product not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, product)
}

// UpdateProduct updates an existing product
func UpdateProduct(c *gin.Context) {
	companyID, exists := c.Get("companyId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Company ID not found in context")
		return
	}

	companyUUID, err := uuid.Parse(companyID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid company ID format")
		return
	}

	productUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var input UpdateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var product models.Product
	if err := config.DB.Where("company_id = ? AND id = ?", companyUUID, productUUID).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Product not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			utils.RespondWithError(c, http.StatusBadRequest, "Price must be non-negative")
			return
		}
		product.Price = *input.Price
	}
	if input.Cost != nil {
		if input.Cost.IsNegative() {
			utils.RespondWithError(c, http.StatusBadRequest, "Cost must be non-negative")
			return
		}
		product.Cost = *input.Cost
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.Tags != nil {
		product.Tags = *input.Tags
	}
	if input.IsWarranty != nil {
		product.IsWarranty = *input.IsWarranty
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := config.DB.Save(&product).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update product")
		return
	}

	c.JSON(http.StatusOK, product)
}

// DeleteProduct soft deletes a product
func DeleteProduct(c *gin.Context) {
	companyID, exists := c.Get("companyId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Company ID not found in context")
		return
	}

	companyUUID, err := uuid.Parse(companyID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid company ID format")
		return
	}

	productUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var product models.Product
	if err := config.DB.Where("company_id = ? AND id = ?", companyUUID, productUUID).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Product not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if err := config.DB.Delete(&product).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete product")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}
