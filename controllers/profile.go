// controllers/profile.go
package controllers

import (
	"net/http"

	"fieldservice-backend/config"
	"fieldservice-backend/models"
	"fieldservice-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type UpdateProfileInput struct {
	CompanyName    *string `json:"companyName"`
	CompanyAddress *string `json:"companyAddress"`
	Phone          *string `json:"phone"`
}

// GetProfile returns the company profile and billing settings for the
// authenticated user.
func GetProfile(c *gin.Context) {
	companyUUID, _, ok := contextIDs(c)
	if !ok {
		return
	}

	var company models.Company
	if err := config.DB.First(&company, "id = ?", companyUUID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Company not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"companyName":      company.Name,
		"companyAddress":   company.Address,
		"phone":            company.Phone,
		"defaultTaxRate":   company.DefaultTaxRate,
		"warrantyKeywords": models.SplitKeywords(company.WarrantyKeywords),
		"smsNotifications": company.SMSNotifications,
		"overdueReminders": company.OverdueReminders,
		"reminderMessage":  company.ReminderMessage,
	})
}

// UpdateProfile updates the company's name, address, and phone.
func UpdateProfile(c *gin.Context) {
	companyUUID, _, ok := contextIDs(c)
	if !ok {
		return
	}

	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	var company models.Company
	if err := config.DB.First(&company, "id = ?", companyUUID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Company not found")
		return
	}

	if input.CompanyName != nil {
		company.Name = *input.CompanyName
	}
	if input.CompanyAddress != nil {
		company.Address = *input.CompanyAddress
	}
	if input.Phone != nil {
		if !utils.ValidatePhone(*input.Phone) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
			return
		}
		company.Phone = *input.Phone
	}

	if err := config.DB.Save(&company).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated"})
}

type UpdateBillingSettingsInput struct {
	DefaultTaxRate   *decimal.Decimal `json:"defaultTaxRate"`
	WarrantyKeywords *string          `json:"warrantyKeywords"`
}

// UpdateBillingSettings changes the default tax rate applied to new drafts
// and the keyword list used to classify warranty products. Existing
// documents keep the rate they were created with.
func UpdateBillingSettings(c *gin.Context) {
	companyUUID, _, ok := contextIDs(c)
	if !ok {
		return
	}

	var input UpdateBillingSettingsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	var company models.Company
	if err := config.DB.First(&company, "id = ?", companyUUID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Company not found")
		return
	}

	if input.DefaultTaxRate != nil {
		rate := *input.DefaultTaxRate
		if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
			utils.RespondWithError(c, http.StatusBadRequest, "Tax rate must be between 0 and 1")
			return
		}
		company.DefaultTaxRate = rate
	}
	if input.WarrantyKeywords != nil {
		company.WarrantyKeywords = *input.WarrantyKeywords
	}

	if err := config.DB.Save(&company).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update billing settings")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"defaultTaxRate":   company.DefaultTaxRate,
		"warrantyKeywords": models.SplitKeywords(company.WarrantyKeywords),
	})
}

// UpdateNotificationSettings toggles SMS dispatch and the overdue reminder
// job, and sets the reminder message template.
func UpdateNotificationSettings(c *gin.Context) {
	companyUUID, _, ok := contextIDs(c)
	if !ok {
		return
	}

	var input struct {
		SMSNotifications *bool   `json:"smsNotifications"`
		OverdueReminders *bool   `json:"overdueReminders"`
		ReminderMessage  *string `json:"reminderMessage"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	updates := map[string]interface{}{}
	if input.SMSNotifications != nil {
		updates["sms_notifications"] = *input.SMSNotifications
	}
	if input.OverdueReminders != nil {
		updates["overdue_reminders"] = *input.OverdueReminders
	}
	if input.ReminderMessage != nil {
		updates["reminder_message"] = *input.ReminderMessage
	}
	if len(updates) == 0 {
		utils.RespondWithError(c, http.StatusBadRequest, "No settings provided")
		return
	}

	if err := config.DB.Model(&models.Company{}).Where("id = ?", companyUUID).
		Updates(updates).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update notification settings")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification settings updated"})
}
