// controllers/dashboard.go
package controllers

import (
	"fmt"
	"net/http"
	"time"

	"fieldservice-backend/config"
	"fieldservice-backend/models"
	"fieldservice-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type RecentDocument struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Number     string          `json:"number"`
	Status     string          `json:"status"`
	Total      decimal.Decimal `json:"total"`
	ClientName string          `json:"clientName"`
	IssuedAt   string          `json:"issuedAt"` // e.g. "Today", "3 days ago"
}

// GetDashboardOverview aggregates the company's billing activity: client and
// document counts, this month's invoiced revenue, outstanding balances, and
// the latest documents with their client names.
func GetDashboardOverview(c *gin.Context) {
	companyUUID, _, ok := contextIDs(c)
	if !ok {
		return
	}

	var totalClients int64
	config.DB.Model(&models.Client{}).
		Where("company_id = ? AND deleted_at IS NULL", companyUUID).Count(&totalClients)

	var totalEstimates, totalInvoices int64
	config.DB.Model(&models.Document{}).
		Where("company_id = ? AND kind = ? AND deleted_at IS NULL", companyUUID, "estimate").
		Count(&totalEstimates)
	config.DB.Model(&models.Document{}).
		Where("company_id = ? AND kind = ? AND deleted_at IS NULL", companyUUID, "invoice").
		Count(&totalInvoices)

	var convertedEstimates int64
	config.DB.Model(&models.Document{}).
		Where("company_id = ? AND kind = ? AND status = ? AND deleted_at IS NULL",
			companyUUID, "estimate", "converted").
		Count(&convertedEstimates)

	// This month's invoiced revenue.
	now := time.Now()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	var monthlyRevenue decimal.Decimal
	config.DB.Model(&models.Document{}).
		Where("company_id = ? AND kind = ? AND issued_at >= ? AND deleted_at IS NULL",
			companyUUID, "invoice", firstOfMonth).
		Select("COALESCE(SUM(total), 0)").Scan(&monthlyRevenue)

	var collectedThisMonth decimal.Decimal
	config.DB.Model(&models.Payment{}).
		Where("company_id = ? AND paid_at >= ?", companyUUID, firstOfMonth).
		Select("COALESCE(SUM(amount), 0)").Scan(&collectedThisMonth)

	// Money still owed across open invoices.
	var outstandingBalance decimal.Decimal
	config.DB.Model(&models.Document{}).
		Where("company_id = ? AND kind = ? AND status IN ? AND deleted_at IS NULL",
			companyUUID, "invoice", []string{"sent", "unpaid"}).
		Select("COALESCE(SUM(balance), 0)").Scan(&outstandingBalance)

	var openJobs int64
	config.DB.Model(&models.Job{}).
		Where("company_id = ? AND status IN ? AND deleted_at IS NULL",
			companyUUID, []string{"scheduled", "in_progress"}).
		Count(&openJobs)

	// Latest documents with the client name resolved through the job.
	var recentDocuments []RecentDocument
	rows, err := config.DB.Raw(`
        SELECT d.id, d.kind, d.number, d.status, d.total, c.name, d.issued_at
        FROM documents d
        JOIN jobs j ON j.id = d.job_id
        JOIN clients c ON c.id = j.client_id
        WHERE d.company_id = ? AND d.deleted_at IS NULL
        ORDER BY d.issued_at DESC
        LIMIT 5
    `, companyUUID).Rows()
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var doc RecentDocument
			var issuedAt time.Time
			if err := rows.Scan(&doc.ID, &doc.Kind, &doc.Number, &doc.Status,
				&doc.Total, &doc.ClientName, &issuedAt); err != nil {
				continue
			}
			daysAgo := int(time.Since(issuedAt).Hours() / 24)
			switch daysAgo {
			case 0:
				doc.IssuedAt = "Today"
			case 1:
				doc.IssuedAt = "Yesterday"
			default:
				doc.IssuedAt = fmt.Sprintf("%d days ago", daysAgo)
			}
			recentDocuments = append(recentDocuments, doc)
		}
	}

	conversionRate := 0.0
	if totalEstimates > 0 {
		conversionRate = float64(convertedEstimates) / float64(totalEstimates)
	}

	response := gin.H{
		"totalClients":       totalClients,
		"totalEstimates":     totalEstimates,
		"totalInvoices":      totalInvoices,
		"conversionRate":     conversionRate,
		"monthlyRevenue":     monthlyRevenue,
		"collectedThisMonth": collectedThisMonth,
		"outstandingBalance": outstandingBalance,
		"openJobs":           openJobs,
		"recentDocuments":    recentDocuments,
	}
	if recentDocuments == nil {
		response["recentDocuments"] = []RecentDocument{}
	}

	c.JSON(http.StatusOK, response)
}

// GetRevenueReport breaks down invoiced and collected amounts per month for
// the trailing twelve months.
func GetRevenueReport(c *gin.Context) {
	companyUUID, _, ok := contextIDs(c)
	if !ok {
		return
	}

	type monthRow struct {
		Month     string          `json:"month"`
		Invoiced  decimal.Decimal `json:"invoiced"`
		Collected decimal.Decimal `json:"collected"`
	}

	var report []monthRow
	if err := config.DB.Raw(`
        SELECT TO_CHAR(d.issued_at, 'YYYY-MM') AS month,
               COALESCE(SUM(d.total), 0) AS invoiced,
               COALESCE(SUM(d.amount_paid), 0) AS collected
        FROM documents d
        WHERE d.company_id = ? AND d.kind = 'invoice' AND d.deleted_at IS NULL
          AND d.issued_at >= ?
        GROUP BY 1
        ORDER BY 1
    `, companyUUID, time.Now().AddDate(-1, 0, 0)).Scan(&report).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to build revenue report")
		return
	}

	c.JSON(http.StatusOK, gin.H{"months": report})
}
