package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"fieldservice-backend/billing"
	"fieldservice-backend/config"
	"fieldservice-backend/models"
	"fieldservice-backend/utils"

	"github.com/robfig/cron/v3"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"gorm.io/gorm"
)

// DispatchService sends document notifications over SMS and runs the daily
// overdue-invoice follow-up job. It implements billing.Dispatcher.
type DispatchService struct {
	db     *gorm.DB
	client *twilio.RestClient
	from   string
}

func NewDispatchService(db *gorm.DB) *DispatchService {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")

	return &DispatchService{
		db: db,
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSid,
			Password: authToken,
		}),
		from: os.Getenv("TWILIO_FROM_NUMBER"),
	}
}

// Send notifies the recipient that a document is ready. The builder only
// cares whether this succeeded; message content stays out of the engine.
func (s *DispatchService) Send(ctx context.Context, kind billing.Kind, id string, recipient string) error {
	if !utils.ValidatePhone(recipient) {
		return fmt.Errorf("services: invalid recipient number %q", recipient)
	}

	var doc models.Document
	if err := s.db.WithContext(ctx).Where("id = ? AND kind = ?", id, string(kind)).
		First(&doc).Error; err != nil {
		return err
	}

	label := "estimate"
	if kind == billing.KindInvoice {
		label = "invoice"
	}
	body := fmt.Sprintf("Your %s %s is ready. Total: $%s.", label, doc.Number, doc.Total.StringFixed(2))
	return s.sendSMS(recipient, body)
}

func (s *DispatchService) sendSMS(to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return err
	}
	if resp.Sid != nil {
		slog.Debug("sms sent", "to", to, "sid", *resp.Sid)
	}
	return nil
}

// StartScheduler runs the overdue follow-up every day at 9 AM.
func (s *DispatchService) StartScheduler() {
	c := cron.New()

	c.AddFunc("0 9 * * *", func() {
		s.SendOverdueReminders()
	})

	c.Start()
	slog.Info("overdue reminder scheduler started")
}

// SendOverdueReminders notifies clients of invoices that have carried a
// balance past the configured age, one company at a time.
func (s *DispatchService) SendOverdueReminders() {
	slog.Info("starting overdue reminder processing")

	var companies []models.Company
	if err := s.db.Find(&companies, "overdue_reminders = ?", true).Error; err != nil {
		slog.Error("failed to fetch companies", "error", err)
		return
	}

	for _, company := range companies {
		s.processCompanyReminders(company)
	}

	slog.Info("overdue reminder processing completed")
}

func (s *DispatchService) processCompanyReminders(company models.Company) {
	cutoff := utils.BeginningOfDay(time.Now().AddDate(0, 0, -config.Settings.OverdueAfterDays))

	var invoices []models.Document
	if err := s.db.
		Where("company_id = ? AND kind = ? AND status IN ? AND balance > 0 AND issued_at < ?",
			company.ID, "invoice", []string{"sent", "unpaid"}, cutoff).
		Find(&invoices).Error; err != nil {
		slog.Error("failed to fetch overdue invoices", "company", company.ID, "error", err)
		return
	}

	for _, inv := range invoices {
		var job models.Job
		if err := s.db.Preload("Client").First(&job, "id = ?", inv.JobID).Error; err != nil {
			slog.Error("failed to load job for invoice", "invoice", inv.ID, "error", err)
			continue
		}
		if job.Client.Phone == "" {
			continue
		}

		message := company.ReminderMessage
		if message == "" {
			message = "Friendly reminder: invoice {number} has an outstanding balance of ${balance}."
		}
		message = strings.ReplaceAll(message, "{number}", inv.Number)
		message = strings.ReplaceAll(message, "{balance}", inv.Balance.StringFixed(2))
		message = strings.ReplaceAll(message, "{name}", job.Client.Name)
		message = strings.ReplaceAll(message, "{days}",
			fmt.Sprintf("%d", utils.DaysBetween(inv.IssuedAt, time.Now())))

		err := s.sendSMS(job.Client.Phone, message)

		status := "sent"
		errorMsg := ""
		if err != nil {
			slog.Error("failed to send overdue reminder", "invoice", inv.ID, "error", err)
			status = "failed"
			errorMsg = err.Error()
		}

		reminderLog := models.ReminderLog{
			CompanyID:    company.ID,
			ClientID:     job.ClientID,
			DocumentID:   inv.ID,
			Message:      message,
			Status:       status,
			ErrorMessage: errorMsg,
			Channel:      "sms",
			SentAt:       time.Now(),
		}
		if err := s.db.Create(&reminderLog).Error; err != nil {
			slog.Error("failed to log reminder", "invoice", inv.ID, "error", err)
		}
	}
}
