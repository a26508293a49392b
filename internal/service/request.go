package service

import (
	"context"

	"github.com/coinport/backoffice/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestRepository is interface for interacting with deposit and
// invoice requests
type RequestRepository interface {
	// CreateDeposit inserts new deposit request
	CreateDeposit(ctx context.Context, dep *models.DepositRequest) (*models.DepositRequest, error)
	// ListDeposits returns newest deposit requests
	ListDeposits(ctx context.Context, limit int) ([]models.DepositRequest, error)
	// ConfirmDeposit confirms the deposit and credits the wallet
	ConfirmDeposit(ctx context.Context, id uuid.UUID) (*models.DepositRequest, error)
	// CreateInvoice inserts new invoice request
	CreateInvoice(ctx context.Context, inv *models.InvoiceRequest) (*models.InvoiceRequest, error)
	// ListInvoices returns newest invoice requests
	ListInvoices(ctx context.Context, limit int) ([]models.InvoiceRequest, error)
	// MarkInvoicePaid flips the invoice to paid
	MarkInvoicePaid(ctx context.Context, id uuid.UUID) (*models.InvoiceRequest, error)
}

// RequestService manages deposit and invoice request workflows
type RequestService struct {
	repo   RequestRepository
	queue  NotificationQueue
	logger *zap.Logger
}

// NewRequestService creates new RequestService instance
func NewRequestService(repo RequestRepository, queue NotificationQueue, logger *zap.Logger) *RequestService {
	return &RequestService{repo: repo, queue: queue, logger: logger}
}

// SubmitDeposit stores a user deposit request
func (rs *RequestService) SubmitDeposit(ctx context.Context, dep *models.DepositRequest) (*models.DepositRequest, error) {
	if !dep.Amount.IsPositive() {
		return nil, models.ErrInvalidAmount
	}

	if dep.ID == uuid.Nil {
		dep.ID = uuid.New()
	}
	dep.Status = models.DepositStatusPending

	dep, err := rs.repo.CreateDeposit(ctx, dep)
	if err != nil {
		return nil, err
	}

	rs.notify(ctx, models.TemplateDepositRequested, dep.UserEmail, map[string]string{
		"amount":   dep.Amount.String(),
		"currency": models.Currency,
		"method":   dep.Method,
	})

	return dep, nil
}

// ListDeposits returns newest deposit requests for the admin screen
func (rs *RequestService) ListDeposits(ctx context.Context) ([]models.DepositRequest, error) {
	return rs.repo.ListDeposits(ctx, PageSize)
}

// ConfirmDeposit confirms a pending deposit and credits the wallet
func (rs *RequestService) ConfirmDeposit(ctx context.Context, id uuid.UUID) (*models.DepositRequest, error) {
	dep, err := rs.repo.ConfirmDeposit(ctx, id)
	if err != nil {
		rs.logger.Error("confirm deposit", zap.String("deposit_id", id.String()), zap.Error(err))
		return nil, err
	}

	rs.notify(ctx, models.TemplateDepositConfirmed, dep.UserEmail, map[string]string{
		"amount":   dep.Amount.String(),
		"currency": models.Currency,
	})

	return dep, nil
}

// SubmitInvoice stores a user invoice request
func (rs *RequestService) SubmitInvoice(ctx context.Context, inv *models.InvoiceRequest) (*models.InvoiceRequest, error) {
	if !inv.Amount.IsPositive() {
		return nil, models.ErrInvalidAmount
	}

	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	inv.Status = models.InvoiceStatusPending

	inv, err := rs.repo.CreateInvoice(ctx, inv)
	if err != nil {
		return nil, err
	}

	rs.notify(ctx, models.TemplateInvoiceRequested, inv.UserEmail, map[string]string{
		"amount":   inv.Amount.String(),
		"currency": models.Currency,
	})

	return inv, nil
}

// ListInvoices returns newest invoice requests for the admin screen
func (rs *RequestService) ListInvoices(ctx context.Context) ([]models.InvoiceRequest, error) {
	return rs.repo.ListInvoices(ctx, PageSize)
}

// MarkInvoicePaid flips a pending invoice to paid
func (rs *RequestService) MarkInvoicePaid(ctx context.Context, id uuid.UUID) (*models.InvoiceRequest, error) {
	inv, err := rs.repo.MarkInvoicePaid(ctx, id)
	if err != nil {
		rs.logger.Error("mark invoice paid", zap.String("invoice_id", id.String()), zap.Error(err))
		return nil, err
	}

	rs.notify(ctx, models.TemplateInvoicePaid, inv.UserEmail, map[string]string{
		"amount":   inv.Amount.String(),
		"currency": models.Currency,
	})

	return inv, nil
}

func (rs *RequestService) notify(ctx context.Context, template, recipient string, payload map[string]string) {
	n := models.Notification{
		Template:  template,
		Recipient: recipient,
		Payload:   payload,
	}
	if err := rs.queue.Enqueue(ctx, &n); err != nil {
		rs.logger.Error("enqueue notification",
			zap.String("template", template),
			zap.Error(err))
	}
}
