package services

import (
	"fmt"
	"log"

	"github.com/haulworks/haulbooks-backend/internal/models"
	"github.com/haulworks/haulbooks-backend/internal/storage"
	"github.com/haulworks/haulbooks-backend/internal/utils"
)

// InvoiceService mints invoice numbers and issues invoices for
// delivered loads.
type InvoiceService struct {
	store storage.Store
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(store storage.Store) *InvoiceService {
	return &InvoiceService{store: store}
}

// NextInvoiceNumber atomically advances the tenant+year counter and
// formats the result as INV-<year>-<sequence>. Each year's sequence
// starts fresh above the floor; gaps from aborted generations are fine,
// duplicates never happen because the counter is the single serialized
// source and is never derived from counting invoices.
func (s *InvoiceService) NextInvoiceNumber(tenantID string, year int) (string, error) {
	seq, err := s.store.NextInvoiceSequence(tenantID, year)
	if err != nil {
		return "", fmt.Errorf("failed to advance invoice counter for %s/%d: %w", tenantID, year, err)
	}
	return fmt.Sprintf("INV-%04d-%d", year, seq), nil
}

// IssueInvoice creates the customer invoice for a delivered load. The
// freshly minted number is re-checked at persistence time; a collision
// means the counter is corrupt and the whole operation aborts with
// ErrDuplicateInvoiceNumber rather than renumbering.
func (s *InvoiceService) IssueInvoice(tenantID, loadID string) (*models.Invoice, error) {
	load, err := s.store.GetLoad(loadID)
	if err != nil {
		return nil, err
	}
	if load.Status != models.LoadStatusDelivered {
		return nil, fmt.Errorf("load %s is %s, only delivered loads can be invoiced", loadID, load.Status)
	}

	issueDate := utils.RecognitionDate(load)
	number, err := s.NextInvoiceNumber(tenantID, issueDate.Year())
	if err != nil {
		return nil, err
	}

	invoice := &models.Invoice{
		TenantID:      tenantID,
		InvoiceNumber: number,
		LoadID:        loadID,
		Amount:        utils.Round2(load.Rate),
		Status:        models.InvoiceStatusPending,
		IssueDate:     issueDate,
	}
	created, err := s.store.CreateInvoice(invoice)
	if err != nil {
		return nil, err
	}
	log.Printf("invoice: issued %s for load %s (%s)", created.InvoiceNumber, loadID, created.Amount)
	return created, nil
}
