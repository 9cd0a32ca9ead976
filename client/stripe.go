// Package client provides the billing-provider adapter for the minv CLI.
//
// The adapter is a thin mapping layer: pagination, field mapping, and the
// draft-invoice write path. All reconciliation logic lives above the
// billing.Store interface so tests never touch the network.
package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82"
	stripeclient "github.com/stripe/stripe-go/v82/client"

	"github.com/otherjamesbrown/minv/pkg/billing"
	"github.com/otherjamesbrown/minv/pkg/errs"
	"github.com/otherjamesbrown/minv/pkg/logging"
)

// pageSize is the per-request page size for customer and invoice listings.
// Stripe's maximum.
const pageSize = 100

// StripeStore implements billing.Store against the Stripe API.
type StripeStore struct {
	api *stripeclient.API
	log logging.Logger
}

// NewStripeStore returns a store authenticated with the given secret key.
func NewStripeStore(apiKey string, log logging.Logger) *StripeStore {
	if log == nil {
		log = logging.NewNopLogger()
	}
	api := &stripeclient.API{}
	api.Init(apiKey, nil)
	return &StripeStore{api: api, log: log}
}

// ListCustomers fetches all customers, following pagination. Customers
// without an email address cannot be matched and are skipped; emails are
// lower-cased to form the matching key.
func (s *StripeStore) ListCustomers(ctx context.Context) ([]billing.Customer, error) {
	params := &stripe.CustomerListParams{}
	params.Context = ctx
	params.Limit = stripe.Int64(pageSize)

	var customers []billing.Customer
	iter := s.api.Customers.List(params)
	for iter.Next() {
		c := iter.Customer()
		if c.Email == "" {
			continue
		}
		customers = append(customers, billing.Customer{
			ID:       c.ID,
			Email:    strings.ToLower(c.Email),
			Name:     c.Name,
			Metadata: c.Metadata,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%w: listing customers: %v", errs.ErrUnavailable, err)
	}

	s.log.Info("fetched customers", logging.F("count", len(customers)))
	return customers, nil
}

// ListInvoices fetches all invoice records for a customer, line items
// expanded, reduced to the shape status resolution needs.
func (s *StripeStore) ListInvoices(ctx context.Context, customerID string) ([]billing.InvoiceRecord, error) {
	params := &stripe.InvoiceListParams{Customer: stripe.String(customerID)}
	params.Context = ctx
	params.Limit = stripe.Int64(pageSize)
	params.AddExpand("data.lines")

	var records []billing.InvoiceRecord
	iter := s.api.Invoices.List(params)
	for iter.Next() {
		records = append(records, invoiceRecord(iter.Invoice()))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%w: listing invoices for %s: %v", errs.ErrUnavailable, customerID, err)
	}
	return records, nil
}

// invoiceRecord maps a Stripe invoice to the domain record shape.
func invoiceRecord(in *stripe.Invoice) billing.InvoiceRecord {
	record := billing.InvoiceRecord{
		ID:    in.ID,
		State: recordState(in.Status),
	}
	if in.Lines != nil {
		for _, line := range in.Lines.Data {
			if line.Description != "" {
				record.LineDescriptions = append(record.LineDescriptions, line.Description)
			}
		}
	}
	return record
}

// recordState maps Stripe invoice statuses onto the domain lifecycle.
// Unknown future statuses map to open: treating them as post-draft keeps
// status resolution idempotent-safe.
func recordState(status stripe.InvoiceStatus) billing.RecordState {
	switch status {
	case stripe.InvoiceStatusDraft:
		return billing.RecordDraft
	case stripe.InvoiceStatusOpen:
		return billing.RecordOpen
	case stripe.InvoiceStatusPaid:
		return billing.RecordPaid
	case stripe.InvoiceStatusUncollectible:
		return billing.RecordUncollectible
	case stripe.InvoiceStatusVoid:
		return billing.RecordVoid
	default:
		return billing.RecordOpen
	}
}

// CreateDraftInvoice creates a draft invoice that will not auto-advance;
// the operator reviews and sends it from the Stripe dashboard.
func (s *StripeStore) CreateDraftInvoice(ctx context.Context, customerID, description string) (string, error) {
	params := &stripe.InvoiceParams{
		Customer:         stripe.String(customerID),
		AutoAdvance:      stripe.Bool(false),
		CollectionMethod: stripe.String(string(stripe.InvoiceCollectionMethodSendInvoice)),
		DaysUntilDue:     stripe.Int64(30),
		Description:      stripe.String(description),
	}
	params.Context = ctx

	invoice, err := s.api.Invoices.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: creating draft invoice for %s: %v", errs.ErrUnavailable, customerID, err)
	}
	return invoice.ID, nil
}

// AddInvoiceItem attaches a line item to a draft invoice. amountMinor is in
// integer minor currency units, already rounded by billing.MinorUnits.
func (s *StripeStore) AddInvoiceItem(ctx context.Context, customerID, invoiceID string, amountMinor int64, currency, description string) error {
	params := &stripe.InvoiceItemParams{
		Customer:    stripe.String(customerID),
		Invoice:     stripe.String(invoiceID),
		Amount:      stripe.Int64(amountMinor),
		Currency:    stripe.String(currency),
		Description: stripe.String(description),
	}
	params.Context = ctx

	if _, err := s.api.InvoiceItems.New(params); err != nil {
		return fmt.Errorf("%w: adding line item to %s: %v", errs.ErrUnavailable, invoiceID, err)
	}
	return nil
}

// UpdateCustomerRate stores the hourly rate in the customer's metadata on
// Stripe, where subsequent runs (and the dashboard) read it.
func (s *StripeStore) UpdateCustomerRate(ctx context.Context, customerID string, rate float64) error {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	params.AddMetadata(billing.MetadataRateKey, fmt.Sprintf("%.2f", rate))

	if _, err := s.api.Customers.Update(customerID, params); err != nil {
		return fmt.Errorf("%w: updating rate for %s: %v", errs.ErrUnavailable, customerID, err)
	}
	s.log.Info("updated customer hourly rate",
		logging.F("customer_id", customerID),
		logging.F("rate", rate))
	return nil
}

var _ billing.Store = (*StripeStore)(nil)
