package billing

import "context"

// RecordState is the lifecycle state of an invoice record on the billing
// provider.
type RecordState string

const (
	RecordDraft         RecordState = "draft"
	RecordOpen          RecordState = "open"
	RecordPaid          RecordState = "paid"
	RecordUncollectible RecordState = "uncollectible"
	RecordVoid          RecordState = "void"
)

// InvoiceRecord is an existing invoice on the billing provider, reduced to
// what status resolution needs: its lifecycle state and the line-item
// descriptions that may embed meeting identifiers.
type InvoiceRecord struct {
	ID               string
	State            RecordState
	LineDescriptions []string
}

// Store is the billing-provider boundary. The Stripe adapter in client/
// implements it; tests substitute fakes.
type Store interface {
	// ListCustomers returns all customers that have an email address,
	// emails lower-cased.
	ListCustomers(ctx context.Context) ([]Customer, error)

	// ListInvoices returns all invoice records for a customer.
	ListInvoices(ctx context.Context, customerID string) ([]InvoiceRecord, error)

	// CreateDraftInvoice creates an empty draft invoice and returns its ID.
	CreateDraftInvoice(ctx context.Context, customerID, description string) (string, error)

	// AddInvoiceItem adds a line item to a draft invoice. amountMinor is in
	// integer minor currency units (see MinorUnits).
	AddInvoiceItem(ctx context.Context, customerID, invoiceID string, amountMinor int64, currency, description string) error

	// UpdateCustomerRate sets the customer's hourly-rate attribute on the
	// billing provider.
	UpdateCustomerRate(ctx context.Context, customerID string, rate float64) error
}
