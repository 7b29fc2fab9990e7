package models

import "errors"

// Sentinel errors shared by the services and both store implementations.
var (
	// ErrInvalidPool means a negative pay pool reached the allocator;
	// caller error, nothing is allocated.
	ErrInvalidPool = errors.New("invalid allocation pool")

	// ErrOverpayment means a payment would exceed the invoice amount;
	// the payment is rejected and no state changes.
	ErrOverpayment = errors.New("payment exceeds invoice amount")

	// ErrDuplicateInvoiceNumber means a freshly minted number already
	// exists (counter corruption). The operation aborts; numbers are
	// never silently reissued.
	ErrDuplicateInvoiceNumber = errors.New("duplicate invoice number")

	// ErrConcurrentSettlementConflict means another settlement committed
	// ledger changes between compute and commit. Retryable: re-fetch
	// ledger state and regenerate.
	ErrConcurrentSettlementConflict = errors.New("concurrent settlement conflict")

	ErrNotFound = errors.New("not found")
)
