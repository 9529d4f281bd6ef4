package payment

// ReceiptRenderer converts receipt data into a downloadable document.
// A rendering failure must never lose the receipt's identifying data: callers
// fall back to returning the raw Receipt alongside the error.
type ReceiptRenderer interface {
	Render(r Receipt) ([]byte, error)
}
