package payment

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/camposdev/unipagos/core"
)

// Status is the stored payment state. Overdue is never stored; it is derived
// from (StatusPending && DueDate < now), see PaymentRecord.IsOverdue.
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
)

// Assignable concepts. Each maps to a configured amount and a category tag.
const (
	ConceptMensualidad = "Mensualidad"
	ConceptInscripcion = "Inscripción"

	CategoryColegiatura = "colegiatura"
	CategoryInscripcion = "inscripcion"
)

type ConceptInfo struct {
	Label    string  `json:"label"`
	Category string  `json:"category"`
	Amount   float64 `json:"amount"` // MXN
}

type PaymentRecord struct {
	ID         string      `json:"id"`
	OwnerID    string      `json:"owner_id"`
	Concept    string      `json:"concept"`
	Category   string      `json:"category"`
	Amount     float64     `json:"amount"` // MXN
	AssignedAt time.Time   `json:"assigned_at"`
	DueDate    time.Time   `json:"due_date"`
	Status     Status      `json:"status"`
	PaidAt     null.Time   `json:"paid_at,omitempty"`
	Folio      null.String `json:"folio,omitempty"`
	Method     null.String `json:"method,omitempty"`
}

func (p PaymentRecord) IsOverdue(now time.Time) bool {
	return p.Status == StatusPending && p.DueDate.Before(now)
}

// DisplayStatus folds the derived overdue state into the user-facing status.
func (p PaymentRecord) DisplayStatus(now time.Time) string {
	if p.IsOverdue(now) {
		return "overdue"
	}
	return string(p.Status)
}

// AssignPayments stages an admin batch assignment: one PaymentRecord per
// recipient, all with the same concept.
type AssignPayments struct {
	RecipientIDs []string `json:"recipient_ids" validate:"required,min=1,dive,required"`
	Concept      string   `json:"concept" validate:"required,concept"`
}

func (ap *AssignPayments) Validate(validate *validator.Validate) error {
	ap.Concept = core.CleanString(ap.Concept)
	return validate.Struct(ap)
}

type BatchOutcome string

const (
	BatchSucceeded BatchOutcome = "succeeded"
	BatchPartial   BatchOutcome = "partial"
	BatchFailed    BatchOutcome = "failed"
)

type BatchFailure struct {
	RecipientID string `json:"recipient_id"`
	Message     string `json:"message"`
}

// BatchResult aggregates the per-recipient write outcomes of an assignment.
// Writes are independent; there is no rollback of the succeeded subset.
type BatchResult struct {
	Requested int             `json:"requested"`
	Assigned  []PaymentRecord `json:"assigned"`
	Failures  []BatchFailure  `json:"failures,omitempty"`
}

func (r BatchResult) Outcome() BatchOutcome {
	switch len(r.Assigned) {
	case r.Requested:
		return BatchSucceeded
	case 0:
		return BatchFailed
	default:
		return BatchPartial
	}
}

// Total is the confirmed amount: sum over the succeeded writes only.
func (r BatchResult) Total() float64 {
	var total float64
	for _, p := range r.Assigned {
		total += p.Amount
	}
	return total
}

type MarkPaid struct {
	Method string `json:"method" validate:"required,oneof=efectivo tarjeta transferencia"`
}

func (mp *MarkPaid) Validate(validate *validator.Validate) error {
	mp.Method = core.CleanString(mp.Method, true /* lower */)
	return validate.Struct(mp)
}

// Receipt holds everything stamped on a printable payment receipt.
type Receipt struct {
	Folio     string    `json:"folio"`
	Concept   string    `json:"concept"`
	Amount    float64   `json:"amount"`
	Date      time.Time `json:"date"`
	PayerName string    `json:"payer_name"`
	Matricula string    `json:"matricula"`
	Method    string    `json:"method"`
}

// FileName is the deterministic artifact name derived from the folio.
func (r Receipt) FileName() string {
	return "recibo-" + r.Folio + ".png"
}

// HistoryFilter is a conjunctive filter over already-fetched records.
type HistoryFilter struct {
	Status string    `query:"status"`
	Search string    `query:"search"`
	From   time.Time `query:"from"`
	To     time.Time `query:"to"`
}

func (hf *HistoryFilter) Clean() {
	hf.Status = core.CleanString(hf.Status, true /* lower */)
	hf.Search = core.CleanString(hf.Search)
}

// Urgency tiers drive presentation only, never filtering.
type Urgency string

const (
	UrgencyNormal   Urgency = "normal"
	UrgencyUrgent   Urgency = "urgent"   // due in 3 days or less
	UrgencyCritical Urgency = "critical" // due in 1 day or less
)

type Notification struct {
	Payment PaymentRecord `json:"payment"`
	Urgency Urgency       `json:"urgency"`
}

type MonthlyGroup struct {
	Year    int        `json:"year"`
	Month   time.Month `json:"month"`
	Total   float64    `json:"total"`
	Paid    float64    `json:"paid"`
	Pending float64    `json:"pending"`
}

type Stats struct {
	MonthPaidTotal    float64 `json:"month_paid_total"`
	PaidMean          float64 `json:"paid_mean"`
	PaidCount         int     `json:"paid_count"`
	PendingCount      int     `json:"pending_count"`
	DaysSinceLastPaid int     `json:"days_since_last_paid"` // -1 when nothing has been paid
}

type QueryFilter struct {
	OwnerID string
	Status  Status
}
