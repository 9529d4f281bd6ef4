package request

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/camposdev/unipagos/core"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusInProcess Status = "in_process"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
)

// DefaultJustification replaces an empty justification at submission time.
const DefaultJustification = "Sin justificación proporcionada"

// TypeInfo describes a requestable school-services document and its fee.
type TypeInfo struct {
	Value  string  `json:"value"`
	Label  string  `json:"label"`
	Amount float64 `json:"amount"` // MXN
}

var Types = []TypeInfo{
	{Value: "estudios", Label: "Constancia de estudios", Amount: 80},
	{Value: "calificaciones", Label: "Constancia de calificaciones", Amount: 120},
	{Value: "inscripcion", Label: "Constancia de inscripción", Amount: 80},
	{Value: "terminacion", Label: "Constancia de terminación de estudios", Amount: 150},
}

func typeInfo(value string) (TypeInfo, bool) {
	for _, t := range Types {
		if t.Value == value {
			return t, true
		}
	}
	return TypeInfo{}, false
}

type ConstanciaRequest struct {
	ID             string      `json:"id"`
	OwnerID        string      `json:"owner_id"`
	RequesterName  string      `json:"requester_name"`
	RequesterEmail string      `json:"requester_email"`
	Type           string      `json:"type"`
	Justification  string      `json:"justification"`
	Amount         float64     `json:"amount"`
	Status         Status      `json:"status"`
	AdminComment   null.String `json:"admin_comment,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// NewRequest is a student submission. Justification is optional; an empty one
// is stored as DefaultJustification.
type NewRequest struct {
	Type          string `json:"type" validate:"required,constanciatype"`
	Justification string `json:"justification"`
}

func (nr *NewRequest) Validate(validate *validator.Validate) error {
	nr.Type = core.CleanString(nr.Type, true /* lower */)
	nr.Justification = core.CleanString(nr.Justification)
	return validate.Struct(nr)
}

// Resolution carries the admin side of a transition. Comment is mandatory for
// rejections and optional otherwise.
type Resolution struct {
	Comment string `json:"comment"`
}

func (r *Resolution) Clean() {
	r.Comment = core.CleanString(r.Comment)
}

type QueryFilter struct {
	OwnerID string
	Status  Status
}
