package language

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/camposdev/unipagos/core"
)

// Language center catalog. Registrations and purchases are write-once records:
// created by a student action, never mutated or deleted.

type Status string

const (
	StatusRegistered Status = "registered"
	StatusPurchased  Status = "purchased"
)

type LevelInfo struct {
	Value     string  `json:"value"`
	Label     string  `json:"label"`
	ExamPrice float64 `json:"exam_price"` // MXN
	BookPrice float64 `json:"book_price"` // MXN
	BookTitle string  `json:"book_title"`
}

var Levels = []LevelInfo{
	{Value: "a1", Label: "Inglés A1", ExamPrice: 350, BookPrice: 520, BookTitle: "English File Beginner"},
	{Value: "a2", Label: "Inglés A2", ExamPrice: 350, BookPrice: 520, BookTitle: "English File Elementary"},
	{Value: "b1", Label: "Inglés B1", ExamPrice: 450, BookPrice: 560, BookTitle: "English File Intermediate"},
	{Value: "b2", Label: "Inglés B2", ExamPrice: 450, BookPrice: 560, BookTitle: "English File Upper-Intermediate"},
	{Value: "c1", Label: "Inglés C1", ExamPrice: 550, BookPrice: 610, BookTitle: "English File Advanced"},
}

func levelInfo(value string) (LevelInfo, bool) {
	for _, l := range Levels {
		if l.Value == value {
			return l, true
		}
	}
	return LevelInfo{}, false
}

type ExamRegistration struct {
	ID      string    `json:"id"`
	OwnerID string    `json:"owner_id"`
	Level   string    `json:"level"`
	Price   float64   `json:"price"`
	Date    time.Time `json:"date"`
	Status  Status    `json:"status"`
}

type BookPurchase struct {
	ID      string    `json:"id"`
	OwnerID string    `json:"owner_id"`
	Level   string    `json:"level"`
	Title   string    `json:"title"`
	Price   float64   `json:"price"`
	Date    time.Time `json:"date"`
	Status  Status    `json:"status"`
}

type NewExamRegistration struct {
	Level string `json:"level" validate:"required,examlevel"`
}

func (ne *NewExamRegistration) Validate(validate *validator.Validate) error {
	ne.Level = core.CleanString(ne.Level, true /* lower */)
	return validate.Struct(ne)
}

type NewBookPurchase struct {
	Level string `json:"level" validate:"required,examlevel"`
}

func (nb *NewBookPurchase) Validate(validate *validator.Validate) error {
	nb.Level = core.CleanString(nb.Level, true /* lower */)
	return validate.Struct(nb)
}
