package inmemdb

import (
	"sync"

	"github.com/camposdev/unipagos/core/language"
	"github.com/camposdev/unipagos/core/payment"
	"github.com/camposdev/unipagos/core/request"
	"github.com/camposdev/unipagos/core/user"
)

// DB is an in-process store with the same repository surface as the SQL one.
// It backs tests and credential-less local runs.
type (
	DB struct {
		user    *userTable
		payment *paymentTable
		request *requestTable
		lang    *langTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	paymentTable struct {
		sync.RWMutex
		table      map[string]*payment.PaymentRecord
		dismissals map[string]map[string]bool // ownerID -> paymentID set
	}

	requestTable struct {
		sync.RWMutex
		table map[string]*request.ConstanciaRequest
	}

	langTable struct {
		sync.RWMutex
		exams map[string]*language.ExamRegistration
		books map[string]*language.BookPurchase
	}
)

func Open() (*DB, error) {
	db := &DB{
		user: &userTable{table: make(map[string]*user.User)},
		payment: &paymentTable{
			table:      make(map[string]*payment.PaymentRecord),
			dismissals: make(map[string]map[string]bool),
		},
		request: &requestTable{table: make(map[string]*request.ConstanciaRequest)},
		lang: &langTable{
			exams: make(map[string]*language.ExamRegistration),
			books: make(map[string]*language.BookPurchase),
		},
	}
	return db, nil
}
