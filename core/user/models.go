package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/camposdev/unipagos/core"
)

// Role is the closed set of portal roles. The identity store may hold arbitrary
// strings; ParseRole is the only place they enter the system.
type Role string

const (
	RoleStudent   Role = "alumno"
	RoleJefatura  Role = "jefatura"
	RoleServicios Role = "servicios"
	RoleAdmin     Role = "admin"
)

var (
	AllRoles = []Role{RoleStudent, RoleJefatura, RoleServicios, RoleAdmin}

	rolePriorities = map[Role]int{
		RoleAdmin:     30,
		RoleServicios: 21,
		RoleJefatura:  20,
		RoleStudent:   1,
	}

	Roles = []RoleInfo{
		{Name: "Alumno", Value: RoleStudent},
		{Name: "Jefatura", Value: RoleJefatura},
		{Name: "Servicios Escolares", Value: RoleServicios},
		{Name: "Administrador", Value: RoleAdmin},
	}
)

type RoleInfo struct {
	Name  string `json:"name"`
	Value Role   `json:"value"`
}

// ParseRole maps a stored role string onto the closed Role set.
// Unknown or empty values default to RoleStudent rather than propagating
// arbitrary strings through the authorization checks.
func ParseRole(s string) Role {
	switch Role(core.CleanString(s, true /* lower */)) {
	case RoleJefatura:
		return RoleJefatura
	case RoleServicios:
		return RoleServicios
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleStudent
	}
}

func RolePriority(role Role) int {
	return rolePriorities[role]
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Matricula    string    `json:"matricula"`
	Career       string    `json:"career"`
	Term         int       `json:"term"` // cuatrimestre
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	IsActive     *bool     `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) SetActive(active bool) {
	u.IsActive = &active
}

func (u *User) Active() bool {
	return u.IsActive == nil || *u.IsActive
}

func (u *User) IsStudent() bool   { return u.Role == RoleStudent }
func (u *User) IsJefatura() bool  { return u.Role == RoleJefatura }
func (u *User) IsServicios() bool { return u.Role == RoleServicios }
func (u *User) IsAdmin() bool     { return u.Role == RoleAdmin }

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string `json:"name" validate:"required"`
	Matricula       string `json:"matricula" validate:"required,matricula"`
	Career          string `json:"career" validate:"required"`
	Term            int    `json:"term" validate:"omitempty,min=1,max=15"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	Role            string `json:"role" validate:"omitempty,role"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc *Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Matricula = core.CleanString(nu.Matricula, true /* lower */)
	nu.Career = core.CleanString(nu.Career)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Email, nu.Matricula)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Name            string `json:"name"`
	Career          string `json:"career"`
	Term            int    `json:"term" validate:"omitempty,min=1,max=15"`
	Email           string `json:"email" validate:"omitempty,email"`
	IsActive        *bool  `json:"is_active"`
	Role            string `json:"role" validate:"omitempty,role"`
	Password        string `json:"password" validate:"omitempty"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate, svc *Service) error {
	if name := core.CleanString(uu.Name); name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}
	if career := core.CleanString(uu.Career); career != "" {
		uu.Career = career
	} else {
		uu.Career = origUsr.Career
	}
	if uu.Term == 0 {
		uu.Term = origUsr.Term
	}
	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(uu.Email, origUsr.Matricula, origUsr)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error {
	return validate.Struct(rp)
}

type QueryFilter struct {
	Search      string    `query:"search"`
	Role        string    `query:"role"`
	Career      string    `query:"career"`
	IsActive    *bool     `query:"is_active"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Role == "" && qf.Career == "" && qf.IsActive == nil &&
		qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Career = core.CleanString(qf.Career)
}
