package echoapi

import (
	"testing"

	"github.com/camposdev/unipagos/core/user"
)

func TestDecide(t *testing.T) {
	claims := func(role string) *Claims { return &Claims{Role: role} }

	tests := []struct {
		name     string
		claims   *Claims
		required []user.Role
		want     Decision
	}{
		{name: "nil claims", claims: nil, want: DecisionUnauthenticated},
		{name: "nil claims with required set", claims: nil, required: []user.Role{user.RoleAdmin}, want: DecisionUnauthenticated},
		{name: "empty set admits any authed", claims: claims("alumno"), want: DecisionAllowed},
		{name: "empty set admits unknown role", claims: claims("lol"), want: DecisionAllowed},
		{name: "student on student route", claims: claims("alumno"), required: []user.Role{user.RoleStudent}, want: DecisionAllowed},
		{name: "student on admin route", claims: claims("alumno"), required: []user.Role{user.RoleAdmin}, want: DecisionDenied},
		{name: "jefatura on payments admin", claims: claims("jefatura"), required: []user.Role{user.RoleJefatura, user.RoleAdmin}, want: DecisionAllowed},
		{name: "servicios on payments admin", claims: claims("servicios"), required: []user.Role{user.RoleJefatura, user.RoleAdmin}, want: DecisionDenied},
		{name: "servicios on requests admin", claims: claims("servicios"), required: []user.Role{user.RoleServicios, user.RoleAdmin}, want: DecisionAllowed},
		{name: "jefatura on requests admin", claims: claims("jefatura"), required: []user.Role{user.RoleServicios, user.RoleAdmin}, want: DecisionDenied},
		{name: "admin everywhere", claims: claims("admin"), required: []user.Role{user.RoleServicios, user.RoleAdmin}, want: DecisionAllowed},
		{name: "unknown role folds to student", claims: claims("hacker"), required: []user.Role{user.RoleStudent}, want: DecisionAllowed},
		{name: "unknown role denied on admin route", claims: claims("hacker"), required: []user.Role{user.RoleAdmin}, want: DecisionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.claims, tt.required); got != tt.want {
				t.Errorf("Decide() = %v, want %v", got, tt.want)
			}
		})
	}
}
