package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/camposdev/unipagos/core/payment"
	"github.com/camposdev/unipagos/core/user"
)

// seed loads a couple of sample accounts and payments for local development.
// Safe to run repeatedly: existing matriculas are left untouched.
func (cli *commandLine) seed() error {
	ctx := context.Background()
	now := time.Now().UTC()

	samples := []struct {
		usr      user.User
		password string
	}{
		{
			usr: user.User{
				Name:      "Ana López",
				Matricula: "a20240101",
				Career:    "Ingeniería en Sistemas",
				Term:      4,
				Email:     "ana.lopez@example.com",
				Role:      user.RoleStudent,
			},
			password: "cambiame-ya!",
		},
		{
			usr: user.User{
				Name:      "Carlos Mendoza",
				Matricula: "j20190001",
				Career:    "",
				Email:     "carlos.mendoza@example.com",
				Role:      user.RoleJefatura,
			},
			password: "cambiame-ya!",
		},
		{
			usr: user.User{
				Name:      "Lucía Ramírez",
				Matricula: "s20180001",
				Email:     "lucia.ramirez@example.com",
				Role:      user.RoleServicios,
			},
			password: "cambiame-ya!",
		},
	}

	for _, s := range samples {
		if _, err := cli.usrRepo.GetUserByMatricula(ctx, s.usr.Matricula); err == nil {
			continue
		} else if errors.Cause(err) != user.ErrNotFound {
			return err
		}

		s.usr.CreatedAt = now
		s.usr.UpdatedAt = now
		s.usr.SetActive(true)
		if err := s.usr.SetPassword(s.password); err != nil {
			return err
		}
		usr, err := cli.usrRepo.CreateUser(ctx, s.usr)
		if err != nil {
			return err
		}

		if usr.Role != user.RoleStudent {
			continue
		}
		rec := payment.PaymentRecord{
			OwnerID:    usr.ID,
			Concept:    payment.ConceptMensualidad,
			Category:   payment.CategoryColegiatura,
			Amount:     cli.conf.Payment.MonthlyFeeAmount,
			AssignedAt: now,
			DueDate:    now.Add(cli.conf.Payment.DueDelta),
			Status:     payment.StatusPending,
		}
		if _, err := cli.payRepo.CreatePayment(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}
