package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/camposdev/unipagos/core"
	"github.com/camposdev/unipagos/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(matricula, name, email, role, pwd string) error {
	ctx := context.Background()
	matricula = core.CleanString(matricula, true /* lower */)
	email = core.CleanString(email, true /* lower */)
	now := time.Now().UTC()

	usr, err := cli.usrRepo.GetUserByMatricula(ctx, matricula)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		usr = user.User{
			Matricula: matricula,
			CreatedAt: now,
		}
	}
	usr.Name = core.CleanString(name)
	usr.Email = email
	usr.Role = user.ParseRole(role)
	usr.UpdatedAt = now
	usr.SetActive(true)
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	if usr.ID == "" {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.UpdateUser(ctx, usr, usr.IsActive)
	}
	return err
}
