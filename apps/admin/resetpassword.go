package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/camposdev/unipagos/core"
	"github.com/camposdev/unipagos/core/user"
)

func (cli *commandLine) resetPassword(ident, pwd string) error {
	ctx := context.Background()
	ident = core.CleanString(ident, true /* lower */)

	usr, err := cli.usrRepo.GetUserByMatricula(ctx, ident)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		if usr, err = cli.usrRepo.GetUserByEmail(ctx, ident); err != nil {
			return err
		}
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	_, err = cli.usrRepo.UpdateUser(ctx, usr, nil)
	return err
}
