package main

import (
	"context"
	"fmt"

	"github.com/trezcool/tarpaulin/core/user"
)

// addUser creates a user.User with any role, admins included.
func (cli *commandLine) addUser(ctx context.Context, name, email, role, pwd string) error {
	nu := user.NewUser{
		Name:     name,
		Email:    email,
		Password: pwd,
		Role:     role,
	}
	if err := nu.Validate(cli.validate); err != nil {
		return err
	}
	usr, err := cli.usrSvc.Create(ctx, nu)
	if err != nil {
		return err
	}
	fmt.Printf("created %s %s (%s)\n", usr.Role, usr.Email, usr.ID)
	return nil
}
