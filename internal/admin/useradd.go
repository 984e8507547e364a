// Package admin implements the operator commands of the authkeeper CLI.
package admin

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/flagx"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

var errPasswordMismatch = errors.New("passwords do not match")

// Registrar creates user accounts. services.UserService satisfies it.
type Registrar interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
}

// UserAdd creates one user. The username comes from -u or, when absent, a
// prompt on in; the password is always read from the terminal, twice.
func UserAdd(ctx context.Context, users Registrar, args []string, in *bufio.Reader, out io.Writer) error {
	var username string
	fs := flag.NewFlagSet("useradd", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&username, "u", "", "user name")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-u"})); err != nil {
		return err
	}

	if username == "" {
		var err error
		username, err = GetSimpleText(in, "Enter user name", out)
		if err != nil {
			return err
		}
	}

	password, err := GetPassword("Enter password", out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := GetPassword("Repeat password", out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if !bytes.Equal(password, confirm) {
		return errPasswordMismatch
	}

	user, err := users.Register(ctx, username, string(password))
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return fmt.Errorf("user %q already exists", username)
		}
		return err
	}

	fmt.Fprintf(out, "created user %s id=%d\n", user.UserName, user.ID)
	return nil
}
