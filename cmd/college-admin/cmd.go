package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/noah-isme/college-admin-api/internal/dto"
	"github.com/noah-isme/college-admin-api/internal/models"
	"github.com/noah-isme/college-admin-api/internal/service"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type collegeAdmin interface {
	Register(ctx context.Context, req dto.RegisterCollegeRequest) (*service.CollegeRegistration, error)
	AddAdmin(ctx context.Context, collegeID, email, password, fullName string) (*models.RoleAssignment, error)
}

type passwordResetter interface {
	ResetPassword(ctx context.Context, email, password string) error
}

type commandLine struct {
	db       *sql.DB
	colleges collegeAdmin
	identity passwordResetter
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                                 - run a goose command against the embedded migrations")
	fmt.Fprintln(cli.out, "  register-college -name NAME -code CODE -admin-email EMAIL - create a college and its first admin")
	fmt.Fprintln(cli.out, "  add-admin -college ID -email EMAIL                     - grant the admin role in a college")
	fmt.Fprintln(cli.out, "  reset-password -email EMAIL                            - set a new password for an identity")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(ctx, args[2:])
	case "register-college":
		return cli.registerCollege(ctx, args[2:])
	case "add-admin":
		return cli.addAdmin(ctx, args[2:])
	case "reset-password":
		return cli.resetPassword(ctx, args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

// promptPassword reads a password without echo. An empty answer prints usage.
func (cli *commandLine) promptPassword(fs *flag.FlagSet) (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) registerCollege(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("register-college")
	name := fs.String("name", "", "College name")
	code := fs.String("code", "", "Short alphanumeric college code")
	city := fs.String("city", "", "City")
	adminEmail := fs.String("admin-email", "", "Email of the first administrator. The password will be prompted next.")
	adminName := fs.String("admin-name", "", "Full name of the first administrator")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *code == "" || *adminEmail == "" {
		fs.Usage()
		return errHelp
	}
	pwd, err := cli.promptPassword(fs)
	if err != nil {
		return err
	}

	result, err := cli.colleges.Register(ctx, dto.RegisterCollegeRequest{
		Name:          *name,
		Code:          *code,
		City:          *city,
		AdminEmail:    *adminEmail,
		AdminPassword: pwd,
		AdminFullName: *adminName,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "registered %s (%s) with admin %s\n", result.College.Name, result.College.ID, *adminEmail)
	return nil
}

func (cli *commandLine) addAdmin(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("add-admin")
	collegeID := fs.String("college", "", "College ID")
	email := fs.String("email", "", "Administrator email. The password will be prompted next.")
	fullName := fs.String("name", "", "Full name, used only when the identity is new")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *collegeID == "" || *email == "" {
		fs.Usage()
		return errHelp
	}
	pwd, err := cli.promptPassword(fs)
	if err != nil {
		return err
	}

	assignment, err := cli.colleges.AddAdmin(ctx, *collegeID, *email, pwd, *fullName)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s is now an admin of %s\n", *email, assignment.CollegeID)
	return nil
}

func (cli *commandLine) resetPassword(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("reset-password")
	email := fs.String("email", "", "The identity's email. The password will be prompted next.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		fs.Usage()
		return errHelp
	}
	pwd, err := cli.promptPassword(fs)
	if err != nil {
		return err
	}
	if err := cli.identity.ResetPassword(ctx, *email, pwd); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "password updated for %s\n", *email)
	return nil
}
