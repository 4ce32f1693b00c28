package accounts

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/cyberheroes/portal/account"
	"github.com/cyberheroes/portal/internal/cmdflags"
	"github.com/cyberheroes/portal/realm"
)

func Cmd() *cli.Command {
	dataDir := "data"
	storeKind := cmdflags.StoreFlatfile
	return &cli.Command{
		Name:  "accounts",
		Usage: "Inspect and bootstrap portal accounts",
		Flags: []cli.Flag{
			cmdflags.DataDir(&dataDir),
			cmdflags.StoreKind(&storeKind),
		},
		Subcommands: []*cli.Command{
			registerTeacherCmd(&dataDir, &storeKind),
			listCmd(&dataDir, &storeKind),
		},
	}
}

func registerTeacherCmd(dataDir, storeKind *string) *cli.Command {
	var username, email, fullName, school string
	return &cli.Command{
		Name:  "register-teacher",
		Usage: "Register a teacher account (password is read from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "username",
				Aliases:     []string{"u", "user"},
				Usage:       "Name of the teacher to register",
				Destination: &username,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "email",
				Destination: &email,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "full-name",
				Destination: &fullName,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "school",
				Destination: &school,
				Required:    true,
			},
		},
		Action: func(ctx *cli.Context) error {
			sc := bufio.NewScanner(os.Stdin)
			if !sc.Scan() {
				return sc.Err()
			}
			password := strings.TrimSpace(sc.Text())
			if len(password) == 0 {
				return errors.New("missing password from stdin")
			}
			st, closefn, err := cmdflags.OpenTeacherStore(ctx.Context, *storeKind, *dataDir, realm.DefaultTeacherSeed)
			if err != nil {
				return err
			}
			defer closefn()
			teachers := realm.NewTeacher(st,
				realm.SecretFromEnv(ctx.Context, realm.TeacherSecretEnvVar, realm.DevTeacherSecret))
			_, err = teachers.Signup(ctx.Context, account.Teacher{
				Username: username,
				Email:    email,
				FullName: fullName,
				School:   school,
			}, password)
			return err
		},
	}
}

func listCmd(dataDir, storeKind *string) *cli.Command {
	realmName := "student"
	return &cli.Command{
		Name:  "list",
		Usage: "List account usernames in one realm",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "realm",
				Usage:       "Which realm to list (student or teacher)",
				Value:       realmName,
				Destination: &realmName,
			},
		},
		Action: func(ctx *cli.Context) error {
			switch realmName {
			case "student":
				st, closefn, err := cmdflags.OpenStudentStore(ctx.Context, *storeKind, *dataDir)
				if err != nil {
					return err
				}
				defer closefn()
				recs, err := st.ReadAll(ctx.Context)
				if err != nil {
					return err
				}
				for _, rec := range recs {
					fmt.Printf("%v\t%v\n", rec.Username, rec.CreatedAt)
				}
				return nil
			case "teacher":
				st, closefn, err := cmdflags.OpenTeacherStore(ctx.Context, *storeKind, *dataDir, realm.DefaultTeacherSeed)
				if err != nil {
					return err
				}
				defer closefn()
				recs, err := st.ReadAll(ctx.Context)
				if err != nil {
					return err
				}
				for _, rec := range recs {
					fmt.Printf("%v\t%v\t%v\n", rec.Username, rec.Email, rec.CreatedAt)
				}
				return nil
			}
			return fmt.Errorf("unknown realm %q", realmName)
		},
	}
}
