package serve

import (
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/cyberheroes/portal/internal/cmdflags"
	"github.com/cyberheroes/portal/internal/httpserver"
	"github.com/cyberheroes/portal/internal/logutil"
	"github.com/cyberheroes/portal/internal/throttle"
	"github.com/cyberheroes/portal/passwd"
	"github.com/cyberheroes/portal/realm"
	"github.com/cyberheroes/portal/realm/api"
)

func Cmd() *cli.Command {
	bindAddr := "localhost:7080"
	dataDir := "data"
	siteDir := ""
	storeKind := cmdflags.StoreFlatfile
	argon2 := false
	maxAttempts := throttle.DefaultMax
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the portal HTTP server (auth API plus guarded site pages)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "bind",
				Usage:       "Address to bind for incoming requests",
				Value:       bindAddr,
				Destination: &bindAddr,
				EnvVars:     []string{"PORTAL_BIND"},
			},
			cmdflags.DataDir(&dataDir),
			cmdflags.StoreKind(&storeKind),
			&cli.StringFlag{
				Name:        "site-dir",
				Usage:       "Directory with the static site pages; empty serves the API only",
				Value:       siteDir,
				Destination: &siteDir,
				EnvVars:     []string{"PORTAL_SITE_DIR"},
			},
			&cli.BoolFlag{
				Name:        "argon2-passwords",
				Usage:       "Hash newly created passwords with argon2id instead of the legacy scheme",
				Destination: &argon2,
			},
			&cli.IntFlag{
				Name:        "max-login-attempts",
				Usage:       "Failed logins tolerated per account and client before throttling",
				Value:       maxAttempts,
				Destination: &maxAttempts,
			},
		},
		Action: func(ctx *cli.Context) error {
			appCtx := logutil.WithLogger(ctx.Context, log.Logger)

			studentStore, closeStudents, err := cmdflags.OpenStudentStore(appCtx, storeKind, dataDir)
			if err != nil {
				return err
			}
			defer closeStudents()
			teacherStore, closeTeachers, err := cmdflags.OpenTeacherStore(appCtx, storeKind, dataDir, realm.DefaultTeacherSeed)
			if err != nil {
				return err
			}
			defer closeTeachers()

			students := realm.NewStudent(studentStore,
				realm.SecretFromEnv(appCtx, realm.StudentSecretEnvVar, realm.DevStudentSecret))
			teachers := realm.NewTeacher(teacherStore,
				realm.SecretFromEnv(appCtx, realm.TeacherSecretEnvVar, realm.DevTeacherSecret))
			if argon2 {
				students.SetHasher(passwd.Argon2Hash)
				teachers.SetHasher(passwd.Argon2Hash)
			}

			var site http.Handler
			if siteDir != "" {
				site = http.FileServer(http.Dir(siteDir))
			}
			handler := api.New(students, teachers,
				throttle.New(throttle.DefaultWindow, maxAttempts), site)
			return httpserver.Serve(appCtx, bindAddr, logutil.Middleware(log.Logger, handler))
		},
	}
}
