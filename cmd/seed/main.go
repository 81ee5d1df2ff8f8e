package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"cartpod/internal/config"
	"cartpod/internal/db"
	apperrors "cartpod/internal/errors"
	"cartpod/internal/logging"
	"cartpod/internal/metrics"
	"cartpod/internal/model"
	"cartpod/internal/repository"
	"cartpod/internal/service"
)

// passwordEnv lets scripted deployments skip the interactive prompt.
const passwordEnv = "SEED_ADMIN_PASSWORD"

func main() {
	name := flag.String("name", "Administrator", "display name of the user")
	email := flag.String("email", "", "email address of the user (required)")
	roleFlag := flag.String("role", string(model.RoleAdmin), "role of the user: owner or admin")
	flag.Parse()

	cfg := config.Load()
	log := logging.New(cfg.LogLevel, "text", os.Stderr)

	role, ok := model.ParseRole(*roleFlag)
	if !ok {
		log.Fatalf("invalid role %q, expected owner or admin", *roleFlag)
	}
	if strings.TrimSpace(*email) == "" {
		flag.Usage()
		os.Exit(2)
	}

	password, err := readPassword(os.Stdin, os.Stderr)
	if err != nil {
		log.WithError(err).Fatal("read password")
	}

	gormDB, err := db.NewMySQL(cfg.MySQLDSN, log)
	if err != nil {
		log.WithError(err).Fatal("database init")
	}
	if err := db.Migrate(gormDB); err != nil {
		log.WithError(err).Fatal("database migrate")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users := service.NewUserService(repository.NewUserRepository(gormDB), nil, 0, metrics.Nop{}, log)
	user, err := users.Create(ctx, *name, *email, password, role)
	switch {
	case errors.Is(err, apperrors.ErrDuplicateEmail):
		log.WithField("email", logging.MaskEmail(*email)).Fatal("a user with this email already exists")
	case err != nil:
		log.WithError(err).Fatal("create user")
	}

	log.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("user created")
}

// readPassword takes the password from the environment or prompts for it
// twice without echo when stdin is a terminal.
func readPassword(in *os.File, out io.Writer) (string, error) {
	if pw := os.Getenv(passwordEnv); pw != "" {
		return pw, nil
	}

	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(out, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	fmt.Fprint(out, "Confirm password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}
