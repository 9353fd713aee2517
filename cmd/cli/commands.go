package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/campus-onboard/internal/client"
	"github.com/and161185/campus-onboard/internal/config"
	"github.com/and161185/campus-onboard/internal/errs"
	"github.com/and161185/campus-onboard/internal/model"
	"github.com/and161185/campus-onboard/internal/service"
	"github.com/and161185/campus-onboard/internal/session"
)

type app struct {
	cfg    config.Config
	log    *zap.Logger
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func (a *app) api() *client.HTTP {
	return client.New(client.Options{
		BaseURL:    a.cfg.BaseURL,
		AdminToken: a.cfg.AdminToken,
		Timeout:    a.cfg.Timeout,
	}, a.log)
}

func (a *app) auth(ctx context.Context) (*service.AuthServiceImpl, func(), error) {
	st, closeFn, err := session.Open(ctx, a.cfg.Session, a.log)
	if err != nil {
		return nil, closeFn, err
	}
	return service.NewAuthService(a.api(), st, a.log), closeFn, nil
}

// secret returns v, or the first line of stdin when v is "-".
func (a *app) secret(v string) (string, error) {
	if v != "-" {
		return v, nil
	}
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// report prints a successful outcome or turns a failed one into an error
// carrying only the user-facing message.
func (a *app) report(o service.Outcome, next string) error {
	if !o.OK() {
		if o.UserID != "" {
			fmt.Fprintf(a.errOut, "account %s was created but is not linked to a role\n", o.UserID)
		}
		a.log.Debug("outcome", zap.Stringer("state", o.State), zap.Error(o.Err))
		return errors.New(o.Message)
	}
	if o.Message != "" {
		fmt.Fprintln(a.out, o.Message)
	}
	if next != "" {
		fmt.Fprintln(a.out, next)
	}
	return nil
}

func (a *app) signup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	r := fs.String("role", "", "student or teacher")
	u := fs.String("u", "", "username")
	e := fs.String("email", "", "email")
	p := fs.String("p", "", "password, - reads stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.cfg.ValidateSignup(); err != nil {
		return err
	}
	pwd, err := a.secret(*p)
	if err != nil {
		return err
	}

	role, err := model.ParseRole(*r)
	if err != nil {
		// the wizard reports the invalid selection
		role = model.Role(*r)
	}
	w := service.NewSignupWizard(a.api(), a.cfg.RoleIDs, a.log)
	w.ChooseRole(role)
	out := w.Submit(ctx, model.SignupForm{Role: role, Username: *u, Email: *e, Password: pwd})
	return a.report(out, "Next: onb login -email "+strings.TrimSpace(*e)+" -p -")
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	e := fs.String("email", "", "email")
	p := fs.String("p", "", "password, - reads stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	pwd, err := a.secret(*p)
	if err != nil {
		return err
	}

	svc, closeFn, err := a.auth(ctx)
	defer closeFn()
	if err != nil {
		return err
	}
	out := svc.Login(ctx, model.Credentials{Email: *e, Password: pwd})
	if err := a.report(out, ""); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "ok")
	return nil
}

func (a *app) logout(ctx context.Context) error {
	svc, closeFn, err := a.auth(ctx)
	defer closeFn()
	if err != nil {
		return err
	}
	if err := svc.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "logged out")
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	svc, closeFn, err := a.auth(ctx)
	defer closeFn()
	if err != nil {
		return err
	}
	s, err := svc.Current(ctx)
	if errors.Is(err, errs.ErrNoSession) {
		fmt.Fprintln(a.out, "not logged in")
		return nil
	}
	if err != nil {
		return err
	}
	if s.ExpiresAt.IsZero() {
		fmt.Fprintf(a.out, "logged in (%s), expiry unknown\n", a.cfg.Session.Backend)
		return nil
	}
	fmt.Fprintf(a.out, "logged in (%s), expires %s\n", a.cfg.Session.Backend, s.ExpiresAt.UTC().Format(time.RFC3339))
	return nil
}

func (a *app) profile(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	first := fs.String("first", "", "first name")
	middle := fs.String("middle", "", "middle name")
	last := fs.String("last", "", "last name")
	suffix := fs.String("suffix", "", "suffix")
	nick := fs.String("nickname", "", "nickname")
	usesNick := fs.Bool("uses-nickname", false, "share a nickname")
	token := fs.String("token", "", "access token (default: stored session)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	rec := model.ProfileRecord{
		FirstName:    *first,
		MiddleName:   *middle,
		LastName:     *last,
		Suffix:       *suffix,
		UsesNickname: *usesNick,
		Nickname:     *nick,
	}

	if *token != "" {
		w := service.NewProfileWizard(a.api(), nil, a.log)
		return a.report(w.Save(ctx, *token, rec), "")
	}
	st, closeFn, err := session.Open(ctx, a.cfg.Session, a.log)
	defer closeFn()
	if err != nil {
		return err
	}
	w := service.NewProfileWizard(a.api(), st, a.log)
	return a.report(w.SaveCurrent(ctx, rec), "")
}

func (a *app) steps() {
	w := service.NewProfileWizard(nil, nil, a.log)
	for i, s := range w.Steps() {
		fmt.Fprintf(a.out, "%d/%d %s\n", i+1, len(w.Steps()), s)
	}
}
