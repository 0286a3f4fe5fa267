// Command eco is the command-line client of the eco-tourism platform.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/and161185/ecotour/internal/api"
	"github.com/and161185/ecotour/internal/config"
	"github.com/and161185/ecotour/internal/crypto/sealbox"
	"github.com/and161185/ecotour/internal/errs"
	"github.com/and161185/ecotour/internal/guard"
	"github.com/and161185/ecotour/internal/httpclient"
	"github.com/and161185/ecotour/internal/logging"
	"github.com/and161185/ecotour/internal/migrate"
	"github.com/and161185/ecotour/internal/model"
	"github.com/and161185/ecotour/internal/session"
	"github.com/and161185/ecotour/internal/storage"
	"github.com/and161185/ecotour/internal/storage/file"
	"github.com/and161185/ecotour/internal/storage/postgres"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// ---- app ----

// app carries everything a command needs.
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	api   *api.API
	sess  *session.Store
	guard *guard.Guard

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.log.Sync()
}

// stateFile names the file backend's document after the profile.
func stateFile(profile string) string {
	if profile == "" || profile == "default" {
		return "state.json"
	}
	return "state-" + profile + ".json"
}

// openStore builds the persisted storage selected by cfg.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.Store, func(), error) {
	var (
		st      storage.Store
		closeFn = func() {}
	)
	switch cfg.Storage {
	case config.StorageMemory:
		st = storage.NewMemory()
	case config.StorageFile:
		st = file.New(cfg.StateDir, stateFile(cfg.Profile))
	case config.StoragePostgres:
		if err := migrate.Up(ctx, cfg.DSN, log); err != nil {
			return nil, nil, fmt.Errorf("migrate up: %w", err)
		}
		db, err := postgres.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		st, closeFn = postgres.NewStore(db, cfg.Profile), db.Close
	default:
		return nil, nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}

	if cfg.Seal {
		key, err := sealbox.LoadKey(cfg.StateDir, cfg.SealPassphrase)
		if err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("seal key: %w", err)
		}
		box, err := sealbox.New(key)
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		st = sealbox.Wrap(st, box)
	}
	return st, closeFn, nil
}

// newApp wires the client from cfg. The HTTP client reads its token from
// the session store, which talks to the backend through that same client.
func newApp(ctx context.Context, cfg *config.Config, in io.Reader, out, errOut io.Writer) (*app, error) {
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	hc, err := httpclient.New(httpclient.Config{
		BaseURL:   cfg.APIURL,
		Timeout:   cfg.Timeout,
		Logger:    log,
		UserAgent: "eco/" + version,
	})
	if err != nil {
		return nil, err
	}
	st, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	client := api.New(hc)
	sess := session.New(client.Auth, st, log, session.Options{LogoutTimeout: cfg.LogoutTimeout})
	hc.SetTokenSource(sess)

	return &app{
		cfg:     cfg,
		log:     log,
		api:     client,
		sess:    sess,
		guard:   guard.New(guard.Paths{}),
		in:      in,
		out:     out,
		errOut:  errOut,
		closers: []func(){closeStore},
	}, nil
}

// ---- output ----

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed, color.Bold)
	userColor = color.New(color.FgCyan)
)

func (a *app) printJSON(v any) {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func (a *app) ok(format string, args ...any) {
	_, _ = okColor.Fprintf(a.out, format+"\n", args...)
}

func (a *app) warn(format string, args ...any) {
	_, _ = warnColor.Fprintf(a.errOut, format+"\n", args...)
}

// fail prints the user-facing rendering of err; the detail goes to the log.
func (a *app) fail(err error) {
	a.log.Debug("command failed", zap.Error(err))
	_, _ = errColor.Fprintln(a.errOut, "error: "+errs.UserMessage(err))
}

// redirect explains a guard refusal.
func (a *app) redirect(name string, d guard.Decision) {
	switch d.Target {
	case guard.DefaultPaths().SignIn:
		a.warn("%s: please sign in first (eco login)", name)
	case guard.DefaultPaths().Unauthorized:
		a.warn("%s: your account type is not allowed to do this", name)
	default:
		a.warn("%s: already signed in (eco logout to switch account)", name)
	}
}

// ---- commands ----

type command struct {
	route guard.Route
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var guideOnly = []string{string(model.UserGuide)}

func public(path string) guard.Route { return guard.Route{Path: path, Access: guard.Public} }
func guarded(path string, roles ...string) guard.Route {
	return guard.Route{Path: path, Access: guard.Guarded, AllowedRoles: roles}
}
func guestOnly(path string) guard.Route { return guard.Route{Path: path, Access: guard.GuestOnly} }

func commandTable() map[string]command {
	cmds := map[string]command{
		"login":               {guestOnly("/signin"), "-email <email> [-password <pw>]", cmdLogin},
		"register":            {guestOnly("/register"), "-nom <name> -email <email> -password <pw> [-prenom] [-type Touriste|Guide]", cmdRegister},
		"logout":              {public("/logout"), "", cmdLogout},
		"whoami":              {guarded("/profile"), "", cmdWhoami},
		"profile":             {guarded("/profile"), "[-nom <name>] [-email <email>]", cmdProfile},
		"change-password":     {guarded("/profile/password"), "-current <pw> -new <pw>", cmdChangePassword},
		"forgot-password":     {public("/forgot-password"), "-email <email>", cmdForgotPassword},
		"reset-password":      {public("/reset-password"), "-token <token> -new <pw>", cmdResetPassword},
		"verify-email":        {public("/verify-email"), "-token <token>", cmdVerifyEmail},
		"resend-verification": {public("/verify-email"), "-email <email>", cmdResendVerification},
		"list":                {public("/catalog"), "[-difficulte facile|moyen|difficile] <resource>", cmdList},
		"get":                 {public("/catalog"), "<resource> <id|uri>", cmdGet},
		"rm":                  {guarded("/catalog/edit", guideOnly...), "<resource> <id|uri>", cmdRemove},
		"availability":        {public("/reservation"), "-restaurant <uri> -date YYYY-MM-DD -time HH:MM -people N", cmdAvailability},
		"reserve":             {guarded("/reservation"), "-restaurant <uri> -date YYYY-MM-DD -time HH:MM -people N [-comment]", cmdReserve},
		"reservations":        {guarded("/reservations"), "", cmdReservations},
		"cancel":              {guarded("/reservations"), "<reservation uri>", cmdCancel},
		"ask":                 {public("/assistant"), "[-html] <question>", cmdAsk},
		"chat":                {public("/assistant"), "(interactive; /reset, /quit)", cmdChat},
		"recommend":           {public("/assistant"), "-preferences <text> [-destination] [-budget] [-difficulte]", cmdRecommend},
		"sparql":              {public("/assistant"), "<query> | -file <path|->", cmdSPARQL},
		"analyze-video":       {public("/assistant"), "-file <video> [-prompt <text>]", cmdAnalyzeVideo},
	}
	for name, c := range typedCommands() {
		cmds[name] = c
	}
	return cmds
}

func usage(w io.Writer) {
	fmt.Fprintf(w, `eco CLI
Usage:
  eco [-config file] [-api-url URL] [-storage file|memory|postgres] [-profile name] [-seal] <cmd> [args]

Commands:
  version
`)
	cmds := commandTable()
	names := make([]string, 0, len(cmds))
	for n := range cmds {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(w, "  %-20s %s\n", n, cmds[n].usage)
	}
}

// ---- main ----

// main wires signals and exits with the status of run.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run parses global flags, restores the session, consults the guard and
// dispatches one command. It returns the process exit status.
func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("eco", flag.ContinueOnError)
	fs.SetOutput(errOut)
	cfgPath := fs.String("config", os.Getenv("ECOTOUR_CONFIG"), "YAML config file")
	config.RegisterFlags(fs)
	fs.Usage = func() { usage(errOut) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		usage(errOut)
		return 2
	}

	name := fs.Arg(0)
	if name == "version" {
		fmt.Fprintf(out, "eco %s (%s)\n", version, buildDate)
		return 0
	}
	cmd, ok := commandTable()[name]
	if !ok {
		usage(errOut)
		return 2
	}

	cfg, err := config.Load(*cfgPath)
	if err == nil {
		err = cfg.ApplyFlags(fs)
	}
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintln(errOut, "config:", err)
		return 1
	}

	a, err := newApp(ctx, cfg, in, out, errOut)
	if err != nil {
		fmt.Fprintln(errOut, "init:", err)
		return 1
	}
	defer a.close()

	if err := a.sess.Restore(ctx); err != nil {
		a.log.Warn("restore session", zap.Error(err))
	}

	if d := a.guard.Decide(a.sess.Current(), cmd.route); d.Action != guard.Render {
		a.redirect(name, d)
		return 1
	}

	if err := cmd.run(ctx, a, fs.Args()[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 2
		}
		a.fail(err)
		return 1
	}
	return 0
}

// ---- helpers ----

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

func readAll(in io.Reader, p string) ([]byte, error) {
	if p == "-" {
		return io.ReadAll(in)
	}
	return os.ReadFile(p)
}

func openFile(p string) (string, io.ReadCloser, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", nil, err
	}
	return filepath.Base(p), f, nil
}

// positional returns the n-th positional argument or a validation error.
func positional(fs *flag.FlagSet, n int, field string) (string, error) {
	if fs.NArg() <= n || strings.TrimSpace(fs.Arg(n)) == "" {
		return "", errs.NewValidation(field, "required")
	}
	return fs.Arg(n), nil
}
