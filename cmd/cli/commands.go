package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/and161185/ecotour/internal/api"
	"github.com/and161185/ecotour/internal/assistant"
	"github.com/and161185/ecotour/internal/errs"
	"github.com/and161185/ecotour/internal/model"
	"github.com/and161185/ecotour/internal/service"
	"github.com/and161185/ecotour/internal/session"
)

// ---- account ----

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := a.flags("login")
	email := fs.String("email", "", "email")
	pass := fs.String("password", "", "password (read from stdin when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *pass == "" {
		line, err := bufio.NewReader(a.in).ReadString('\n')
		if err != nil && line == "" {
			return errs.NewValidation("password", "required")
		}
		*pass = strings.TrimRight(line, "\r\n")
	}

	u, err := a.sess.Login(ctx, *email, *pass)
	if err != nil {
		return err
	}
	a.ok("signed in as %s <%s> (%s)", u.Nom, u.Email, u.Type)
	return nil
}

func cmdRegister(ctx context.Context, a *app, args []string) error {
	fs := a.flags("register")
	var req api.RegisterRequest
	fs.StringVar(&req.Nom, "nom", "", "last name")
	fs.StringVar(&req.Prenom, "prenom", "", "first name")
	fs.StringVar(&req.Email, "email", "", "email")
	fs.StringVar(&req.Password, "password", "", "password")
	fs.StringVar(&req.Type, "type", string(model.UserTouriste), "Touriste or Guide")
	if err := fs.Parse(args); err != nil {
		return err
	}

	u, err := a.sess.Register(ctx, req)
	if err != nil {
		return err
	}
	if a.sess.Current().Session.Authenticated() {
		a.ok("account created, signed in as %s <%s>", u.Nom, u.Email)
		return nil
	}
	a.ok("account created for %s; check your email, then eco login", u.Email)
	return nil
}

func cmdLogout(ctx context.Context, a *app, _ []string) error {
	if err := a.sess.Logout(ctx); err != nil {
		return err
	}
	a.ok("signed out")
	return nil
}

type whoamiOut struct {
	*model.UserRecord
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func cmdWhoami(_ context.Context, a *app, _ []string) error {
	s := a.sess.Current().Session
	out := whoamiOut{UserRecord: s.User}
	if !s.ExpiresAt.IsZero() {
		out.ExpiresAt = &s.ExpiresAt
	}
	a.printJSON(out)
	return nil
}

func cmdProfile(ctx context.Context, a *app, args []string) error {
	fs := a.flags("profile")
	nom := fs.String("nom", "", "new name")
	email := fs.String("email", "", "new email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var upd session.ProfileUpdate
	if *nom != "" {
		upd.Nom = nom
	}
	if *email != "" {
		upd.Email = email
	}
	if upd.Nom == nil && upd.Email == nil {
		return errs.NewValidation("nom", "required_without=email")
	}

	u, err := a.sess.UpdateProfile(ctx, upd)
	if err != nil {
		return err
	}
	a.printJSON(u)
	return nil
}

func (a *app) ack(msg string, err error) error {
	if err != nil {
		return err
	}
	if msg == "" {
		msg = "ok"
	}
	a.ok("%s", msg)
	return nil
}

func cmdChangePassword(ctx context.Context, a *app, args []string) error {
	fs := a.flags("change-password")
	var req api.ChangePasswordRequest
	fs.StringVar(&req.CurrentPassword, "current", "", "current password")
	fs.StringVar(&req.NewPassword, "new", "", "new password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return a.ack(a.api.Auth.ChangePassword(ctx, req))
}

func cmdForgotPassword(ctx context.Context, a *app, args []string) error {
	fs := a.flags("forgot-password")
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return a.ack(a.api.Auth.ForgotPassword(ctx, *email))
}

func cmdResetPassword(ctx context.Context, a *app, args []string) error {
	fs := a.flags("reset-password")
	var req api.ResetPasswordRequest
	fs.StringVar(&req.Token, "token", "", "reset token from the email")
	fs.StringVar(&req.NewPassword, "new", "", "new password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return a.ack(a.api.Auth.ResetPassword(ctx, req))
}

func cmdVerifyEmail(ctx context.Context, a *app, args []string) error {
	fs := a.flags("verify-email")
	token := fs.String("token", "", "verification token")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return a.ack(a.api.Auth.VerifyEmail(ctx, *token))
}

func cmdResendVerification(ctx context.Context, a *app, args []string) error {
	fs := a.flags("resend-verification")
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return a.ack(a.api.Auth.ResendVerification(ctx, *email))
}

// ---- catalog ----

func (a *app) resource(name string) (api.Browsable, error) {
	b, ok := a.api.Catalog(name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown resource %q (one of %s)",
			errs.NewValidation("resource", "oneof"), name, strings.Join(a.api.CatalogNames(), ", "))
	}
	return b, nil
}

func cmdList(ctx context.Context, a *app, args []string) error {
	fs := a.flags("list")
	level := fs.String("difficulte", "", "activity difficulty filter")
	if err := fs.Parse(args); err != nil {
		return err
	}
	name, err := positional(fs, 0, "resource")
	if err != nil {
		return err
	}
	if *level != "" {
		if name != a.api.Activities.Name() {
			return errs.NewValidation("difficulte", "activity only")
		}
		out, err := a.api.Activities.ByDifficulty(ctx, *level)
		if err != nil {
			return err
		}
		a.printJSON(out)
		return nil
	}
	b, err := a.resource(name)
	if err != nil {
		return err
	}
	out, err := b.ListAll(ctx)
	if err != nil {
		return err
	}
	a.printJSON(out)
	return nil
}

func cmdGet(ctx context.Context, a *app, args []string) error {
	fs := a.flags("get")
	if err := fs.Parse(args); err != nil {
		return err
	}
	name, err := positional(fs, 0, "resource")
	if err != nil {
		return err
	}
	id, err := positional(fs, 1, "id")
	if err != nil {
		return err
	}
	b, err := a.resource(name)
	if err != nil {
		return err
	}
	out, err := b.GetOne(ctx, id)
	if err != nil {
		return err
	}
	a.printJSON(out)
	return nil
}

func cmdRemove(ctx context.Context, a *app, args []string) error {
	fs := a.flags("rm")
	if err := fs.Parse(args); err != nil {
		return err
	}
	name, err := positional(fs, 0, "resource")
	if err != nil {
		return err
	}
	id, err := positional(fs, 1, "id")
	if err != nil {
		return err
	}
	b, err := a.resource(name)
	if err != nil {
		return err
	}
	if err := b.Remove(ctx, id); err != nil {
		return err
	}
	a.ok("deleted %s %s", name, id)
	return nil
}

// ---- reservations ----

// slotFlags declares the reservation slot flags shared by availability and reserve.
func slotFlags(a *app, name string, r *model.Reservation) *flag.FlagSet {
	fs := a.flags(name)
	fs.StringVar(&r.Restaurant, "restaurant", "", "restaurant id or uri")
	fs.StringVar(&r.Date, "date", "", "YYYY-MM-DD")
	fs.StringVar(&r.Heure, "time", "", "HH:MM")
	fs.IntVar(&r.NombrePersonnes, "people", 0, "party size")
	return fs
}

func cmdAvailability(ctx context.Context, a *app, args []string) error {
	var r model.Reservation
	fs := slotFlags(a, "availability", &r)
	if err := fs.Parse(args); err != nil {
		return err
	}
	q := model.AvailabilityQuery{
		Restaurant: r.Restaurant, Date: r.Date, Heure: r.Heure, NombrePersonnes: r.NombrePersonnes,
	}
	if s := a.sess.Current().Session; s.Authenticated() {
		q.Touriste = s.User.URI
	}
	av, err := a.api.Reservations.CheckAvailability(ctx, q)
	if err != nil {
		return err
	}
	if av.Available {
		a.ok("available")
		return nil
	}
	msg := av.Message
	if msg == "" {
		msg = "not available"
	}
	a.warn("%s", msg)
	return nil
}

func cmdReserve(ctx context.Context, a *app, args []string) error {
	var r model.Reservation
	fs := slotFlags(a, "reserve", &r)
	fs.StringVar(&r.Commentaire, "comment", "", "note for the restaurant")
	if err := fs.Parse(args); err != nil {
		return err
	}
	r.Touriste = a.sess.Current().Session.User.URI

	out, err := service.NewBooking(a.api.Reservations).Submit(ctx, r)
	if err != nil {
		return err
	}
	a.printJSON(out)
	return nil
}

func cmdReservations(ctx context.Context, a *app, _ []string) error {
	out, err := a.api.Reservations.ListByTourist(ctx, a.sess.Current().Session.User.URI)
	if err != nil {
		return err
	}
	a.printJSON(out)
	return nil
}

func cmdCancel(ctx context.Context, a *app, args []string) error {
	fs := a.flags("cancel")
	if err := fs.Parse(args); err != nil {
		return err
	}
	key, err := positional(fs, 0, "uri")
	if err != nil {
		return err
	}

	mine, err := a.api.Reservations.ListByTourist(ctx, a.sess.Current().Session.User.URI)
	if err != nil {
		return err
	}
	for i := range mine {
		if mine[i].Key() != key {
			continue
		}
		if err := a.api.Reservations.Cancel(ctx, &mine[i]); err != nil {
			return err
		}
		a.ok("reservation %s cancelled", key)
		return nil
	}
	return fmt.Errorf("reservation %s: %w", key, errs.ErrNotFound)
}

// ---- assistant ----

func (a *app) forwarder(mode assistant.Mode) *assistant.Forwarder {
	return assistant.New(a.api.AI, a.log, assistant.Options{
		Mode:         mode,
		SendHistory:  a.cfg.Assistant.SendHistory,
		HistoryLimit: a.cfg.Assistant.HistoryLimit,
	})
}

// printReply writes the assistant turn; fallbacks are shown as warnings.
func (a *app) printReply(r assistant.Reply, html bool) error {
	text := r.Message.Content
	if html && !r.Fallback {
		var err error
		if text, err = assistant.RenderHTML(text); err != nil {
			return err
		}
	}
	if r.Fallback {
		a.warn("%s", text)
		return nil
	}
	if text != "" {
		fmt.Fprintln(a.out, text)
	}
	if len(r.Results) > 0 {
		a.printJSON(r.Results)
	}
	return nil
}

func cmdAsk(ctx context.Context, a *app, args []string) error {
	fs := a.flags("ask")
	html := fs.Bool("html", false, "render the answer as HTML")
	if err := fs.Parse(args); err != nil {
		return err
	}
	r, err := a.forwarder(assistant.ModeAsk).Send(ctx, strings.Join(fs.Args(), " "))
	if err != nil {
		return err
	}
	return a.printReply(r, *html)
}

func cmdChat(ctx context.Context, a *app, _ []string) error {
	f := a.forwarder(assistant.ModeChat)
	sc := bufio.NewScanner(a.in)
	for {
		_, _ = userColor.Fprint(a.out, "you> ")
		if !sc.Scan() {
			fmt.Fprintln(a.out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			f.Reset(ctx)
			a.ok("conversation cleared")
			continue
		}
		r, err := f.Send(ctx, line)
		if err != nil {
			return err
		}
		if err := a.printReply(r, false); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func cmdRecommend(ctx context.Context, a *app, args []string) error {
	fs := a.flags("recommend")
	var req api.RecommendRequest
	fs.StringVar(&req.Preferences, "preferences", "", "what you like")
	fs.StringVar(&req.Destination, "destination", "", "destination")
	fs.Float64Var(&req.Budget, "budget", 0, "budget")
	fs.StringVar(&req.Difficulte, "difficulte", "", "facile, moyen or difficile")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ans, err := a.api.AI.RecommendActivities(ctx, req)
	if err != nil {
		return err
	}
	return a.printAnswer(ans)
}

func (a *app) printAnswer(ans *api.Answer) error {
	if ans.Response != "" {
		fmt.Fprintln(a.out, ans.Response)
	}
	if len(ans.Results) > 0 {
		var v any
		if err := json.Unmarshal(ans.Results, &v); err != nil {
			return err
		}
		a.printJSON(v)
	}
	return nil
}

func cmdSPARQL(ctx context.Context, a *app, args []string) error {
	fs := a.flags("sparql")
	path := fs.String("file", "", "query file ('-'=stdin)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	query := strings.Join(fs.Args(), " ")
	if *path != "" {
		b, err := readAll(a.in, *path)
		if err != nil {
			return err
		}
		query = string(b)
	}
	ans, err := a.api.AI.SPARQL(ctx, strings.TrimSpace(query))
	if err != nil {
		return err
	}
	return a.printAnswer(ans)
}

func cmdAnalyzeVideo(ctx context.Context, a *app, args []string) error {
	fs := a.flags("analyze-video")
	path := fs.String("file", "", "video file")
	prompt := fs.String("prompt", "", "what to look for")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return errs.NewValidation("file", "required")
	}
	name, f, err := openFile(*path)
	if err != nil {
		return err
	}
	defer f.Close()

	ans, err := a.api.AI.AnalyzeVideo(ctx, name, f, *prompt)
	if err != nil {
		return err
	}
	return a.printAnswer(ans)
}
