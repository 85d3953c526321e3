// Command tutorctl is a terminal client for the tutoring API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/anjiri1684/tutor_connect/client"
	"github.com/anjiri1684/tutor_connect/models"
	"github.com/google/uuid"
)

const usage = `usage: tutorctl [-api URL] <command> [flags]

commands:
  register        create an account and log in
  login           log in and remember the token
  logout          forget the stored token
  me              show the logged-in profile
  tutors          list tutors
  sessions        list available sessions
  my-sessions     list your sessions
  create-session  publish a session (tutors)
  book            book a session (students)
  review          review a booked session (students)
  reviews         list a tutor's reviews
`

type app struct {
	api    *client.Client
	tokens client.TokenFile
	state  *client.AppState
	out    io.Writer
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	global := flag.NewFlagSet("tutorctl", flag.ContinueOnError)
	global.SetOutput(out)
	global.Usage = func() { fmt.Fprint(out, usage) }
	apiURL := global.String("api", envOr("TUTOR_API_URL", "http://localhost:5000/api"), "API base URL")
	tokenPath := global.String("token-file", os.Getenv("TUTOR_TOKEN_FILE"), "where the login token is kept")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return errors.New("missing command")
	}

	tf := client.TokenFile{Path: *tokenPath}
	if tf.Path == "" {
		var err error
		if tf, err = client.DefaultTokenFile(); err != nil {
			return err
		}
	}
	token, err := tf.Load()
	if err != nil {
		return err
	}

	a := &app{
		api:    client.New(*apiURL, client.WithToken(token)),
		tokens: tf,
		state:  client.NewAppState(),
		out:    out,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "register":
		return a.register(ctx, rest)
	case "login":
		return a.login(ctx, rest)
	case "logout":
		a.state.Logout()
		if err := tf.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(out, "logged out")
		return nil
	case "reviews":
		return a.listReviews(ctx, rest)
	case "me", "tutors", "sessions", "my-sessions", "create-session", "book", "review":
	default:
		global.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}

	if token != "" {
		if err := a.restore(ctx); err != nil {
			return err
		}
	}
	switch cmd {
	case "me":
		return a.me()
	case "tutors":
		return a.listTutors(ctx)
	case "sessions":
		return a.listSessions(ctx)
	case "my-sessions":
		return a.listMySessions(ctx)
	case "create-session":
		return a.createSession(ctx, rest)
	case "book":
		return a.book(ctx, rest)
	default:
		return a.review(ctx, rest)
	}
}

// restore rebuilds the logged-in state from the stored token. A token the server rejects is
// forgotten, leaving the state logged out.
func (a *app) restore(ctx context.Context) error {
	me, err := a.api.Me(ctx)
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			a.api.SetToken("")
			return a.tokens.Clear()
		}
		return err
	}
	a.state.LoginSucceeded(*me, a.api.Token())
	return nil
}

// show moves the state to v, refusing views the current account may not open.
func (a *app) show(v client.View) error {
	if err := a.state.ShowView(v); err != nil {
		if errors.Is(err, client.ErrNotLoggedIn) {
			return fmt.Errorf("%w (run tutorctl login)", err)
		}
		return err
	}
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password (at least 6 characters)")
	role := fs.String("role", "student", "student or tutor")
	subjects := fs.String("subjects", "", "comma separated subjects (tutors)")
	bio := fs.String("bio", "", "short bio")
	if err := fs.Parse(args); err != nil {
		return err
	}
	res, err := a.api.Register(ctx, client.RegisterRequest{
		Name:     *name,
		Email:    *email,
		Password: *password,
		Role:     models.Role(*role),
		Subjects: splitList(*subjects),
		Bio:      *bio,
	})
	if err != nil {
		return err
	}
	return a.loggedIn(res)
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	res, err := a.api.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	return a.loggedIn(res)
}

func (a *app) loggedIn(res *client.AuthResponse) error {
	a.state.LoginSucceeded(res.User, res.Token)
	if err := a.tokens.Save(res.Token); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "logged in as %s (%s)\n", res.User.Name, res.User.Role)
	return nil
}

func (a *app) me() error {
	if err := a.show(client.ViewHome); err != nil {
		return err
	}
	me := a.state.Snapshot().User
	fmt.Fprintf(a.out, "%s <%s>\nrole: %s\n", me.Name, me.Email, me.Role)
	if me.Role == models.RoleTutor {
		fmt.Fprintf(a.out, "subjects: %s\nrating: %.2f (%d reviews)\n", strings.Join(me.Subjects, ", "), me.Rating, me.TotalReviews)
	}
	if me.Bio != "" {
		fmt.Fprintf(a.out, "bio: %s\n", me.Bio)
	}
	return nil
}

// authFailed logs out when the server stops accepting the token mid-command.
func (a *app) authFailed(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		a.state.Logout()
		_ = a.tokens.Clear()
		return fmt.Errorf("%w (run tutorctl login)", err)
	}
	return err
}

func (a *app) listTutors(ctx context.Context) error {
	if err := a.show(client.ViewTutors); err != nil {
		return err
	}
	tutors, err := a.api.Tutors(ctx)
	if err != nil {
		return a.authFailed(err)
	}
	a.state.TutorsLoaded(tutors)

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSUBJECTS\tRATING\tREVIEWS")
	for _, t := range a.state.Snapshot().Tutors {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t%d\n", t.ID, t.Name, strings.Join(t.Subjects, ","), t.Rating, t.TotalReviews)
	}
	return w.Flush()
}

func (a *app) listSessions(ctx context.Context) error {
	if err := a.show(client.ViewSessions); err != nil {
		return err
	}
	sessions, err := a.api.Sessions(ctx)
	if err != nil {
		return a.authFailed(err)
	}
	a.state.SessionsLoaded(sessions)
	a.printSessions(a.state.Snapshot().Sessions)
	return nil
}

func (a *app) listMySessions(ctx context.Context) error {
	if err := a.show(client.ViewMySessions); err != nil {
		return err
	}
	sessions, err := a.api.MySessions(ctx)
	if err != nil {
		return a.authFailed(err)
	}
	a.state.MySessionsLoaded(sessions)
	a.printSessions(a.state.Snapshot().MySessions)
	return nil
}

func (a *app) printSessions(sessions []models.SessionView) {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSUBJECT\tTUTOR\tDATE\tMIN\tSTATUS")
	for _, s := range sessions {
		tutor := ""
		if s.Tutor != nil {
			tutor = s.Tutor.Name
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n", s.ID, s.Title, s.Subject, tutor, s.Date.Format("2006-01-02 15:04"), s.Duration, s.Status)
	}
	_ = w.Flush()
}

func (a *app) createSession(ctx context.Context, args []string) error {
	if err := a.show(client.ViewCreateSession); err != nil {
		return err
	}
	fs := flag.NewFlagSet("create-session", flag.ContinueOnError)
	title := fs.String("title", "", "session title")
	subject := fs.String("subject", "", "subject")
	description := fs.String("description", "", "description")
	date := fs.String("date", "", "start time, e.g. 2030-01-02T15:04 or RFC 3339")
	duration := fs.Int("duration", 60, "length in minutes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := a.api.CreateSession(ctx, client.CreateSessionRequest{
		Title:       *title,
		Subject:     *subject,
		Description: *description,
		Date:        *date,
		Duration:    *duration,
	})
	if err != nil {
		return a.authFailed(err)
	}
	fmt.Fprintf(a.out, "created session %s\n", s.ID)
	return nil
}

func (a *app) book(ctx context.Context, args []string) error {
	if err := a.show(client.ViewSessions); err != nil {
		return err
	}
	fs := flag.NewFlagSet("book", flag.ContinueOnError)
	id := fs.String("session", "", "session id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	sessionID, err := uuid.Parse(*id)
	if err != nil {
		return fmt.Errorf("invalid session id %q", *id)
	}
	s, err := a.api.BookSession(ctx, sessionID)
	if err != nil {
		return a.authFailed(err)
	}
	fmt.Fprintf(a.out, "booked %q on %s\n", s.Title, s.Date.Format("2006-01-02 15:04"))
	return nil
}

func (a *app) review(ctx context.Context, args []string) error {
	if err := a.show(client.ViewMySessions); err != nil {
		return err
	}
	fs := flag.NewFlagSet("review", flag.ContinueOnError)
	id := fs.String("session", "", "session id")
	rating := fs.Int("rating", 0, "1 to 5")
	comment := fs.String("comment", "", "comment")
	if err := fs.Parse(args); err != nil {
		return err
	}
	sessionID, err := uuid.Parse(*id)
	if err != nil {
		return fmt.Errorf("invalid session id %q", *id)
	}
	if _, err := a.api.SubmitReview(ctx, client.ReviewRequest{SessionID: sessionID, Rating: *rating, Comment: *comment}); err != nil {
		return a.authFailed(err)
	}
	fmt.Fprintln(a.out, "review submitted")
	return nil
}

func (a *app) listReviews(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reviews", flag.ContinueOnError)
	id := fs.String("tutor", "", "tutor id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	tutorID, err := uuid.Parse(*id)
	if err != nil {
		return fmt.Errorf("invalid tutor id %q", *id)
	}
	reviews, err := a.api.TutorReviews(ctx, tutorID)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RATING\tSTUDENT\tSESSION\tCOMMENT")
	for _, r := range reviews {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", r.Rating, r.Student.Name, r.Session.Title, r.Comment)
	}
	return w.Flush()
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
