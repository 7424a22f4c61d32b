package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Domenick1991/repricing/internal/client"
	"github.com/Domenick1991/repricing/internal/domain"
	"github.com/Domenick1991/repricing/internal/flow"
	"github.com/Domenick1991/repricing/internal/repository"
	"github.com/Domenick1991/repricing/internal/session"
	"github.com/Domenick1991/repricing/internal/trips"
)

type app struct {
	api     *client.Client
	storage session.Storage
	session *session.Session
	out     io.Writer

	openHistory func(ctx context.Context) (repository.RepricingEventRepository, func(), error)
}

func newApp(api *client.Client, storage session.Storage, out io.Writer) *app {
	return &app{
		api:     api,
		storage: storage,
		session: session.New(storage, api),
		out:     out,
	}
}

// seedToken stores a token handed in from outside unless a sign-in already exists.
func (a *app) seedToken(ctx context.Context, token string) error {
	current, err := a.session.Token(ctx)
	if err != nil || current != "" {
		return err
	}
	return a.storage.Set(ctx, session.TokenKey, token)
}

func (a *app) Run(ctx context.Context, args []string) error {
	cmd, argv := args[0], args[1:]
	switch cmd {
	case "login":
		return a.login(ctx, argv)
	case "logout":
		return a.logout(ctx)
	case "impersonate":
		return a.impersonate(ctx, argv)
	case "trips":
		return a.listTrips(ctx, argv)
	case "trip":
		return a.showTrip(ctx, argv)
	case "reprice":
		return a.reprice(ctx, argv)
	case "history":
		return a.history(ctx, argv)
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usageText)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

// parse splits flags from positional args regardless of their order.
func parse(fs *flag.FlagSet, argv []string) ([]string, error) {
	fs.SetOutput(io.Discard)
	var positional []string
	for {
		if err := fs.Parse(argv); err != nil {
			return nil, fmt.Errorf("%w: %v", errUsage, err)
		}
		argv = fs.Args()
		if len(argv) == 0 {
			return positional, nil
		}
		positional = append(positional, argv[0])
		argv = argv[1:]
	}
}

func (a *app) login(ctx context.Context, argv []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	stateID := fs.String("state-id", "", "Gmail linking state to attach")
	args, err := parse(fs, argv)
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: login <phone> <code>", errUsage)
	}

	v, err := a.api.VerifyPhoneOTP(ctx, args[0], args[1], *stateID)
	if err != nil {
		return err
	}
	if err := a.session.Login(ctx, v.Token, v.CustomerID); err != nil {
		return err
	}

	p := a.session.Profile()
	fmt.Fprintf(a.out, "signed in as %s %s (%s)\n", p.FirstName, p.LastName, v.CustomerID)
	if !p.Complete() {
		fmt.Fprintln(a.out, "profile incomplete: name, birthday and citizenship are needed before repricing")
	}
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "signed out")
	return nil
}

func (a *app) impersonate(ctx context.Context, argv []string) error {
	fs := flag.NewFlagSet("impersonate", flag.ContinueOnError)
	stop := fs.Bool("stop", false, "stop impersonating")
	args, err := parse(fs, argv)
	if err != nil {
		return err
	}

	if *stop {
		if err := a.session.StopImpersonating(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "acting as yourself")
		return nil
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: impersonate <customer-id> | --stop", errUsage)
	}
	if err := a.session.StartImpersonating(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "acting as %s\n", args[0])
	return nil
}

// announceImpersonation tells the operator whose account the next output belongs to.
func (a *app) announceImpersonation(ctx context.Context) error {
	id, err := a.session.Impersonating(ctx)
	if err != nil {
		return err
	}
	if id != "" {
		fmt.Fprintf(a.out, "impersonating %s\n", id)
	}
	return nil
}

// successURL is where the payment page sends the customer back to.
func (a *app) successURL(tripID string) string {
	return a.api.BaseURL() + "/rp-success/" + url.PathEscape(tripID)
}

func (a *app) tripStore(ctx context.Context) (*trips.Store, error) {
	store := trips.NewStore(a.api, a.session)
	if err := store.EnsureLoaded(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func parseYear(raw string) (trips.Year, error) {
	switch strings.ToLower(raw) {
	case "", "upcoming":
		return trips.Upcoming, nil
	case "past", "past years":
		return trips.PastYears, nil
	}
	y, err := strconv.Atoi(raw)
	if err != nil {
		return trips.Year{}, fmt.Errorf("%w: --year must be upcoming, past or a year", errUsage)
	}
	return trips.CalendarYear(y), nil
}

func (a *app) listTrips(ctx context.Context, argv []string) error {
	fs := flag.NewFlagSet("trips", flag.ContinueOnError)
	year := fs.String("year", "", "upcoming, past or YYYY")
	all := fs.Bool("all", false, "every visible trip regardless of date")
	if _, err := parse(fs, argv); err != nil {
		return err
	}
	filter, err := parseYear(*year)
	if err != nil {
		return err
	}

	store, err := a.tripStore(ctx)
	if err != nil {
		return err
	}
	if err := a.announceImpersonation(ctx); err != nil {
		return err
	}

	bookings := store.Visible()
	if !*all {
		bookings = visibleOnly(store.Filter(filter))
	}

	labels := make([]string, 0, len(store.Years()))
	for _, y := range store.Years() {
		labels = append(labels, y.Label)
	}
	fmt.Fprintf(a.out, "filters: %s\n", strings.Join(labels, " | "))
	printTrips(a.out, bookings)
	return nil
}

func visibleOnly(bookings []domain.Booking) []domain.Booking {
	out := bookings[:0]
	for _, b := range bookings {
		if !b.IsIgnored {
			out = append(out, b)
		}
	}
	return out
}

func printTrips(w io.Writer, bookings []domain.Booking) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tTRIP\tDATE\tSAVINGS")
	for _, b := range bookings {
		date := ""
		if t, ok := b.TripDate(); ok {
			date = t.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", b.ID, b.Kind, tripTitle(b), date, b.PotentialSavings().Text())
	}
	tw.Flush()
}

func tripTitle(b domain.Booking) string {
	switch {
	case b.Hotel != nil:
		return b.Hotel.HotelName
	case b.Flight != nil:
		return b.Flight.DepartureAirportCode + " → " + b.Flight.ArrivalAirportCode
	}
	return ""
}

func (a *app) showTrip(ctx context.Context, argv []string) error {
	if len(argv) != 1 {
		return fmt.Errorf("%w: trip <id>", errUsage)
	}
	store, err := a.tripStore(ctx)
	if err != nil {
		return err
	}
	if err := a.announceImpersonation(ctx); err != nil {
		return err
	}
	b, ok := store.GetTrip(argv[0])
	if !ok {
		fmt.Fprintf(a.out, "no trip %s\n", argv[0])
		return nil
	}
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}

// reprice walks one trip as far as it can go. Hotels stop after sending the
// code unless --otp is given.
func (a *app) reprice(ctx context.Context, argv []string) error {
	fs := flag.NewFlagSet("reprice", flag.ContinueOnError)
	otp := fs.String("otp", "", "code texted for a hotel repricing")
	citizenship := fs.String("citizenship", "", "citizenship for a flight approval (defaults to the profile)")
	redirect := fs.String("redirect", "", "where the payment page returns to (defaults to the trip's success page)")
	args, err := parse(fs, argv)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: reprice <id>", errUsage)
	}

	if err := a.session.Load(ctx); err != nil {
		return err
	}
	store, err := a.tripStore(ctx)
	if err != nil {
		return err
	}
	if err := a.announceImpersonation(ctx); err != nil {
		return err
	}
	booking, ok := store.GetTrip(args[0])
	if !ok {
		fmt.Fprintf(a.out, "no trip %s\n", args[0])
		return nil
	}

	// Resolved before approval: a hotel approved without a payment link cannot be resumed.
	returnTo := *redirect
	if returnTo == "" {
		returnTo = a.successURL(booking.ID)
	}

	runner := flow.NewRunner(a.api, a.session, booking)
	profile := a.session.Profile()
	if err := runner.ConfirmProfile(ctx, profile); err != nil {
		return err
	}

	if runner.State() == flow.VerifyOTP {
		if *otp == "" {
			masked, err := runner.SendOTP(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "code sent to %s; rerun with --otp CODE\n", masked)
			return nil
		}
		if err := runner.VerifyOTP(ctx, *otp); err != nil {
			return err
		}
	}

	cc := *citizenship
	if cc == "" {
		cc = profile.Citizenship
	}
	if err := runner.Approve(ctx, cc); err != nil {
		return err
	}

	if booking.Kind == domain.BookingKindHotel {
		link, err := runner.RequestPaymentLink(ctx, returnTo)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "approved; pay at %s\n", link)
		return nil
	}
	if err := runner.Finalize(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "approved; savings of %s will be issued as airline credit\n", booking.PotentialSavings().Text())
	return nil
}

func (a *app) history(ctx context.Context, argv []string) error {
	if len(argv) != 1 {
		return fmt.Errorf("%w: history <repricing-session-id>", errUsage)
	}
	if a.openHistory == nil {
		return errors.New("history is not available")
	}
	repo, closeRepo, err := a.openHistory(ctx)
	if err != nil {
		return err
	}
	defer closeRepo()

	events, err := repo.ListBySession(ctx, argv[0])
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tEVENT\tCUSTOMER\tIMPERSONATED BY")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.OccurredAt.Format(time.RFC3339), e.Type, e.CustomerID, e.ImpersonatedBy)
	}
	return tw.Flush()
}
