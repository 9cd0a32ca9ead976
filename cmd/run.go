package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/minv/config"
	"github.com/otherjamesbrown/minv/pkg/billing"
	"github.com/otherjamesbrown/minv/pkg/calendar"
	"github.com/otherjamesbrown/minv/pkg/logging"
	"github.com/otherjamesbrown/minv/pkg/parse"
	"github.com/otherjamesbrown/minv/pkg/reconcile"
	"github.com/otherjamesbrown/minv/pkg/session"
)

// RunCommandDeps holds the dependencies for the run command.
type RunCommandDeps struct {
	LoadConfig   func() (*config.Config, error)
	OpenStore    func(logging.Logger) (billing.Store, error)
	OpenCalendar func(*config.Config) (calendar.Source, error)
	Logger       logging.Logger
	In           io.Reader
	Out          io.Writer
	Now          func() time.Time
}

// DefaultRunDeps returns the default dependencies for production use.
func DefaultRunDeps() *RunCommandDeps {
	return &RunCommandDeps{
		LoadConfig:   config.LoadConfig,
		OpenStore:    openStore,
		OpenCalendar: openCalendar,
		In:           os.Stdin,
		Out:          os.Stdout,
		Now:          time.Now,
	}
}

// Run command flags.
var (
	runDaysBack            int
	runIncludeUnassociated bool
	runDryRun              bool
)

// NewRunCommand creates the 'run' command: the interactive reconcile,
// select, and draft-invoice flow.
func NewRunCommand(deps *RunCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultRunDeps()
	}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reconcile recent meetings and create draft invoices",
		Long: `Reconcile recent calendar meetings against the customer roster and
create draft invoices for the selected meetings.

The flow:
  1. Calendar events from the lookback window are matched to customers.
  2. Each meeting's invoice status (unbilled, drafted, finalized) is
     resolved from existing invoices.
  3. You select and adjust meetings interactively.
  4. One draft invoice per customer is created, one line item per meeting.

Meetings already on an invoice can never be selected again; reruns are
safe.

Examples:
  minv run
  minv run --days-back 14
  minv run --include-unassociated
  minv run --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, deps)
		},
	}

	cmd.Flags().IntVar(&runDaysBack, "days-back", 0, "Lookback window in days (default from config)")
	cmd.Flags().BoolVar(&runIncludeUnassociated, "include-unassociated", false, "Show meetings matching no customer for manual assignment")
	cmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Show what would be invoiced without creating anything")

	return cmd
}

func runRun(cmd *cobra.Command, deps *RunCommandDeps) error {
	ctx := cmd.Context()
	out := deps.Out

	cfg, err := deps.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if cmd.Flags().Changed("days-back") {
		cfg.DaysBack = runDaysBack
	}
	if cmd.Flags().Changed("include-unassociated") {
		cfg.IncludeUnassociated = runIncludeUnassociated
	}

	log := deps.Logger
	if log == nil {
		log = newLogger(cfg)
	}

	store, err := deps.OpenStore(log)
	if err != nil {
		return err
	}
	source, err := deps.OpenCalendar(cfg)
	if err != nil {
		return err
	}

	now := deps.Now()
	windowStart := now.AddDate(0, 0, -cfg.DaysBack)

	customers, err := store.ListCustomers(ctx)
	if err != nil {
		return fmt.Errorf("listing customers: %w", err)
	}
	events, err := source.ListEvents(ctx, windowStart, now)
	if err != nil {
		return fmt.Errorf("listing calendar events: %w", err)
	}

	engine := reconcile.NewEngine(store, log, reconcile.Options{
		IncludeUnassociated: cfg.IncludeUnassociated,
		ProximityWindow:     cfg.Matching.ProximityWindow,
		IDLength:            cfg.Matching.IDLength,
	})
	result := engine.Reconcile(ctx, customers, events)

	if result.Meetings() == 0 && len(result.Unassociated) == 0 {
		fmt.Fprintf(out, "No customer meetings found in the last %d days.\n", cfg.DaysBack)
		return nil
	}

	r := &runner{
		deps:      deps,
		cfg:       cfg,
		log:       log,
		store:     store,
		customers: customers,
		sess:      session.New(result, cfg.DefaultHourlyRate, cfg.Matching.IDLength),
		in:        bufio.NewScanner(deps.In),
		out:       out,
	}

	fmt.Fprintf(out, "Found %d meeting(s) across %d customer(s) in the last %d days.\n",
		result.Meetings(), len(result.Customers), cfg.DaysBack)

	proceed, err := r.selectionLoop(ctx)
	if err != nil {
		return err
	}
	if !proceed {
		fmt.Fprintln(out, "Aborted. No invoices were created.")
		return nil
	}

	selected := r.sess.SelectedByCustomer()
	if len(selected) == 0 {
		fmt.Fprintln(out, "Nothing selected. No invoices were created.")
		return nil
	}

	if err := r.synopsisEntry(); err != nil {
		return err
	}

	if !r.confirm() {
		fmt.Fprintln(out, "Aborted. No invoices were created.")
		return nil
	}

	if runDryRun {
		fmt.Fprintln(out, "Dry run: no invoices were created.")
		return nil
	}

	emitter := session.NewEmitter(store, log, cfg.Currency)
	report := emitter.Emit(ctx, r.sess)

	fmt.Fprintf(out, "\nCreated %d draft invoice(s) with %d line item(s).\n",
		len(report.InvoiceIDs), report.LineItems)
	for _, id := range report.InvoiceIDs {
		fmt.Fprintf(out, "  %s\n", id)
	}
	if len(report.Failures) > 0 {
		fmt.Fprintf(out, "\n%d customer(s) failed:\n", len(report.Failures))
		for _, f := range report.Failures {
			fmt.Fprintf(out, "  %s: %v\n", f.Customer.Name, f.Err)
		}
		return fmt.Errorf("%d of %d customer(s) could not be invoiced", len(report.Failures), len(selected))
	}
	return nil
}

// runner holds the state of one interactive run.
type runner struct {
	deps      *RunCommandDeps
	cfg       *config.Config
	log       logging.Logger
	store     billing.Store
	customers []billing.Customer
	sess      *session.Session
	in        *bufio.Scanner
	out       io.Writer
}

// prompt prints a prompt and reads one line. ok is false on end of input.
func (r *runner) prompt(text string) (line string, ok bool) {
	fmt.Fprint(r.out, text)
	if !r.in.Scan() {
		fmt.Fprintln(r.out)
		return "", false
	}
	return strings.TrimSpace(r.in.Text()), true
}

// selectionLoop runs the interactive selection phase. It returns false when
// the operator quits without emitting.
func (r *runner) selectionLoop(ctx context.Context) (bool, error) {
	r.render()
	r.printHelp()

	for {
		line, ok := r.prompt("> ")
		if !ok {
			return false, nil
		}
		if line == "" {
			continue
		}

		command, err := session.ParseCommand(line)
		if err != nil {
			fmt.Fprintf(r.out, "%v\n", err)
			continue
		}

		switch c := command.(type) {
		case session.ToggleCommand:
			if err := r.sess.Toggle(c.Index); err != nil {
				fmt.Fprintf(r.out, "%v\n", err)
				continue
			}
			r.render()
		case session.SelectAllCommand:
			r.sess.SelectAllUnbilled()
			r.render()
		case session.DeselectAllCommand:
			r.sess.DeselectAll()
			r.render()
		case session.EditCommand:
			if r.editMeeting(c.Index, true) {
				r.render()
			}
		case session.TimeCommand:
			if r.editMeeting(c.Index, false) {
				r.render()
			}
		case session.RateCommand:
			if r.rateMeeting(c.Index) {
				r.render()
			}
		case session.SetRateCommand:
			if r.setCustomerRate(ctx, c.Index) {
				r.render()
			}
		case session.AssignCommand:
			if r.assignMeeting(c.Index) {
				r.render()
			}
		case session.ContinueCommand:
			return true, nil
		case session.QuitCommand:
			return false, nil
		case session.HelpCommand:
			r.printHelp()
		}
	}
}

// render prints the numbered meeting listing.
func (r *runner) render() {
	fmt.Fprintln(r.out)

	var lastCustomer *billing.Customer
	unassociatedHeader := false

	for _, e := range r.sess.Entries() {
		if e.Meeting != nil {
			if lastCustomer != e.Customer {
				lastCustomer = e.Customer
				rate := e.Customer.HourlyRate(r.sess.DefaultRate())
				fmt.Fprintf(r.out, "%s <%s>  rate %s/h\n", e.Customer.Name, e.Customer.Email, formatAmount(rate))
			}
			fmt.Fprintf(r.out, "  %s %3d. %s %8s  %gh  %-9s %s%s\n",
				marker(e.Meeting), e.Index, e.Meeting.Date, e.Meeting.EffectiveTime(),
				e.Meeting.EffectiveDuration(), e.Meeting.Status, e.Meeting.Title, annotations(e.Meeting))
			continue
		}

		if !unassociatedHeader {
			unassociatedHeader = true
			fmt.Fprintln(r.out, "Unassociated meetings (use 'assign N' to bill them):")
		}
		u := e.Unassociated
		fmt.Fprintf(r.out, "  [ ] %3d. %s %8s  %gh  %s\n", e.Index, u.Date, u.Time, u.Duration, u.Title)
		if len(u.Attendees) > 0 {
			fmt.Fprintf(r.out, "           attendees: %s\n", strings.Join(u.Attendees, ", "))
		}
		if u.DescriptionPreview != "" {
			fmt.Fprintf(r.out, "           %s\n", u.DescriptionPreview)
		}
	}
	fmt.Fprintln(r.out)
}

// marker renders the selection checkbox for a meeting.
func marker(m *billing.Meeting) string {
	if m.Selected {
		return "[x]"
	}
	return "[ ]"
}

// annotations renders override markers after the title.
func annotations(m *billing.Meeting) string {
	var parts []string
	if m.Edited() {
		parts = append(parts, "edited")
	}
	if m.CustomRate != nil {
		parts = append(parts, fmt.Sprintf("rate %s/h", formatAmount(*m.CustomRate)))
	}
	if m.ManuallyAssigned {
		parts = append(parts, "assigned")
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

func (r *runner) printHelp() {
	fmt.Fprintln(r.out, `Commands:
  <number>       toggle selection of a meeting
  all            select every unbilled meeting
  none           deselect everything
  edit <n>       change start time and duration
  time <n>       change start time only
  rate <n>       set a custom rate for one meeting
  setrate <n>    change the customer's default hourly rate
  assign <n>     assign an unassociated meeting to a customer
  continue (c)   proceed to invoicing
  quit (q)       abort without creating anything
  help (?)       show this help`)
}

// editMeeting prompts for a new start time and, when withDuration is set,
// a new duration. Blank input keeps the current value. Returns true when
// anything changed.
func (r *runner) editMeeting(n int, withDuration bool) bool {
	line, ok := r.prompt("New start time (e.g. 2:30 PM or 14:30, blank keeps current): ")
	if !ok {
		return false
	}
	clock, err := parse.ParseClock(line)
	if err != nil {
		fmt.Fprintf(r.out, "%v\n", err)
		return false
	}

	var duration *float64
	if withDuration {
		line, ok := r.prompt("New duration (e.g. 1.5h, blank keeps current): ")
		if !ok {
			return false
		}
		duration, err = parse.ParseDuration(line)
		if err != nil {
			fmt.Fprintf(r.out, "%v\n", err)
			return false
		}
	}

	if clock == nil && duration == nil {
		return false
	}
	if err := r.sess.Edit(n, clock, duration); err != nil {
		fmt.Fprintf(r.out, "%v\n", err)
		return false
	}
	return true
}

// rateMeeting prompts for a per-meeting custom rate.
func (r *runner) rateMeeting(n int) bool {
	line, ok := r.prompt("Custom hourly rate for this meeting (e.g. 250 or $250): ")
	if !ok {
		return false
	}
	rate, err := parse.ParseRate(line)
	if err != nil {
		fmt.Fprintf(r.out, "%v\n", err)
		return false
	}
	if rate == nil {
		return false
	}
	if err := r.sess.SetRate(n, *rate); err != nil {
		fmt.Fprintf(r.out, "%v\n", err)
		return false
	}
	return true
}

// setCustomerRate updates the default hourly rate of the customer owning
// meeting n, in the session and at the billing provider. A provider failure
// keeps the session-local update so the run can finish with the new rate.
func (r *runner) setCustomerRate(ctx context.Context, n int) bool {
	var customer *billing.Customer
	for _, e := range r.sess.Entries() {
		if e.Index == n && e.Customer != nil {
			customer = e.Customer
			break
		}
	}
	if customer == nil {
		fmt.Fprintf(r.out, "no customer meeting numbered %d\n", n)
		return false
	}

	current := customer.HourlyRate(r.sess.DefaultRate())
	line, ok := r.prompt(fmt.Sprintf("New default rate for %s (current %s/h): ", customer.Name, formatAmount(current)))
	if !ok {
		return false
	}
	rate, err := parse.ParseRate(line)
	if err != nil {
		fmt.Fprintf(r.out, "%v\n", err)
		return false
	}
	if rate == nil {
		return false
	}

	if err := r.sess.UpdateCustomerRate(customer.ID, *rate); err != nil {
		fmt.Fprintf(r.out, "%v\n", err)
		return false
	}
	if err := r.store.UpdateCustomerRate(ctx, customer.ID, *rate); err != nil {
		r.log.Warn("updating customer rate at the billing provider failed",
			logging.F("customer_id", customer.ID),
			logging.Err(err))
		fmt.Fprintf(r.out, "Warning: the provider update failed (%v); the new rate applies to this run only.\n", err)
	}
	return true
}

// assignMeeting prompts for a customer and assigns unassociated meeting n
// to them.
func (r *runner) assignMeeting(n int) bool {
	if len(r.customers) == 0 {
		fmt.Fprintln(r.out, "no customers to assign to")
		return false
	}

	fmt.Fprintln(r.out, "Customers:")
	for i, c := range r.customers {
		fmt.Fprintf(r.out, "  %3d. %s <%s>\n", i+1, c.Name, c.Email)
	}
	line, ok := r.prompt("Customer number (blank cancels): ")
	if !ok || line == "" {
		return false
	}
	i, err := strconv.Atoi(line)
	if err != nil || i < 1 || i > len(r.customers) {
		fmt.Fprintf(r.out, "no customer numbered %q\n", line)
		return false
	}

	if err := r.sess.Assign(n, r.customers[i-1]); err != nil {
		fmt.Fprintf(r.out, "%v\n", err)
		return false
	}
	return true
}

// synopsisEntry prompts for a line-item synopsis for every selected
// meeting. Blank input keeps the meeting title.
func (r *runner) synopsisEntry() error {
	fmt.Fprintln(r.out, "\nEnter a synopsis per meeting (blank keeps the title):")
	for _, e := range r.sess.Entries() {
		if e.Meeting == nil || !e.Meeting.Selected {
			continue
		}
		line, ok := r.prompt(fmt.Sprintf("  %s %s %q: ", e.Meeting.Date, e.Meeting.EffectiveTime(), e.Meeting.Title))
		if !ok {
			break
		}
		if line == "" {
			continue
		}
		if err := r.sess.SetSynopsis(e.Index, line); err != nil {
			return err
		}
	}
	return nil
}

// confirm shows the emission preview with totals and asks for a final
// go-ahead.
func (r *runner) confirm() bool {
	fmt.Fprintln(r.out, "\nDraft invoices to create:")
	for _, group := range r.sess.SelectedByCustomer() {
		rate := group.Customer.HourlyRate(r.sess.DefaultRate())
		subtotal := 0.0
		fmt.Fprintf(r.out, "\n%s <%s>\n", group.Customer.Name, group.Customer.Email)
		for _, m := range group.Meetings {
			subtotal += m.Amount(rate)
			fmt.Fprintf(r.out, "  %s\n", session.LineDescription(m, rate))
		}
		fmt.Fprintf(r.out, "  subtotal: %s\n", formatAmount(subtotal))
	}

	totals := r.sess.SelectedTotals()
	fmt.Fprintf(r.out, "\nTotal: %d meeting(s), %gh, %s\n", totals.Meetings, totals.Hours, formatAmount(totals.Amount))

	line, ok := r.prompt("Create draft invoices? [y/N]: ")
	if !ok {
		return false
	}
	answer := strings.ToLower(line)
	return answer == "y" || answer == "yes"
}
