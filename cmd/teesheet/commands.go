package teesheet

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/portrush/teesheet/internal/adapters/config"
	"github.com/portrush/teesheet/internal/adapters/database/postgres"
	"github.com/portrush/teesheet/internal/domain/common/errorz"
	"github.com/portrush/teesheet/internal/domain/dto"
	"github.com/portrush/teesheet/internal/domain/entity"
	"github.com/portrush/teesheet/internal/domain/utils/location"
	"github.com/portrush/teesheet/internal/domain/utils/validator"
	"github.com/portrush/teesheet/pkg/metrics"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
	// exitCheckError is returned by check when the store cannot be inspected,
	// so it never collides with a schema generation code.
	exitCheckError = 3

	defaultHorizonDays = 90
	defaultReportDays  = 7
)

type command struct {
	usage string
	// writes marks commands that need the auxiliary tables migrated first.
	writes  bool
	failure int
	run     func(a *App, ctx context.Context, fs *flag.FlagSet, args []string, stdout io.Writer) int
}

var commands = map[string]command{
	"check": {
		usage:   "report which generation the tee_times table is on",
		failure: exitCheckError,
		run:     (*App).check,
	},
	"migrate": {
		usage:   "move a template tee sheet to date-based inventory",
		writes:  true,
		failure: exitFailure,
		run:     (*App).migrate,
	},
	"seed": {
		usage:   "generate tee times from opening hours",
		writes:  true,
		failure: exitFailure,
		run:     (*App).seed,
	},
	"available": {
		usage:   "list free tee times on a date, or check one tee time",
		failure: exitFailure,
		run:     (*App).available,
	},
	"report": {
		usage:   "print daily capacity and utilisation",
		failure: exitFailure,
		run:     (*App).report,
	},
	"block": {
		usage:   "close a club for a day",
		writes:  true,
		failure: exitFailure,
		run:     (*App).block,
	},
}

func usage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "usage: teesheet [-config path] <command> [flags]")
	fmt.Fprintln(w, "\ncommands:")
	for _, name := range names {
		fmt.Fprintf(w, "  %-10s %s\n", name, commands[name].usage)
	}
}

// Run is the command line entry point. It returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("teesheet", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { usage(stderr) }
	configPath := global.String("config", "", "config file (default ./config.yaml)")
	if err := global.Parse(args); err != nil {
		return exitUsage
	}
	if global.NArg() == 0 {
		usage(stderr)
		return exitUsage
	}
	name := global.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", name)
		usage(stderr)
		return exitUsage
	}

	cfg, err := config.Get(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", name, err)
		return cmd.failure
	}
	settings := cfg.Settings

	app, err := New(cfg.Database, cfg.Redis, settings)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", name, err)
		return cmd.failure
	}
	defer func() {
		if err := app.Close(); err != nil {
			app.Logger.Warnf("Failed to close connections: %v", err)
		}
	}()

	code := app.Execute(ctx, global.Args(), stdout, stderr)
	if settings.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(settings.MetricsTextfile); err != nil {
			app.Logger.Warnf("Failed to write metrics to %s: %v", settings.MetricsTextfile, err)
		}
	}
	return code
}

// Execute runs one command; args[0] is the command name.
func (a *App) Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return exitUsage
	}
	name := args[0]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", name)
		usage(stderr)
		return exitUsage
	}

	if cmd.writes {
		if err := postgres.AutoMigrate(a.DB); err != nil {
			fmt.Fprintf(stderr, "%s: failed to migrate auxiliary tables: %v\n", name, err)
			return cmd.failure
		}
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return cmd.run(a, ctx, fs, args[1:], stdout)
}

func (a *App) check(ctx context.Context, fs *flag.FlagSet, args []string, stdout io.Writer) int {
	if err := fs.Parse(args); err != nil {
		return exitCheckError
	}

	report, err := a.Schema.Describe(ctx)
	if err != nil {
		a.Logger.Errorf("Schema check failed: %v", err)
		fmt.Fprintf(fs.Output(), "check: %v\n", err)
		return exitCheckError
	}

	fmt.Fprintf(stdout, "%s: %s\n", entity.TeeTimesTable, report.Generation)
	switch report.Generation {
	case entity.SchemaAbsent:
		fmt.Fprintln(stdout, "table does not exist; run seed to create it")
	case entity.SchemaLegacyTemplate:
		fmt.Fprintf(stdout, "rows: %d\n", report.RowCount)
		fmt.Fprintf(stdout, "legacy columns: %s\n", strings.Join(report.LegacyColumns, ", "))
		fmt.Fprintln(stdout, "migration needed; run migrate")
	case entity.SchemaDateBased:
		fmt.Fprintf(stdout, "rows: %d\n", report.RowCount)
		if len(report.MissingColumns) > 0 {
			fmt.Fprintf(stdout, "missing columns: %s\n", strings.Join(report.MissingColumns, ", "))
		}
	}
	return report.Generation.ExitCode()
}

func (a *App) migrate(ctx context.Context, fs *flag.FlagSet, args []string, stdout io.Writer) int {
	horizon := fs.Int("horizon", defaultHorizonDays, "days of inventory to convert")
	convert := fs.Bool("convert", false, "convert the weekly templates into dated tee times")
	club := fs.String("club", a.Settings.Club, "club the converted tee times belong to")
	from := fs.String("from", "", "first converted date, YYYY-MM-DD (default today)")
	if err := fs.Parse(args); err != nil {
		return exitFailure
	}
	referenceDate, err := dateFlag(*from, location.Today())
	if err != nil {
		fmt.Fprintf(fs.Output(), "migrate: %v\n", err)
		return exitFailure
	}

	report, err := a.Migration.Migrate(ctx, dto.MigrateOptions{
		HorizonDays:      *horizon,
		ConvertTemplates: *convert,
		ReferenceDate:    referenceDate,
		Club:             *club,
	})
	if err != nil {
		fmt.Fprintf(fs.Output(), "migrate: %v\n", err)
		var migrationErr *errorz.MigrationError
		if errors.As(err, &migrationErr) {
			fmt.Fprintf(fs.Output(), "migrate: rolled back at step %q, %s is unchanged\n", migrationErr.Step, entity.TeeTimesTable)
		}
		return exitFailure
	}

	if report.NothingToDo {
		fmt.Fprintf(stdout, "%s is already %s, nothing to migrate\n", entity.TeeTimesTable, entity.SchemaDateBased)
		return exitOK
	}
	fmt.Fprintf(stdout, "migrated %s from %s (run %s)\n", entity.TeeTimesTable, report.From, report.RunID)
	fmt.Fprintf(stdout, "backup: %s, %d rows", report.BackupTable, report.RowsBackedUp)
	if report.BackupReplaced {
		fmt.Fprint(stdout, " (previous backup replaced)")
	}
	fmt.Fprintln(stdout)
	if report.Converted {
		fmt.Fprintf(stdout, "converted: %d tee times over %d days\n", report.RowsCreated, *horizon)
	} else {
		fmt.Fprintf(stdout, "templates not converted; %s is empty\n", entity.TeeTimesTable)
	}
	fmt.Fprintf(stdout, "took: %s\n", report.Duration.Round(time.Millisecond))
	return exitOK
}

func (a *App) seed(ctx context.Context, fs *flag.FlagSet, args []string, stdout io.Writer) int {
	club := fs.String("club", a.Settings.Club, "club to seed")
	horizon := fs.Int("horizon", defaultHorizonDays, "days of inventory to generate")
	from := fs.String("from", "", "first generated date, YYYY-MM-DD (default today)")
	if err := fs.Parse(args); err != nil {
		return exitFailure
	}
	referenceDate, err := dateFlag(*from, location.Today())
	if err != nil {
		fmt.Fprintf(fs.Output(), "seed: %v\n", err)
		return exitFailure
	}

	report, err := a.Seed.Seed(ctx, *club, *horizon, referenceDate)
	if err != nil {
		fmt.Fprintf(fs.Output(), "seed: %v\n", err)
		return exitFailure
	}

	if report.CreatedTable {
		fmt.Fprintf(stdout, "created %s\n", entity.TeeTimesTable)
	}
	fmt.Fprintf(stdout, "seeded %s %s..%s: %d created, %d already present",
		report.Club, report.From.Format(entity.DateLayout), report.To.Format(entity.DateLayout), report.Created, report.AlreadyExists)
	if report.BlockedDays > 0 {
		fmt.Fprintf(stdout, ", %d blocked days skipped", report.BlockedDays)
	}
	fmt.Fprintln(stdout)
	return exitOK
}

func (a *App) available(ctx context.Context, fs *flag.FlagSet, args []string, stdout io.Writer) int {
	club := fs.String("club", a.Settings.Club, "club")
	date := fs.String("date", "", "date, YYYY-MM-DD (default today)")
	players := fs.Int("players", 1, "party size")
	clock := fs.String("time", "", "check a single tee time, HH:MM")
	if err := fs.Parse(args); err != nil {
		return exitFailure
	}
	day, err := dateFlag(*date, location.Today())
	if err != nil {
		fmt.Fprintf(fs.Output(), "available: %v\n", err)
		return exitFailure
	}
	if !validator.Players(*players) {
		fmt.Fprintf(fs.Output(), "available: %v: %d players\n", errorz.ErrInvalidArgument, *players)
		return exitFailure
	}

	if *clock != "" {
		check, err := a.Inventory.Check(ctx, entity.SlotKey{Club: *club, Date: day, Time: *clock}, *players)
		if err != nil {
			fmt.Fprintf(fs.Output(), "available: %v\n", err)
			return exitFailure
		}
		switch {
		case !check.Exists:
			fmt.Fprintf(stdout, "%s %s: no such tee time\n", check.Date.Format(entity.DateLayout), check.Time)
		case check.CanAccommodate:
			fmt.Fprintf(stdout, "%s %s: %d of %d places free, fits %d\n", check.Date.Format(entity.DateLayout), check.Time, check.AvailableSlots, check.MaxPlayers, check.Players)
		default:
			fmt.Fprintf(stdout, "%s %s: %d of %d places free, does not fit %d\n", check.Date.Format(entity.DateLayout), check.Time, check.AvailableSlots, check.MaxPlayers, check.Players)
		}
		return exitOK
	}

	teeTimes, err := a.Inventory.FindAvailable(ctx, *club, day, *players)
	if err != nil {
		fmt.Fprintf(fs.Output(), "available: %v\n", err)
		return exitFailure
	}
	if len(teeTimes) == 0 {
		fmt.Fprintf(stdout, "no tee times for %d players on %s\n", *players, day.Format(entity.DateLayout))
		return exitOK
	}

	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tFREE\tMAX\tGREEN FEE")
	for _, t := range teeTimes {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", t.Time, t.AvailableSlots, t.MaxPlayers, fee(t.GreenFee))
	}
	if err := w.Flush(); err != nil {
		return exitFailure
	}
	return exitOK
}

func (a *App) report(ctx context.Context, fs *flag.FlagSet, args []string, stdout io.Writer) int {
	club := fs.String("club", a.Settings.Club, "club")
	from := fs.String("from", "", "first date, YYYY-MM-DD (default today)")
	to := fs.String("to", "", "last date, YYYY-MM-DD (default a week from -from)")
	if err := fs.Parse(args); err != nil {
		return exitFailure
	}
	first, err := dateFlag(*from, location.Today())
	if err != nil {
		fmt.Fprintf(fs.Output(), "report: %v\n", err)
		return exitFailure
	}
	last, err := dateFlag(*to, first.AddDate(0, 0, defaultReportDays-1))
	if err != nil {
		fmt.Fprintf(fs.Output(), "report: %v\n", err)
		return exitFailure
	}

	days, err := a.Inventory.DailyReport(ctx, *club, first, last)
	if err != nil {
		fmt.Fprintf(fs.Output(), "report: %v\n", err)
		return exitFailure
	}
	if len(days) == 0 {
		fmt.Fprintf(stdout, "no tee times for %s between %s and %s\n", *club, first.Format(entity.DateLayout), last.Format(entity.DateLayout))
		return exitOK
	}

	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tDAY\tTEE TIMES\tCAPACITY\tFREE\tBOOKED\tUTILISATION")
	for _, d := range days {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%.1f%%\n",
			d.Date.Format(entity.DateLayout), d.Weekday.String()[:3], d.SlotCount, d.TotalCapacity, d.TotalAvailable, d.TotalBooked, d.UtilizationPct)
	}
	if err := w.Flush(); err != nil {
		return exitFailure
	}
	return exitOK
}

func (a *App) block(ctx context.Context, fs *flag.FlagSet, args []string, stdout io.Writer) int {
	club := fs.String("club", a.Settings.Club, "club")
	date := fs.String("date", "", "date to close, YYYY-MM-DD")
	reason := fs.String("reason", "", "why the club is closed")
	if err := fs.Parse(args); err != nil {
		return exitFailure
	}
	if *date == "" {
		fmt.Fprintln(fs.Output(), "block: -date is required")
		return exitFailure
	}
	day, err := dateFlag(*date, time.Time{})
	if err != nil {
		fmt.Fprintf(fs.Output(), "block: %v\n", err)
		return exitFailure
	}
	if !validator.ClubName(*club, nil) || !validator.BlockReason(*reason, nil) {
		fmt.Fprintf(fs.Output(), "block: %v: club %q or reason too long\n", errorz.ErrInvalidArgument, *club)
		return exitFailure
	}

	blocked, err := a.Blocked.Create(ctx, &entity.BlockedDate{Club: *club, Date: day, Reason: *reason})
	if err != nil {
		fmt.Fprintf(fs.Output(), "block: %v\n", err)
		return exitFailure
	}
	a.Logger.Infof("Blocked %s on %s: %s", blocked.Club, blocked.Date.Format(entity.DateLayout), blocked.Reason)
	fmt.Fprintf(stdout, "blocked %s on %s\n", blocked.Club, blocked.Date.Format(entity.DateLayout))
	fmt.Fprintln(stdout, "existing tee times on that date are kept; seed and migrate skip it")
	return exitOK
}

// dateFlag parses a YYYY-MM-DD flag value, returning def when it is empty.
func dateFlag(value string, def time.Time) (time.Time, error) {
	if value == "" {
		return def, nil
	}
	if !validator.Date(value, nil) {
		return time.Time{}, fmt.Errorf("%w: date %q, want YYYY-MM-DD", errorz.ErrInvalidArgument, value)
	}
	return entity.ParseDate(value)
}

func fee(greenFee *float64) string {
	if greenFee == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *greenFee)
}
