package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	c "git.cmcode.dev/cmcode/budget-tracker/constants"
	"git.cmcode.dev/cmcode/budget-tracker/lib"
	"git.cmcode.dev/cmcode/budget-tracker/models"
	"git.cmcode.dev/cmcode/budget-tracker/profile"
	"git.cmcode.dev/cmcode/budget-tracker/registry"

	"github.com/caarlos0/env/v6"
	"github.com/rs/zerolog"
)

// EnvConfig holds settings that can be provided via the environment.
// Flags take precedence over these.
type EnvConfig struct {
	ConfigDir string `env:"BT_CONFIG_DIR"`
	LogLevel  string `env:"BT_LOG_LEVEL"`
}

type flags struct {
	dir         string
	list        bool
	search      string
	create      string
	deleteName  string
	rename      string
	renameTo    string
	profileName string
	entries     bool
	balance     string
	delta       string
	projectFrom string
	projectTo   string
	stats       bool
}

func parseFlags() flags {
	var f flags

	flag.StringVar(&f.dir, "dir", "", "config directory holding profiles (default: platform config dir)")
	flag.BoolVar(&f.list, "list", false, "list known profiles")
	flag.StringVar(&f.search, "search", "", "fuzzy-search profile names")
	flag.StringVar(&f.create, "create", "", "create a new profile with this name")
	flag.StringVar(&f.deleteName, "delete", "", "delete the profile with this name")
	flag.StringVar(&f.rename, "rename", "", "rename this profile (requires -to)")
	flag.StringVar(&f.renameTo, "to", "", "target name for -rename")
	flag.StringVar(&f.profileName, "profile", "", "profile to operate on")
	flag.BoolVar(&f.entries, "entries", false, "list the profile's entries")
	flag.StringVar(&f.balance, "balance", "", "show the balance on this YYYY-MM-DD date (or 'today')")
	flag.StringVar(&f.delta, "delta", "", "show the net change for this YYYY-MM month")
	flag.StringVar(&f.projectFrom, "from", "", "projection window start, YYYY-MM-DD (default: today)")
	flag.StringVar(&f.projectTo, "project", "", "project balances through this YYYY-MM-DD date, as CSV")
	flag.BoolVar(&f.stats, "stats", false, "show quick stats for the profile")
	flag.Parse()

	return f
}

func newLogger(level string) zerolog.Logger {
	if level == "" {
		level = c.DefaultLogLevel
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().Timestamp().Logger()
}

// loadProfile resolves and loads the requested profile, surfacing
// non-fatal per-entry warnings through the logger.
func loadProfile(r *registry.Registry, log zerolog.Logger, name string) (*profile.Profile, error) {
	path, err := r.Path(name)
	if err != nil {
		return nil, err
	}

	p, warnings, err := profile.Load(path)
	if err != nil {
		return nil, err
	}

	for _, w := range warnings {
		log.Warn().Str("profile", name).Msg(w)
	}

	return p, nil
}

func parseDateOrToday(s string) (models.Date, error) {
	if s == "" || s == "today" {
		return models.DateOf(time.Now()), nil
	}

	return models.ParseDate(s)
}

func run(f flags, cfg EnvConfig, log zerolog.Logger) error {
	dir := cfg.ConfigDir
	if f.dir != "" {
		dir = f.dir
	}

	if dir == "" {
		dir = registry.DefaultDir()
	}

	r, err := registry.New(dir, log)
	if err != nil {
		return err
	}

	switch {
	case f.list:
		for _, name := range r.List() {
			fmt.Println(name)
		}

		return nil
	case f.search != "":
		for _, name := range r.Search(f.search) {
			fmt.Println(name)
		}

		return nil
	case f.create != "":
		_, err := r.Create(f.create)

		return err
	case f.deleteName != "":
		return r.Delete(f.deleteName)
	case f.rename != "":
		return r.Rename(f.rename, f.renameTo)
	}

	if f.profileName == "" {
		flag.Usage()

		return fmt.Errorf("no profile specified, use -profile")
	}

	p, err := loadProfile(r, log, f.profileName)
	if err != nil {
		return err
	}

	switch {
	case f.entries:
		for i := range p.Entries {
			e := &p.Entries[i]

			window := fmt.Sprintf("from %v", e.Starts)
			if e.Ends != nil {
				window = fmt.Sprintf("%v to %v", window, e.Ends)
			}

			fmt.Printf("%v\t%v\t%v\t%v\t%v\t%v\n", e.ID, e.Kind, e.Name, e.SignedAmount().Currency(), e.Recurrence, window)
		}
	case f.balance != "":
		d, err := parseDateOrToday(f.balance)
		if err != nil {
			return err
		}

		fmt.Println(lib.BalanceAt(p, d).Currency())
	case f.delta != "":
		var year, month int
		if _, err := fmt.Sscanf(f.delta, "%d-%d", &year, &month); err != nil || month < 1 || month > 12 {
			return fmt.Errorf("invalid month %q, expected YYYY-MM", f.delta)
		}

		fmt.Println(lib.MonthlyDelta(p, year, month).Currency())
	case f.projectTo != "":
		from, err := parseDateOrToday(f.projectFrom)
		if err != nil {
			return err
		}

		to, err := models.ParseDate(f.projectTo)
		if err != nil {
			return err
		}

		pr, err := lib.NewProjection(p, from, to)
		if err != nil {
			return err
		}

		fmt.Print(lib.ProjectionCSV(pr))
	case f.stats:
		fmt.Print(lib.Stats(p, models.DateOf(time.Now())))
	default:
		flag.Usage()
	}

	return nil
}

func main() {
	cfg := EnvConfig{}
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse environment: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	f := parseFlags()

	if err := run(f, cfg, log); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
