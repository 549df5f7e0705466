package constants

const (
	// AppName is used for the XDG config directory and log output.
	AppName = "budget-tracker"

	// ProfileFileExt is the extension for every persisted profile file.
	ProfileFileExt = ".yml"

	// IndexFile is the name of the profile index within the config dir.
	IndexFile = "index.yml"

	// DateLayout is the standard representation of a civil date in this
	// application: zero-padded YYYY-MM-DD.
	DateLayout = "2006-01-02"
)

// Entry kinds. Subscriptions and expenses count against the balance,
// incomes count toward it.
const (
	Subscription = "subscription"
	Expense      = "expense"
	Income       = "income"
)

// Recurrence frequencies. MONTHLY and YEARLY match the naming that
// rrule-style recurrence definitions use; ONCE fires on the start date
// and never again.
const (
	ONCE    = "ONCE"
	MONTHLY = "MONTHLY"
	YEARLY  = "YEARLY"
)

const (
	// DefaultLogLevel applies when BT_LOG_LEVEL is unset.
	DefaultLogLevel = "info"

	// MaxProfileNameLength keeps profile file names manageable.
	MaxProfileNameLength = 120
)
