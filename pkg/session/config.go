package session

import "time"

// Config holds the session engine settings. It is passed explicitly
// into New; there is no process-wide configuration state.
type Config struct {
	// InactivityTimeout logs out session-only records after this much
	// idle time.
	InactivityTimeout time.Duration `env:"SESSION_INACTIVITY_TIMEOUT" envDefault:"12h"`

	// PersistentLength is how far in the future persistent sessions
	// expire (roughly two months by default).
	PersistentLength time.Duration `env:"SESSION_PERSISTENT_LENGTH" envDefault:"1440h"`

	// SudoTimeout is the window after a password re-entry during which
	// RecentlySeenPassword reports true.
	SudoTimeout time.Duration `env:"SESSION_SUDO_TIMEOUT" envDefault:"10m"`

	CookieName        string `env:"SESSION_COOKIE_NAME" envDefault:"user_session"`
	BrowserCookieName string `env:"SESSION_BROWSER_COOKIE_NAME" envDefault:"browser_id"`
	ParentCookieName  string `env:"SESSION_PARENT_COOKIE_NAME" envDefault:"parent_session"`

	TokenLength int `env:"SESSION_TOKEN_LENGTH" envDefault:"64"`

	// ExtendOnTouch rolls a persistent session's expiry forward on every
	// touch instead of fixing it at login time.
	ExtendOnTouch bool `env:"SESSION_EXTEND_ON_TOUCH" envDefault:"false"`

	// BrowserIDTTL is the browser identity cookie lifetime (roughly five
	// years by default).
	BrowserIDTTL time.Duration `env:"SESSION_BROWSER_ID_TTL" envDefault:"43800h"`

	// CleanupInterval is the period of the RunCleanup sweep; zero
	// disables the runner.
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"1h"`
}

// DefaultConfig returns the default engine settings.
func DefaultConfig() Config {
	return Config{
		InactivityTimeout: 12 * time.Hour,
		PersistentLength:  1440 * time.Hour,
		SudoTimeout:       10 * time.Minute,
		CookieName:        "user_session",
		BrowserCookieName: "browser_id",
		ParentCookieName:  "parent_session",
		TokenLength:       64,
		ExtendOnTouch:     false,
		BrowserIDTTL:      43800 * time.Hour,
		CleanupInterval:   time.Hour,
	}
}
