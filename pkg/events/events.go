package events

// Event names a lifecycle notification emitted by the session engine.
type Event string

const (
	// SetBrowserID fires when a new browser identity is issued. Payload:
	// the new browser ID string.
	SetBrowserID Event = "set_browser_id"

	// SessionStart fires after a new session record is created and its
	// cookie set. Payload: the started session.
	SessionStart Event = "session_start"

	// SessionTouched fires after per-request activity fields are
	// persisted. Payload: the touched session.
	SessionTouched Event = "session_touched"

	// SessionInvalidated fires whenever a session is marked inactive,
	// whether by logout, a failed validity check or the cleanup sweep.
	SessionInvalidated Event = "session_invalidated"

	// SeenPassword fires when the principal re-enters their password.
	SeenPassword Event = "seen_password"

	// MarkedAsTwoFactored fires when a second factor completes.
	MarkedAsTwoFactored Event = "marked_as_two_factored"

	// CookieUpdated fires every time the session cookie is (re)written.
	CookieUpdated Event = "cookie_updated"

	// BeforeCleanup and AfterCleanup bracket the stale-session sweep.
	BeforeCleanup Event = "before_cleanup"
	AfterCleanup  Event = "after_cleanup"
)

// Validity-failure events, one per check in the validation order. Each
// fires after the offending session has been invalidated and before the
// corresponding error is returned to the caller.
const (
	BrowserIDMismatchError Event = "browser_id_mismatch_error"
	InvalidSessionError    Event = "invalid_session_error"
	ExpiredSessionError    Event = "expired_session_error"
	InactiveSessionError   Event = "inactive_session_error"
	HostMismatchError      Event = "host_mismatch_error"
)

// Handler receives the payload attached to a dispatched event.
type Handler func(payload any)
