// Package events is the extension seam between the session engine and
// audit logging, metrics or anomaly alerting. The engine dispatches
// named lifecycle events through a Bus; consumers register handlers
// without the engine knowing about any specific sink.
//
//	bus := events.NewBus()
//	sub := bus.On(events.SessionStart, func(payload any) {
//	    // audit log, metrics, ...
//	})
//	defer bus.Remove(sub)
//
// Dispatch is synchronous and runs handlers in registration order on
// the caller's goroutine.
package events
