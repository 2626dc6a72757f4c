// Package store provides the observable state container shared by the
// form engine and the resource caches.
//
// A Store holds a pointer to an immutable state value. Dispatch runs the
// reducer under a mutex; when the reducer returns a different pointer the
// store schedules a notification. Notifications are coalesced per store
// with leading and trailing semantics, so a burst of dispatches reaches
// listeners as one or two fan-outs carrying the latest state:
//
//	Dispatch(a) ──> reduce ──> new pointer? ──> Coalescer.Trigger()
//	Dispatch(b) ──> reduce ──> new pointer? ──┘        │
//	                                                   v
//	                                   listeners(State()) once per window
//
// Reducers must not mutate the state they receive. Returning the same
// pointer means "nothing changed" and suppresses the notification.
package store
