// Package domain holds the identity and workspace membership model: value
// objects, the tracked and event-raising entity bases, the User and Workspace
// aggregates and their UserWorkspace and WorkspaceInvitation children.
//
// Everything here is synchronous and free of I/O. Constructors and mutators
// validate their input and either fully apply a change or return a
// *Error and leave the receiver untouched. Time and identifiers are injected
// through options so tests can pin them:
//
//	ws, err := domain.NewWorkspace(name, domain.DefaultMaxUsers,
//		domain.WithClock(func() time.Time { return fixed }),
//	)
//
// Persistence drivers rebuild entities with the Restore* functions; they never
// run creation invariants again and never raise events.
package domain
