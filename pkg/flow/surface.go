package flow

import "context"

// Surface is a live interactive authentication surface. At most one
// surface exists per Authenticate call, and the controller guarantees it
// is closed before the call returns, on every path.
type Surface interface {
	// Close tears the surface down. Closing an already-closed surface
	// must be a no-op.
	Close() error
}

// PollingSurface is a surface whose state is observed by periodically
// inspecting its current location, like a browser popup window.
type PollingSurface interface {
	Surface

	// Location returns the URL the surface currently shows. An error is
	// expected while the surface is still on the provider's domain
	// (cross-origin restriction) and is tolerated as long as the surface
	// is alive.
	Location() (string, error)
	// Alive reports whether the surface still exists. A dead surface with
	// a failing Location ends the attempt.
	Alive() bool
}

// MessageSurface is a surface that delivers its result as a single
// JSON-encoded message, like a host modal dialog. Exactly one message is
// expected; the controller stops listening after the first.
type MessageSurface interface {
	Surface

	// Messages returns the channel the surface delivers its result on.
	Messages() <-chan string
}

// Opener opens an interactive surface showing the login URL. The name is
// the uppercased provider id, usable as a window name.
type Opener interface {
	Open(ctx context.Context, name, loginURL string) (Surface, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, name, loginURL string) (Surface, error)

// Open implements the Opener interface.
func (f OpenerFunc) Open(ctx context.Context, name, loginURL string) (Surface, error) {
	return f(ctx, name, loginURL)
}

// Navigator replaces the current page location in redirect mode. Whatever
// execution context is running is abandoned once navigation starts.
type Navigator interface {
	Navigate(loginURL string) error
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(loginURL string) error

// Navigate implements the Navigator interface.
func (f NavigatorFunc) Navigate(loginURL string) error {
	return f(loginURL)
}

// MessageSink is the channel a dialog execution context uses to forward
// its parsed result to the parent context.
type MessageSink interface {
	PostMessage(message string) error
}

// MessageSinkFunc adapts a function to the MessageSink interface.
type MessageSinkFunc func(message string) error

// PostMessage implements the MessageSink interface.
func (f MessageSinkFunc) PostMessage(message string) error {
	return f(message)
}
