package core

import "time"

// Timeout bounds a single call. Total bounds the whole call. Connect bounds dialing
// and Read bounds the time between obtaining a connection and reading the last byte
// of the response. Zero values mean no bound.
type Timeout struct {
	Total   time.Duration
	Connect time.Duration
	Read    time.Duration
}

// CallOptions are per-call execution settings. They are never persisted on the client.
type CallOptions struct {
	// Async runs the call on its own goroutine; the returned handle completes later.
	Async bool
	// ReturnHttpDataOnly discards the status code and headers from the response.
	ReturnHttpDataOnly bool
	// PreloadContent reads (and decodes) the body before the call completes.
	// When off the caller receives the open body and must close it.
	PreloadContent bool
	RequestTimeout *Timeout
	// CheckInputType rejects parameters of the wrong type or failing their validation tags.
	CheckInputType bool
	// CheckReturnType validates the response body against the declared response type.
	CheckReturnType bool
	// HostIndex selects the server; nil uses the configured ServerIndex.
	HostIndex *int
}

// DefaultCallOptions returns the options every operation starts from.
func DefaultCallOptions() CallOptions {
	return CallOptions{
		Async:              false,
		ReturnHttpDataOnly: true,
		PreloadContent:     true,
		CheckInputType:     true,
		CheckReturnType:    true,
	}
}

// CallOption mutates the options of a single call.
type CallOption func(*CallOptions)

// NewCallOptions applies opts on top of the defaults.
func NewCallOptions(opts ...CallOption) CallOptions {
	options := DefaultCallOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	return options
}

func WithAsync() CallOption {
	return func(o *CallOptions) { o.Async = true }
}

// WithHttpInfo keeps the status code and headers on the response.
func WithHttpInfo() CallOption {
	return func(o *CallOptions) { o.ReturnHttpDataOnly = false }
}

// WithoutPreload hands the open response body to the caller.
func WithoutPreload() CallOption {
	return func(o *CallOptions) { o.PreloadContent = false }
}

// WithRequestTimeout bounds the whole call.
func WithRequestTimeout(total time.Duration) CallOption {
	return func(o *CallOptions) { o.RequestTimeout = &Timeout{Total: total} }
}

// WithConnectReadTimeout bounds dialing and reading separately.
func WithConnectReadTimeout(connect, read time.Duration) CallOption {
	return func(o *CallOptions) { o.RequestTimeout = &Timeout{Connect: connect, Read: read} }
}

func WithoutInputTypeCheck() CallOption {
	return func(o *CallOptions) { o.CheckInputType = false }
}

func WithoutReturnTypeCheck() CallOption {
	return func(o *CallOptions) { o.CheckReturnType = false }
}

func WithHostIndex(index int) CallOption {
	return func(o *CallOptions) { o.HostIndex = &index }
}
