package core

import (
	"context"
)

// AsyncResult is the handle every call returns. Synchronous calls return an
// already completed handle; asynchronous ones complete when their goroutine finishes.
// Every accessor returns the same outcome the synchronous path would.
type AsyncResult[T any] struct {
	done chan struct{}
	resp *ApiResponse[T]
	err  error
}

func newAsyncResult[T any]() *AsyncResult[T] {
	return &AsyncResult[T]{done: make(chan struct{})}
}

// completedResult returns a handle already holding an outcome.
func completedResult[T any](resp *ApiResponse[T], err error) *AsyncResult[T] {
	ar := newAsyncResult[T]()
	ar.complete(resp, err)
	return ar
}

func (ar *AsyncResult[T]) complete(resp *ApiResponse[T], err error) {
	ar.resp, ar.err = resp, err
	close(ar.done)
}

// Done is closed once the call has completed.
func (ar *AsyncResult[T]) Done() <-chan struct{} {
	return ar.done
}

// Ready reports, without blocking, whether the call has completed.
func (ar *AsyncResult[T]) Ready() bool {
	select {
	case <-ar.done:
		return true
	default:
		return false
	}
}

// Get blocks until the call completes and returns its outcome.
func (ar *AsyncResult[T]) Get() (*ApiResponse[T], error) {
	<-ar.done
	return ar.resp, ar.err
}

// GetWithContext is like Get but stops waiting when ctx is done.
// The call itself keeps running; use the call context or a timeout to stop it.
func (ar *AsyncResult[T]) GetWithContext(ctx context.Context) (*ApiResponse[T], error) {
	select {
	case <-ar.done:
		return ar.resp, ar.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Data blocks until the call completes and returns the decoded body.
// It is nil when return type checking was disabled.
func (ar *AsyncResult[T]) Data() (*T, error) {
	resp, err := ar.Get()
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// IsSuccess blocks until the call completes and reports whether it succeeded.
func (ar *AsyncResult[T]) IsSuccess() bool {
	_, err := ar.Get()
	return err == nil
}

// IsFailed blocks until the call completes and reports whether it failed.
func (ar *AsyncResult[T]) IsFailed() bool {
	return !ar.IsSuccess()
}
