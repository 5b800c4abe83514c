package transport

import (
	"context"
	"sync"
)

// RequestHook runs synchronously immediately before a request leaves the
// process. It may mutate the descriptor but must not perform I/O.
type RequestHook func(req *Request)

// ResponseHook observes the outcome of a call. It receives the response on
// success or the error on failure (exactly one is non-nil) and returns the
// outcome handed to the next hook, and finally to the caller.
type ResponseHook func(ctx context.Context, req *Request, resp *Response, err error) (*Response, error)

// Handle identifies a registered hook so it can be ejected later.
type Handle uint64

type hookEntry[T any] struct {
	handle Handle
	fn     T
}

// hookList is an ordered, concurrency-safe hook registry. Hooks run in
// registration order.
type hookList[T any] struct {
	mu      sync.RWMutex
	entries []hookEntry[T]
}

func (l *hookList[T]) add(h Handle, fn T) {
	l.mu.Lock()
	l.entries = append(l.entries, hookEntry[T]{handle: h, fn: fn})
	l.mu.Unlock()
}

func (l *hookList[T]) remove(h Handle) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, e := range l.entries {
		if e.handle == h {
			l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
			return true
		}
	}
	return false
}

// snapshot copies the current hooks so they run without holding the lock;
// hooks are allowed to re-enter the transport.
func (l *hookList[T]) snapshot() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()

	fns := make([]T, len(l.entries))
	for i, e := range l.entries {
		fns[i] = e.fn
	}
	return fns
}

func (l *hookList[T]) len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// UseRequest registers a request hook and returns its handle.
func (t *Transport) UseRequest(fn RequestHook) Handle {
	h := Handle(t.nextHandle.Add(1))
	t.requestHooks.add(h, fn)
	return h
}

// UseResponse registers a response hook and returns its handle.
func (t *Transport) UseResponse(fn ResponseHook) Handle {
	h := Handle(t.nextHandle.Add(1))
	t.responseHooks.add(h, fn)
	return h
}

// EjectRequest unregisters a request hook. It reports whether the handle was registered.
func (t *Transport) EjectRequest(h Handle) bool {
	return t.requestHooks.remove(h)
}

// EjectResponse unregisters a response hook. It reports whether the handle was registered.
func (t *Transport) EjectResponse(h Handle) bool {
	return t.responseHooks.remove(h)
}

// HookCount returns the number of registered request and response hooks.
func (t *Transport) HookCount() (request, response int) {
	return t.requestHooks.len(), t.responseHooks.len()
}
