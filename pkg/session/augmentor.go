package session

import "github.com/yammahtea/mediscan/pkg/transport"

// Augmentor stamps outgoing requests with the current bearer token.
type Augmentor struct {
	store *Store
}

// NewAugmentor returns an Augmentor reading tokens from store.
func NewAugmentor(store *Store) *Augmentor {
	return &Augmentor{store: store}
}

// Hook is the transport.RequestHook. The token is read at call time, so the
// hook never needs re-registering when the token changes. Retried requests
// keep whatever Authorization header the coordinator set on them.
func (a *Augmentor) Hook(req *transport.Request) {
	if req.Retried {
		return
	}
	if token := a.store.Token(); token != "" {
		req.SetBearer(token)
	}
}
