package app

import (
	"fmt"
	"regexp"

	"github.com/keyless-one/strongbox"
	"github.com/keyless-one/strongbox/errors"
)

// isPath defines expected format of the routed paths. A path is constructed
// out of the extension name and the action name.
var isPath = regexp.MustCompile(`^[a-z]+(/[a-z_]+)?$`).MatchString

// Router allows us to register many handlers with different paths and then
// direct each message to the registered handler.
type Router struct {
	routes map[string]strongbox.Handler
}

var _ strongbox.Registry = (*Router)(nil)
var _ strongbox.Handler = (*Router)(nil)

// NewRouter initializes a router with no routes.
func NewRouter() *Router {
	return &Router{
		routes: make(map[string]strongbox.Handler),
	}
}

// Handle adds a new Handler for the given path. This function panics if a
// handler for given path is already registered or if the path is invalid, as
// this must be caught during the setup phase.
func (r *Router) Handle(path string, h strongbox.Handler) {
	if !isPath(path) {
		panic(fmt.Sprintf("invalid path %q", path))
	}
	if _, ok := r.routes[path]; ok {
		panic(fmt.Sprintf("re-registering route %q", path))
	}
	r.routes[path] = h
}

// Handler returns the registered Handler for this path. If no path is found,
// returns a noSuchPathHandler that errors on all calls.
func (r *Router) Handler(path string) strongbox.Handler {
	if h, ok := r.routes[path]; ok {
		return h
	}
	return noSuchPathHandler{path: path}
}

// Check dispatches to the proper handler based on the message path.
func (r *Router) Check(ctx strongbox.Context, store strongbox.KVStore, tx strongbox.Tx) (*strongbox.CheckResult, error) {
	return r.Handler(strongbox.GetPath(tx)).Check(ctx, store, tx)
}

// Deliver dispatches to the proper handler based on the message path.
func (r *Router) Deliver(ctx strongbox.Context, store strongbox.KVStore, tx strongbox.Tx) (*strongbox.DeliverResult, error) {
	return r.Handler(strongbox.GetPath(tx)).Deliver(ctx, store, tx)
}

type noSuchPathHandler struct {
	path string
}

var _ strongbox.Handler = noSuchPathHandler{}

func (h noSuchPathHandler) Check(strongbox.Context, strongbox.KVStore, strongbox.Tx) (*strongbox.CheckResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for message path %q", h.path)
}

func (h noSuchPathHandler) Deliver(strongbox.Context, strongbox.KVStore, strongbox.Tx) (*strongbox.DeliverResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for message path %q", h.path)
}
