// Package httpapi serves the Murmurations Tools pages and JSON endpoints.
package httpapi

import (
	"errors"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"

	"github.com/murmurations/go-murmurations/internal/auth"
	"github.com/murmurations/go-murmurations/internal/config"
	"github.com/murmurations/go-murmurations/internal/render"
	"github.com/murmurations/go-murmurations/pkg/dataproxy"
	"github.com/murmurations/go-murmurations/pkg/index"
	"github.com/murmurations/go-murmurations/pkg/library"
	"github.com/murmurations/go-murmurations/pkg/profile"
	"github.com/murmurations/go-murmurations/pkg/schema"
	"github.com/murmurations/go-murmurations/pkg/store"
)

// Dependencies are the collaborators a Server routes requests to. Builder
// and Logger are optional.
type Dependencies struct {
	Config    config.Config
	Store     store.Store
	Auth      *auth.Service
	Merger    *schema.Merger
	Builder   *profile.Builder
	Catalog   *library.Catalog
	Index     *index.Client
	DataProxy *dataproxy.Client
	Pages     *render.Engine
	Logger    *zap.Logger
}

// Server holds the route table and its collaborators.
type Server struct {
	cfg       config.Config
	store     store.Store
	auth      *auth.Service
	merger    *schema.Merger
	builder   *profile.Builder
	catalog   *library.Catalog
	index     *index.Client
	dataProxy *dataproxy.Client
	pages     *render.Engine
	logger    *zap.Logger
	routes    []route

	docOnce sync.Once
	doc     *openapi3.T
}

// New checks deps and builds the route table.
func New(deps Dependencies) (*Server, error) {
	var missing []error
	if deps.Store == nil {
		missing = append(missing, errors.New("httpapi: store is required"))
	}
	if deps.Auth == nil {
		missing = append(missing, errors.New("httpapi: auth service is required"))
	}
	if deps.Merger == nil {
		missing = append(missing, errors.New("httpapi: schema merger is required"))
	}
	if deps.Catalog == nil {
		missing = append(missing, errors.New("httpapi: library catalog is required"))
	}
	if deps.Index == nil {
		missing = append(missing, errors.New("httpapi: index client is required"))
	}
	if deps.DataProxy == nil {
		missing = append(missing, errors.New("httpapi: data proxy client is required"))
	}
	if deps.Pages == nil {
		missing = append(missing, errors.New("httpapi: page renderer is required"))
	}
	if err := errors.Join(missing...); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:       deps.Config,
		store:     deps.Store,
		auth:      deps.Auth,
		merger:    deps.Merger,
		builder:   deps.Builder,
		catalog:   deps.Catalog,
		index:     deps.Index,
		dataProxy: deps.DataProxy,
		pages:     deps.Pages,
		logger:    deps.Logger,
	}
	if s.builder == nil {
		s.builder = profile.NewBuilder()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.routes = s.routeTable()
	return s, nil
}

// Handler returns the root handler with session and request logging
// middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	for _, rt := range s.routes {
		handler := rt.handler
		if rt.auth {
			handler = s.requireUser(handler)
		}
		mux.Handle(rt.method+" "+rt.pattern, handler)
	}
	return s.logRequests(s.withSession(mux))
}
