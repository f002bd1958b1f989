package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/civicvoice/civicvoice_api/config"
	"github.com/civicvoice/civicvoice_api/internal/ledger"
	"github.com/civicvoice/civicvoice_api/internal/moderation"
	"github.com/civicvoice/civicvoice_api/internal/store"
	"github.com/civicvoice/civicvoice_api/util/values"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultIdleTimeout    = time.Minute
	defaultReadTimeout    = 5 * time.Second
	defaultWriteTimeout   = 10 * time.Second
	defaultShutdownPeriod = 30 * time.Second
)

type Handler func(w http.ResponseWriter, r *http.Request) *ServerResponse

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := h(w, r)
	respByte, err := json.Marshal(resp)
	if err != nil {
		writeErrorResponse(w, err, values.Error, "unable to marshal server response")
		return
	}
	writeJSONResponse(w, respByte, resp.StatusCode)
}

type API struct {
	Server     *http.Server
	Config     *config.Config
	Store      store.Store
	Ledger     *ledger.Service
	Moderation *moderation.Service
}

func (api *API) Serve() error {
	api.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", api.Config.Port),
		IdleTimeout:  defaultIdleTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		Handler:      api.SetUpServerHandler(),
	}
	return api.Server.ListenAndServe()
}

func (api *API) SetUpServerHandler() http.Handler {
	mux := chi.NewRouter()
	mux.Use(RequestTracing)

	mux.Get("/health",
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		},
	)
	mux.Handle("/metrics", promhttp.Handler())

	mux.Mount("/offices", api.OfficeRoutes())
	mux.Mount("/reviews", api.ReviewRoutes())
	mux.Mount("/trends", api.TrendRoutes())

	return mux
}

func (a *API) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownPeriod)
	defer cancel()

	return a.Server.Shutdown(ctx)
}
