package rest

import (
	"net/http"
	"time"

	"github.com/civicvoice/civicvoice_api/internal/model"
	"github.com/civicvoice/civicvoice_api/util"
	"github.com/civicvoice/civicvoice_api/util/tracing"
	"github.com/civicvoice/civicvoice_api/util/values"
	"github.com/go-chi/chi/v5"
)

func (api *API) OfficeRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Group(func(r chi.Router) {
		r.Use(api.RequireLogin)
		r.With(api.RequireAdmin).Method(http.MethodPost, "/", Handler(api.CreateOffice))
		r.Method(http.MethodGet, "/", Handler(api.ListOffices))
		r.Method(http.MethodGet, "/{officeID}", Handler(api.GetOfficeByID))

		r.Method(http.MethodPost, "/{officeID}/votes", Handler(api.VoteOnOffice))
		r.Method(http.MethodDelete, "/{officeID}/votes", Handler(api.RemoveOfficeVote))
		r.Method(http.MethodGet, "/{officeID}/votes", Handler(api.GetOfficeVotes))
		r.With(api.RequireAdmin).Method(http.MethodPost, "/{officeID}/votes/reconcile", Handler(api.ReconcileOfficeVotes))
		r.Method(http.MethodGet, "/{officeID}/trends", Handler(api.GetOfficeTrend))

		r.Method(http.MethodPost, "/{officeID}/reviews", Handler(api.CreateReview))
		r.Method(http.MethodGet, "/{officeID}/reviews", Handler(api.GetOfficeReviews))
	})

	return mux
}

func (api *API) CreateOffice(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	var req model.CreateOfficeRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}

	if err := util.ValidateStruct(req); err != nil {
		return respondWithError(err, "validation failed", values.BadRequestBody, &tc)
	}

	office := model.Office{
		ID:        util.GenerateUUID(),
		Name:      req.Name,
		Category:  req.Category,
		Address:   req.Address,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		CreatedAt: time.Now().UTC(),
	}

	status, message, err := api.CreateOfficeHelper(r.Context(), office)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       office,
	}
}

func (api *API) GetOfficeByID(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	officeID, err := util.StringToUUID(chi.URLParam(r, "officeID"))
	if err != nil {
		return respondWithError(err, "invalid office ID", values.BadRequestBody, &tc)
	}

	office, status, message, err := api.GetOfficeByIDHelper(r.Context(), officeID)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       office,
	}
}

func (api *API) ListOffices(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	category := r.URL.Query().Get("category")

	offices, status, message, err := api.ListOfficesHelper(r.Context(), category)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}
	if offices == nil {
		offices = []model.Office{}
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       offices,
	}
}
