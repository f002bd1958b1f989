package rest

import (
	"net/http"
	"strconv"

	apperrors "github.com/civicvoice/civicvoice_api/internal/errors"
	"github.com/civicvoice/civicvoice_api/internal/model"
	"github.com/civicvoice/civicvoice_api/util"
	"github.com/civicvoice/civicvoice_api/util/tracing"
	"github.com/civicvoice/civicvoice_api/util/values"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type voteRequest struct {
	VoteType string `json:"vote_type" validate:"required,vote_type"`
}

func (api *API) VoteOnOffice(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	return api.castVote(r, "officeID", model.TargetOffice)
}

func (api *API) RemoveOfficeVote(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	return api.removeVote(r, "officeID", model.TargetOffice)
}

func (api *API) VoteOnReview(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	return api.castVote(r, "reviewID", model.TargetReview)
}

func (api *API) RemoveReviewVote(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	return api.removeVote(r, "reviewID", model.TargetReview)
}

func (api *API) castVote(r *http.Request, param string, targetType model.TargetType) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	targetID, err := util.StringToUUID(chi.URLParam(r, param))
	if err != nil {
		return respondWithError(err, "invalid target ID", values.BadRequestBody, &tc)
	}

	var req voteRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}
	if err := util.ValidateStruct(req); err != nil {
		return respondWithError(err, "vote_type must be upvote or downvote", values.BadRequestBody, &tc)
	}

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	agg, err := api.Ledger.CastVote(r.Context(), userID, targetID, targetType, model.VoteType(req.VoteType))
	if err != nil {
		return respondWithServiceError(err, &tc)
	}

	return &ServerResponse{
		Message:    "Vote recorded successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       agg,
	}
}

func (api *API) removeVote(r *http.Request, param string, targetType model.TargetType) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	targetID, err := util.StringToUUID(chi.URLParam(r, param))
	if err != nil {
		return respondWithError(err, "invalid target ID", values.BadRequestBody, &tc)
	}

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	agg, err := api.Ledger.RemoveVote(r.Context(), userID, targetID, targetType)
	if err != nil {
		return respondWithServiceError(err, &tc)
	}

	return &ServerResponse{
		Message:    "Vote removed successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       agg,
	}
}

// GetOfficeVotes returns the aggregate counts plus the caller's own vote.
func (api *API) GetOfficeVotes(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	officeID, err := util.StringToUUID(chi.URLParam(r, "officeID"))
	if err != nil {
		return respondWithError(err, "invalid office ID", values.BadRequestBody, &tc)
	}

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	agg, err := api.Ledger.Aggregate(r.Context(), officeID)
	if err != nil {
		return respondWithServiceError(err, &tc)
	}

	data := struct {
		model.VoteAggregate
		MyVote *model.Vote `json:"my_vote,omitempty"`
	}{VoteAggregate: agg}

	vote, err := api.Ledger.GetVote(r.Context(), userID, officeID)
	if err == nil {
		data.MyVote = &vote
	} else if !apperrors.IsKind(err, apperrors.KindNotFound) {
		return respondWithServiceError(err, &tc)
	}

	return &ServerResponse{
		Message:    "Votes retrieved successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       data,
	}
}

// ReconcileOfficeVotes rebuilds the aggregate from the vote rows, repairing
// drift. Admin repair path.
func (api *API) ReconcileOfficeVotes(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	officeID, err := util.StringToUUID(chi.URLParam(r, "officeID"))
	if err != nil {
		return respondWithError(err, "invalid office ID", values.BadRequestBody, &tc)
	}

	agg, err := api.Ledger.Reconcile(r.Context(), officeID)
	if err != nil {
		return respondWithServiceError(err, &tc)
	}

	return &ServerResponse{
		Message:    "Aggregate reconciled successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       agg,
	}
}

func (api *API) TrendRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Group(func(r chi.Router) {
		r.Use(api.RequireLogin)
		r.Method(http.MethodGet, "/", Handler(api.GetGlobalTrend))
	})

	return mux
}

func (api *API) GetGlobalTrend(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	return api.getTrend(r, nil)
}

func (api *API) GetOfficeTrend(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	officeID, err := util.StringToUUID(chi.URLParam(r, "officeID"))
	if err != nil {
		return respondWithError(err, "invalid office ID", values.BadRequestBody, &tc)
	}

	return api.getTrend(r, &officeID)
}

func (api *API) getTrend(r *http.Request, target *uuid.UUID) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	period := r.URL.Query().Get("period")
	if period == "" {
		period = string(model.PeriodDaily)
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 7 // Default trend window
	}

	points, err := api.Ledger.GetTrend(r.Context(), target, model.PeriodType(period), limit)
	if err != nil {
		return respondWithServiceError(err, &tc)
	}

	return &ServerResponse{
		Message:    "Trend retrieved successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       points,
	}
}
