package rest

import (
	"net/http"

	"github.com/civicvoice/civicvoice_api/internal/model"
	"github.com/civicvoice/civicvoice_api/util"
	"github.com/civicvoice/civicvoice_api/util/tracing"
	"github.com/civicvoice/civicvoice_api/util/values"
	"github.com/go-chi/chi/v5"
)

func (api *API) ReviewRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Group(func(r chi.Router) {
		r.Use(api.RequireLogin)
		r.Method(http.MethodGet, "/{reviewID}", Handler(api.GetReviewByID))
		r.With(api.RequireAdmin).Method(http.MethodPatch, "/{reviewID}/status", Handler(api.UpdateReviewStatus))
		r.Method(http.MethodPost, "/{reviewID}/flags", Handler(api.FlagReview))

		r.Method(http.MethodPost, "/{reviewID}/votes", Handler(api.VoteOnReview))
		r.Method(http.MethodDelete, "/{reviewID}/votes", Handler(api.RemoveReviewVote))

		r.Method(http.MethodPost, "/{reviewID}/replies", Handler(api.ReplyToReview))
		r.Method(http.MethodGet, "/{reviewID}/replies", Handler(api.GetReplies))
	})

	return mux
}

func (api *API) CreateReview(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	officeID, err := util.StringToUUID(chi.URLParam(r, "officeID"))
	if err != nil {
		return respondWithError(err, "invalid office ID", values.BadRequestBody, &tc)
	}

	var req model.CreateReviewRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}
	if err := util.ValidateStruct(req); err != nil {
		return respondWithError(err, "validation failed", values.BadRequestBody, &tc)
	}

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	review, err := api.Moderation.CreateReview(r.Context(), userID, officeID, req.Rating, req.Comment)
	if err != nil {
		return respondWithServiceError(err, &tc)
	}

	return &ServerResponse{
		Message:    "Review created successfully",
		Status:     values.Created,
		StatusCode: util.StatusCode(values.Created),
		Data:       review,
	}
}

func (api *API) GetOfficeReviews(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	officeID, err := util.StringToUUID(chi.URLParam(r, "officeID"))
	if err != nil {
		return respondWithError(err, "invalid office ID", values.BadRequestBody, &tc)
	}

	reviews, err := api.Moderation.ListOfficeReviews(r.Context(), officeID)
	if err != nil {
		return respondWithServiceError(err, &tc)
	}
	if reviews == nil {
		reviews = []model.Review{}
	}

	return &ServerResponse{
		Message:    "Reviews retrieved successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       reviews,
	}
}

func (api *API) GetReviewByID(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	reviewID, err := util.StringToUUID(chi.URLParam(r, "reviewID"))
	if err != nil {
		return respondWithError(err, "invalid review ID", values.BadRequestBody, &tc)
	}

	review, err := api.Moderation.GetReview(r.Context(), reviewID)
	if err != nil {
		return respondWithServiceError(err, &tc)
	}

	return &ServerResponse{
		Message:    "Review retrieved successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       review,
	}
}

func (api *API) UpdateReviewStatus(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	reviewID, err := util.StringToUUID(chi.URLParam(r, "reviewID"))
	if err != nil {
		return respondWithError(err, "invalid review ID", values.BadRequestBody, &tc)
	}

	var req model.UpdateReviewStatusRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}
	if err := util.ValidateStruct(req); err != nil {
		return respondWithError(err, "validation failed", values.BadRequestBody, &tc)
	}

	review, err := api.Moderation.Transition(r.Context(), reviewID, model.ReviewStatus(req.Status))
	if err != nil {
		return respondWithServiceError(err, &tc)
	}

	return &ServerResponse{
		Message:    "Review status updated successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       review,
	}
}

func (api *API) FlagReview(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	reviewID, err := util.StringToUUID(chi.URLParam(r, "reviewID"))
	if err != nil {
		return respondWithError(err, "invalid review ID", values.BadRequestBody, &tc)
	}

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	review, err := api.Moderation.Flag(r.Context(), reviewID, userID)
	if err != nil {
		return respondWithServiceError(err, &tc)
	}

	return &ServerResponse{
		Message:    "Review flagged successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       review,
	}
}

func (api *API) ReplyToReview(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	reviewID, err := util.StringToUUID(chi.URLParam(r, "reviewID"))
	if err != nil {
		return respondWithError(err, "invalid review ID", values.BadRequestBody, &tc)
	}

	var req model.CreateReplyRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}
	if err := util.ValidateStruct(req); err != nil {
		return respondWithError(err, "validation failed", values.BadRequestBody, &tc)
	}

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}
	role := util.GetUserRoleFromContext(r.Context())

	reply, err := api.Moderation.AddReply(r.Context(), reviewID, userID, role, req.Content)
	if err != nil {
		return respondWithServiceError(err, &tc)
	}

	return &ServerResponse{
		Message:    "Reply added successfully",
		Status:     values.Created,
		StatusCode: util.StatusCode(values.Created),
		Data:       reply,
	}
}

func (api *API) GetReplies(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	reviewID, err := util.StringToUUID(chi.URLParam(r, "reviewID"))
	if err != nil {
		return respondWithError(err, "invalid review ID", values.BadRequestBody, &tc)
	}

	replies, err := api.Moderation.ListReplies(r.Context(), reviewID)
	if err != nil {
		return respondWithServiceError(err, &tc)
	}
	if replies == nil {
		replies = []model.Reply{}
	}

	return &ServerResponse{
		Message:    "Replies retrieved successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       replies,
	}
}
