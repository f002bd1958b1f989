package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/civicvoice/civicvoice_api/config"
	"github.com/civicvoice/civicvoice_api/internal/ledger"
	"github.com/civicvoice/civicvoice_api/internal/model"
	"github.com/civicvoice/civicvoice_api/internal/moderation"
	"github.com/civicvoice/civicvoice_api/internal/store/memstore"
	"github.com/civicvoice/civicvoice_api/util/values"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

var testStart = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestAPI(t *testing.T) (*API, *memstore.Store) {
	t.Helper()
	s := memstore.New()
	clock := clockwork.NewFakeClockAt(testStart)
	cfg := &config.Config{
		Port:          8080,
		JwtSecret:     testSecret,
		FlagThreshold: 3,
	}
	return &API{
		Config:     cfg,
		Store:      s,
		Ledger:     ledger.New(s, clock),
		Moderation: moderation.New(s, clock, cfg.FlagThreshold),
	}, s
}

func signToken(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID.String(),
		"role": role,
		"typ":  "access",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func doRequest(t *testing.T, api *API, method, path, token string, body interface{}) (*httptest.ResponseRecorder, ServerResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	api.SetUpServerHandler().ServeHTTP(rec, req)

	var resp ServerResponse
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func seedOffice(t *testing.T, s *memstore.Store) uuid.UUID {
	t.Helper()
	office := model.Office{
		ID:        uuid.New(),
		Name:      "City Hall",
		Category:  "MUNICIPALITY",
		CreatedAt: testStart,
	}
	require.NoError(t, s.CreateOffice(context.Background(), office))
	return office.ID
}

func TestHealthEndpoint(t *testing.T) {
	api, _ := newTestAPI(t)
	rec, _ := doRequest(t, api, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestAuthRequired(t *testing.T) {
	api, _ := newTestAPI(t)

	rec, resp := doRequest(t, api, http.MethodGet, "/offices", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, values.NotAuthorised, resp.Status)

	rec, _ = doRequest(t, api, http.MethodGet, "/offices", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExpiredToken(t *testing.T) {
	api, _ := newTestAPI(t)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": uuid.New().String(),
		"typ": "access",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	rec, resp := doRequest(t, api, http.MethodGet, "/offices", signed, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, values.TokenExpired, resp.Status)
}

func TestCreateOfficeRequiresAdmin(t *testing.T) {
	api, _ := newTestAPI(t)
	body := model.CreateOfficeRequest{
		Name:      "Tax Office North",
		Category:  "TAX",
		Latitude:  35.19,
		Longitude: 33.36,
	}

	rec, _ := doRequest(t, api, http.MethodPost, "/offices", signToken(t, uuid.New(), values.RoleCitizen), body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, resp := doRequest(t, api, http.MethodPost, "/offices", signToken(t, uuid.New(), values.RoleAdmin), body)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, values.Created, resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestListOffices(t *testing.T) {
	api, s := newTestAPI(t)
	seedOffice(t, s)
	token := signToken(t, uuid.New(), values.RoleCitizen)

	rec, resp := doRequest(t, api, http.MethodGet, "/offices", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	offices, ok := resp.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, offices, 1)
}

func TestVoteFlow(t *testing.T) {
	api, s := newTestAPI(t)
	officeID := seedOffice(t, s)
	token := signToken(t, uuid.New(), values.RoleCitizen)
	path := fmt.Sprintf("/offices/%s/votes", officeID)

	// First vote counts.
	rec, resp := doRequest(t, api, http.MethodPost, path, token, map[string]string{"vote_type": "upvote"})
	assert.Equal(t, http.StatusOK, rec.Code)
	agg, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1), agg["upvotes"])
	assert.Equal(t, float64(100), agg["ratio"])

	// Same vote again toggles it off.
	rec, resp = doRequest(t, api, http.MethodPost, path, token, map[string]string{"vote_type": "upvote"})
	assert.Equal(t, http.StatusOK, rec.Code)
	agg, ok = resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(0), agg["total"])

	// Unknown vote types are rejected before they reach the ledger.
	rec, _ = doRequest(t, api, http.MethodPost, path, token, map[string]string{"vote_type": "sideways"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetOfficeVotesIncludesCallersVote(t *testing.T) {
	api, s := newTestAPI(t)
	officeID := seedOffice(t, s)
	token := signToken(t, uuid.New(), values.RoleCitizen)
	path := fmt.Sprintf("/offices/%s/votes", officeID)

	_, _ = doRequest(t, api, http.MethodPost, path, token, map[string]string{"vote_type": "downvote"})

	rec, resp := doRequest(t, api, http.MethodGet, path, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1), data["downvotes"])
	myVote, ok := data["my_vote"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "downvote", myVote["vote_type"])
}

func TestVoteOnMissingOffice(t *testing.T) {
	api, _ := newTestAPI(t)
	token := signToken(t, uuid.New(), values.RoleCitizen)

	rec, resp := doRequest(t, api, http.MethodPost,
		fmt.Sprintf("/offices/%s/votes", uuid.New()), token, map[string]string{"vote_type": "upvote"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, values.NotFound, resp.Status)
}

func TestReconcileRequiresAdmin(t *testing.T) {
	api, s := newTestAPI(t)
	officeID := seedOffice(t, s)
	path := fmt.Sprintf("/offices/%s/votes/reconcile", officeID)

	rec, _ := doRequest(t, api, http.MethodPost, path, signToken(t, uuid.New(), values.RoleCitizen), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = doRequest(t, api, http.MethodPost, path, signToken(t, uuid.New(), values.RoleAdmin), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReviewLifecycleOverHTTP(t *testing.T) {
	api, s := newTestAPI(t)
	officeID := seedOffice(t, s)
	citizen := signToken(t, uuid.New(), values.RoleCitizen)
	admin := signToken(t, uuid.New(), values.RoleAdmin)

	// Citizen files a review.
	rec, resp := doRequest(t, api, http.MethodPost,
		fmt.Sprintf("/offices/%s/reviews", officeID), citizen,
		model.CreateReviewRequest{Rating: 2, Comment: "Closed during posted hours"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	reviewID := created["id"].(string)
	assert.Equal(t, "pending", created["status"])

	// Moderation is admin-only.
	rec, _ = doRequest(t, api, http.MethodPatch,
		"/reviews/"+reviewID+"/status", citizen,
		model.UpdateReviewStatusRequest{Status: "approved"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Pending cannot go straight to resolved.
	rec, resp = doRequest(t, api, http.MethodPatch,
		"/reviews/"+reviewID+"/status", admin,
		model.UpdateReviewStatusRequest{Status: "resolved"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, values.Unprocessable, resp.Status)

	// Approve, reply, then read the thread back.
	rec, _ = doRequest(t, api, http.MethodPatch,
		"/reviews/"+reviewID+"/status", admin,
		model.UpdateReviewStatusRequest{Status: "approved"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, resp = doRequest(t, api, http.MethodPost,
		"/reviews/"+reviewID+"/replies", admin,
		model.CreateReplyRequest{Content: "Hours have been corrected."})
	require.Equal(t, http.StatusCreated, rec.Code)
	reply, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, reply["is_official"])

	rec, resp = doRequest(t, api, http.MethodGet,
		"/reviews/"+reviewID+"/replies", citizen, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	replies, ok := resp.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, replies, 1)
}

func TestRepliesRefusedOnRejectedReview(t *testing.T) {
	api, s := newTestAPI(t)
	officeID := seedOffice(t, s)
	citizen := signToken(t, uuid.New(), values.RoleCitizen)
	admin := signToken(t, uuid.New(), values.RoleAdmin)

	_, resp := doRequest(t, api, http.MethodPost,
		fmt.Sprintf("/offices/%s/reviews", officeID), citizen,
		model.CreateReviewRequest{Rating: 1, Comment: "spam spam spam"})
	reviewID := resp.Data.(map[string]interface{})["id"].(string)

	rec, _ := doRequest(t, api, http.MethodPatch,
		"/reviews/"+reviewID+"/status", admin,
		model.UpdateReviewStatusRequest{Status: "rejected"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, resp = doRequest(t, api, http.MethodPost,
		"/reviews/"+reviewID+"/replies", citizen,
		model.CreateReplyRequest{Content: "still here"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, values.Unprocessable, resp.Status)
}

func TestFlagEscalationOverHTTP(t *testing.T) {
	api, s := newTestAPI(t)
	officeID := seedOffice(t, s)
	author := signToken(t, uuid.New(), values.RoleCitizen)

	_, resp := doRequest(t, api, http.MethodPost,
		fmt.Sprintf("/offices/%s/reviews", officeID), author,
		model.CreateReviewRequest{Rating: 1, Comment: "offensive content"})
	reviewID := resp.Data.(map[string]interface{})["id"].(string)

	var last map[string]interface{}
	for i := 0; i < 3; i++ {
		rec, resp := doRequest(t, api, http.MethodPost,
			"/reviews/"+reviewID+"/flags", signToken(t, uuid.New(), values.RoleCitizen), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		last = resp.Data.(map[string]interface{})
	}
	assert.Equal(t, float64(3), last["flag_count"])
	assert.Equal(t, "flagged", last["status"])
}

func TestTrendEndpoints(t *testing.T) {
	api, s := newTestAPI(t)
	officeID := seedOffice(t, s)
	token := signToken(t, uuid.New(), values.RoleCitizen)

	_, _ = doRequest(t, api, http.MethodPost,
		fmt.Sprintf("/offices/%s/votes", officeID), token, map[string]string{"vote_type": "upvote"})

	rec, resp := doRequest(t, api, http.MethodGet,
		fmt.Sprintf("/offices/%s/trends?period=daily&limit=3", officeID), token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	points, ok := resp.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, points, 3)
	latest := points[2].(map[string]interface{})
	assert.Equal(t, float64(1), latest["upvotes"])

	rec, resp = doRequest(t, api, http.MethodGet, "/trends?period=weekly&limit=4", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	points, ok = resp.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, points, 4)

	rec, _ = doRequest(t, api, http.MethodGet, "/trends?period=hourly", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
