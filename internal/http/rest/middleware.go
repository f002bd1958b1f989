package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/civicvoice/civicvoice_api/internal/model"
	"github.com/civicvoice/civicvoice_api/util/tracing"
	"github.com/civicvoice/civicvoice_api/util/values"
	"github.com/golang-jwt/jwt"
	"github.com/lucsky/cuid"
)

// RequestTracing handles the request tracing context
func RequestTracing(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		requestSource := r.Header.Get(values.HeaderRequestSource)
		if requestSource == "" {
			requestSource = "unknown"
		}

		requestID := r.Header.Get(values.HeaderRequestID)
		if requestID == "" {
			requestID = cuid.New()
		}

		tracingContext := tracing.Context{
			RequestID:     requestID,
			RequestSource: requestSource,
		}

		ctx = context.WithValue(ctx, values.ContextTracingKey, tracingContext)
		next.ServeHTTP(w, r.WithContext(ctx))
	}

	return http.HandlerFunc(fn)
}

// RequireLogin verifies the bearer token and stores the caller's identity in
// the request context. The identity provider issues the tokens; this layer
// only verifies them.
func (api *API) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization := strings.Split(r.Header.Get("Authorization"), " ")
		if len(authorization) != 2 || authorization[0] != "Bearer" {
			writeErrorResponse(w, errors.New(values.NotAuthorised), values.NotAuthorised, "not-authorized")
			return
		}

		claims, err := api.verifyToken(authorization[1], false)
		if err != nil {
			if err.Error() == "token expired" {
				writeErrorResponse(w, err, values.TokenExpired, "token-expired")
				return
			}
			writeErrorResponse(w, err, values.NotAuthorised, "invalid-token")
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, values.ContextUserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, values.ContextUserRole, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin allows only callers whose verified role is admin.
func (api *API) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, _ := r.Context().Value(values.ContextUserRole).(string)
		if role != values.RoleAdmin {
			writeErrorResponse(w, errors.New(values.NotAllowed), values.NotAllowed, "admin-only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (api *API) verifyToken(tokenString string, isRefresh bool) (*model.TokenClaims, error) {
	secret := api.Config.JwtSecret
	if isRefresh {
		secret = api.Config.RefreshSecret
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})

	if ve, ok := err.(*jwt.ValidationError); ok {
		if ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, fmt.Errorf("token expired")
		}
	}

	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims")
	}

	tokenType, _ := claims["typ"].(string)
	if (isRefresh && tokenType != "refresh") || (!isRefresh && tokenType != "access") {
		return nil, fmt.Errorf("invalid token type")
	}

	userID, ok := claims["sub"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid user id")
	}

	role, _ := claims["role"].(string)
	if role == "" {
		role = values.RoleCitizen
	}

	exp, _ := claims["exp"].(float64)

	return &model.TokenClaims{
		UserID: userID,
		Role:   role,
		Type:   tokenType,
		Exp:    int64(exp),
	}, nil
}
