package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/information-sharing-networks/oms-authenticator/internal/api"
	"github.com/information-sharing-networks/oms-authenticator/internal/logger"
	"github.com/information-sharing-networks/oms-authenticator/internal/result"
	"github.com/information-sharing-networks/oms-authenticator/internal/token"
)

// query string parameters
const (
	paramOwnerID   = "omsid"
	paramSubjectID = "connectionid"
	paramRequestID = "requestid"
)

// broker returns the broker of the {provider} path segment.
func (s *Server) broker(r *http.Request) (*token.Broker, error) {
	provider := chi.URLParam(r, "provider")
	b, ok := s.brokers[provider]
	if !ok {
		return nil, api.NewUnknownProviderError(provider)
	}
	logger.ContextWithLogAttrs(r.Context(), slog.String("provider", provider))
	return b, nil
}

// requiredQuery returns a query parameter that must be present and non-empty.
func requiredQuery(r *http.Request, name string) (string, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return "", api.NewValidationError("Query string parameter '" + name + "' is required.")
	}
	return v, nil
}

// handleSessionToken godoc
//
//	@Summary		Get a session token
//	@Description	Returns a session token for the connection (subject) of an order management station (owner).
//	@Description	With requestid the token acquired for that request id is returned, acquiring it if needed.
//	@Description	Without requestid any live token of the same connection and station is returned; a new one is acquired only when none exists.
//	@Tags			Tokens
//	@Produce		json
//	@Param			provider		path		string	true	"Provider path segment"
//	@Param			omsid			query		string	true	"Order management station id (owner)"
//	@Param			connectionid	query		string	true	"Connection id (subject)"
//	@Param			requestid		query		string	false	"Request id"
//	@Success		200				{object}	api.TokenResponse
//	@Failure		400				{object}	api.ErrorResponse	"Missing query parameter"
//	@Failure		404				{object}	api.ErrorResponse	"Unknown provider"
//	@Failure		422				{object}	api.ErrorResponse	"The authority did not issue a token"
//	@Router			/api/v2/{provider}/oms/token [get]
func (s *Server) handleSessionToken(w http.ResponseWriter, r *http.Request) {
	b, err := s.broker(r)
	if err != nil {
		api.RespondWithErrorResponse(w, r, err)
		return
	}
	ownerID, err := requiredQuery(r, paramOwnerID)
	if err != nil {
		api.RespondWithErrorResponse(w, r, err)
		return
	}
	subjectID, err := requiredQuery(r, paramSubjectID)
	if err != nil {
		api.RespondWithErrorResponse(w, r, err)
		return
	}

	tok := b.SessionToken(r.Context(), subjectID, ownerID, r.URL.Query().Get(paramRequestID))
	respondWithToken(w, r, tok, api.NewTokenAcquisitionError)
}

// handleCachedSessionToken godoc
//
//	@Summary		Look up a cached session token
//	@Description	Returns a live cached session token for the connection and station. Never contacts the authority.
//	@Tags			Tokens
//	@Produce		json
//	@Param			provider		path		string	true	"Provider path segment"
//	@Param			omsid			query		string	true	"Order management station id (owner)"
//	@Param			connectionid	query		string	true	"Connection id (subject)"
//	@Success		200				{object}	api.TokenResponse
//	@Failure		400				{object}	api.ErrorResponse	"Missing query parameter"
//	@Failure		404				{object}	api.ErrorResponse	"Unknown provider or no live token"
//	@Router			/api/v2/{provider}/oms/token/cached [get]
func (s *Server) handleCachedSessionToken(w http.ResponseWriter, r *http.Request) {
	b, err := s.broker(r)
	if err != nil {
		api.RespondWithErrorResponse(w, r, err)
		return
	}
	ownerID, err := requiredQuery(r, paramOwnerID)
	if err != nil {
		api.RespondWithErrorResponse(w, r, err)
		return
	}
	subjectID, err := requiredQuery(r, paramSubjectID)
	if err != nil {
		api.RespondWithErrorResponse(w, r, err)
		return
	}

	tok := b.FindSessionToken(r.Context(), subjectID, ownerID)
	respondWithToken(w, r, tok, api.NewTokenNotFoundError)
}

// handleAuthorityToken godoc
//
//	@Summary		Get an authority token
//	@Description	Returns an authority-wide token. requestid behaves as for session tokens.
//	@Tags			Tokens
//	@Produce		json
//	@Param			provider	path		string	true	"Provider path segment"
//	@Param			requestid	query		string	false	"Request id"
//	@Success		200			{object}	api.TokenResponse
//	@Failure		404			{object}	api.ErrorResponse	"Unknown provider"
//	@Failure		422			{object}	api.ErrorResponse	"The authority did not issue a token"
//	@Router			/api/v2/{provider}/true/token [get]
func (s *Server) handleAuthorityToken(w http.ResponseWriter, r *http.Request) {
	b, err := s.broker(r)
	if err != nil {
		api.RespondWithErrorResponse(w, r, err)
		return
	}

	tok := b.AuthorityToken(r.Context(), r.URL.Query().Get(paramRequestID))
	respondWithToken(w, r, tok, api.NewTokenAcquisitionError)
}

// handleSignature godoc
//
//	@Summary		Sign a payload
//	@Description	Signs a base64 encoded payload with the provider certificate. The token cache is not involved.
//	@Tags			Signatures
//	@Accept			json
//	@Produce		json
//	@Param			provider	path		string					true	"Provider path segment"
//	@Param			request		body		api.SignatureRequest	true	"Payload"
//	@Success		200			{object}	api.SignatureResponse
//	@Failure		400			{object}	api.ErrorResponse	"Invalid request"
//	@Failure		404			{object}	api.ErrorResponse	"Unknown provider"
//	@Failure		422			{object}	api.ErrorResponse	"Signing failed"
//	@Router			/api/v2/{provider}/signature [post]
func (s *Server) handleSignature(w http.ResponseWriter, r *http.Request) {
	b, err := s.broker(r)
	if err != nil {
		api.RespondWithErrorResponse(w, r, err)
		return
	}

	var req api.SignatureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			api.RespondWithErrorResponse(w, r, api.NewRequestTooLargeError("Request body exceeds the maximum allowed size."))
			return
		}
		api.RespondWithErrorResponse(w, r, api.WrapMalformedRequestError(err, "Invalid request."))
		return
	}
	if req.PayloadBase64 == nil {
		api.RespondWithErrorResponse(w, r, api.NewValidationError("payloadBase64 body parameter is required."))
		return
	}

	signed := b.Sign(r.Context(), *req.PayloadBase64)
	if signature, ok := signed.Value(); ok {
		api.RespondWithJSONPayload(w, http.StatusOK, api.SignatureResponse{Signature: signature})
		return
	}
	api.RespondWithErrorResponse(w, r, api.NewSignatureError(signed.Errors()))
}

// respondWithToken writes a token, or the failure converted by onFailure.
func respondWithToken(w http.ResponseWriter, r *http.Request, tok result.Result[token.Token], onFailure func([]string) error) {
	result.Match(tok,
		func(t token.Token) struct{} {
			logger.ContextWithLogAttrs(r.Context(), slog.String("token_request_id", t.RequestID))
			api.RespondWithJSONPayload(w, http.StatusOK, api.NewTokenResponse(t))
			return struct{}{}
		},
		func(errs []string) struct{} {
			api.RespondWithErrorResponse(w, r, onFailure(errs))
			return struct{}{}
		})
}
