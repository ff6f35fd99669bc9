package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/application"
)

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

func (h *Handler) readyz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ready")
}

// authMiddleware verifies the gateway-issued bearer token and stores the
// resulting actor on the request context. Token issuing lives in the
// authentication service; this adapter only checks signatures and expiry.
func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerTokenFromHeader(r.Header.Get("Authorization"))
		if err != nil {
			writeMissingBearerError(r.Context(), w, "authenticate")
			return
		}

		claims, err := h.verifier.Verify(raw)
		if err != nil {
			code := "UNAUTHORIZED"
			msg := "invalid or missing credentials"
			logHTTPOperationError(r.Context(), "authenticate", http.StatusUnauthorized, code, msg, err)
			writeError(w, http.StatusUnauthorized, code, msg, requestIDFromContext(r.Context()))
			return
		}

		actor := application.Actor{UserID: claims.UserID, Role: claims.Role}
		next.ServeHTTP(w, r.WithContext(contextWithActor(r.Context(), actor)))
	})
}

func (h *Handler) evaluate(w http.ResponseWriter, r *http.Request) {
	var req application.EvaluateRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "evaluate_content", err)
		return
	}

	res, err := h.service.Evaluate(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "evaluate_content", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) getReputation(w http.ResponseWriter, r *http.Request) {
	reputation, err := h.service.GetReputation(r.Context(), chi.URLParam(r, "user_id"))
	if err != nil {
		writeMappedError(r.Context(), w, "get_reputation", err)
		return
	}
	writeSuccess(w, http.StatusOK, reputation)
}

func (h *Handler) reportUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeMissingBearerError(r.Context(), w, "report_user")
		return
	}
	actor.IdempotencyKey = strings.TrimSpace(r.Header.Get("Idempotency-Key"))

	var req application.ReportRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "report_user", err)
		return
	}

	res, err := h.service.ReportUser(r.Context(), actor, req)
	if err != nil {
		writeMappedError(r.Context(), w, "report_user", err)
		return
	}
	writeSuccess(w, http.StatusCreated, res)
}

func (h *Handler) moderationQueue(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeMissingBearerError(r.Context(), w, "moderation_queue")
		return
	}

	limit := parseIntDefault(r.URL.Query().Get("limit"), 0)
	entries, err := h.service.GetModerationQueue(r.Context(), actor, limit)
	if err != nil {
		writeMappedError(r.Context(), w, "moderation_queue", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) getRestriction(w http.ResponseWriter, r *http.Request) {
	restriction, err := h.service.GetRestriction(r.Context(), chi.URLParam(r, "user_id"))
	if err != nil {
		writeMappedError(r.Context(), w, "get_restriction", err)
		return
	}
	writeSuccess(w, http.StatusOK, restriction)
}
