package handlers

import (
	"net/http"

	"dashboard/internal/domain"
	"dashboard/internal/http/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dashboard/internal/utils"
)

// ErrorResponse standardizes error payloads for new handlers.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	resp := ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	}
	reqID := middleware.GetRequestID(c)
	if reqID != "" {
		c.JSON(status, gin.H{
			"error":      resp.Error,
			"code":       resp.Code,
			"details":    resp.Details,
			"request_id": reqID,
			"message":    message,
		})
		return
	}
	c.JSON(status, resp)
}

// RespondDomainError maps domain errors to HTTP responses.
func RespondDomainError(c *gin.Context, err error) {
	switch {
	case domain.IsUnauthenticated(err):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":      err.Error(),
			"code":       "unauthenticated",
			"redirect":   middleware.LoginPath,
			"request_id": middleware.GetRequestID(c),
			"message":    err.Error(),
		})
		return
	case domain.IsValidation(err):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), nil)
		return
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, "conflict", err.Error(), nil)
		return
	}

	if up, ok := domain.AsUpstream(err); ok {
		respondError(c, http.StatusBadGateway, "upstream_error", err.Error(), gin.H{
			"status":     up.Status,
			"statusText": up.StatusText,
		})
		return
	}

	utils.L().Error("unhandled error",
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	msg := "something went wrong"
	if domain.IsInternal(err) {
		msg = err.Error()
	}
	respondError(c, http.StatusInternalServerError, "internal_error", msg, nil)
}
