package http

import (
	"errors"
	"net/http"

	"coursemint/domain/apperror"
	"coursemint/domain/dto"
	"coursemint/infrastructure/logger"

	"github.com/gin-gonic/gin"
)

const ErrorUnmarshal = "Error while unmarshal"

// statusOf maps usecase errors to HTTP status codes. Anything that is not an
// *apperror.Error is a 500.
func statusOf(err error) int {
	var ae *apperror.Error
	if !errors.As(err, &ae) {
		return http.StatusInternalServerError
	}
	switch ae.Kind {
	case apperror.KindValidation:
		switch ae.Code {
		case apperror.CodeTooLarge:
			return http.StatusRequestEntityTooLarge
		case apperror.CodeInvalidType:
			return http.StatusUnsupportedMediaType
		}
		return http.StatusBadRequest
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindAuth:
		if ae.Code == apperror.CodeForbidden {
			return http.StatusForbidden
		}
		return http.StatusUnauthorized
	case apperror.KindConflict:
		return http.StatusConflict
	case apperror.KindRateLimited:
		return http.StatusTooManyRequests
	case apperror.KindUpstream:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusOf(err)
	res := dto.ErrorRes{Error: apperror.CodeOf(err), Message: "internal error"}
	var ae *apperror.Error
	if errors.As(err, &ae) && status != http.StatusInternalServerError {
		res.Message = ae.Message
	}
	if res.Error == "" {
		res.Error = apperror.CodeInternal
	}
	lg := logger.GetLogger().WithField("error", err).WithField("status", status).WithField("path", c.FullPath())
	if status >= http.StatusInternalServerError {
		lg.Error("request failed")
	} else {
		lg.Debug("request rejected")
	}
	c.AbortWithStatusJSON(status, res)
}

func ownerID(c *gin.Context) (string, bool) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorRes{Error: "unauthorized", Message: "missing user_id"})
		return "", false
	}
	return userID, true
}
