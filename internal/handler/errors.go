package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"aura-protocol-go/internal/failure"
)

var kindStatus = map[failure.Kind]int{
	failure.KindValidation:           http.StatusBadRequest,
	failure.KindNoIncome:             http.StatusUnprocessableEntity,
	failure.KindBelowFloor:           http.StatusUnprocessableEntity,
	failure.KindIneligible:           http.StatusUnprocessableEntity,
	failure.KindDuplicate:            http.StatusConflict,
	failure.KindBusy:                 http.StatusConflict,
	failure.KindStaleRecord:          http.StatusConflict,
	failure.KindUserRejected:         http.StatusConflict,
	failure.KindNotConnected:         http.StatusUnauthorized,
	failure.KindPermissionDenied:     http.StatusForbidden,
	failure.KindNoBadge:              http.StatusNotFound,
	failure.KindRecordUnavailable:    http.StatusNotFound,
	failure.KindNotInstalled:         http.StatusServiceUnavailable,
	failure.KindUnrecognizedResponse: http.StatusBadGateway,
	failure.KindNetwork:              http.StatusBadGateway,
	failure.KindTimeout:              http.StatusGatewayTimeout,
}

// statusFor maps an error kind to an HTTP status.
func statusFor(kind failure.Kind) int {
	if code, ok := kindStatus[kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// respondError writes err as an ErrorResponse.
func respondError(c *gin.Context, err error) {
	kind := failure.KindOf(err)
	code := statusFor(kind)
	if code >= http.StatusInternalServerError {
		logrus.WithField("path", c.FullPath()).WithError(err).Error("Request failed")
	}

	c.JSON(code, ErrorResponse{
		Error:   kind.String(),
		Message: failure.Message(err),
		Code:    code,
		Remedy:  string(kind.Remedy()),
	})
}

// badRequest answers a request whose body or parameters could not be read.
func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   failure.KindValidation.String(),
		Message: message,
		Code:    http.StatusBadRequest,
		Remedy:  string(failure.KindValidation.Remedy()),
	})
}
