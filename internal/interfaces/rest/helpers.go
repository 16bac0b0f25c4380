package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/teknatem/mpbackoffice/internal/interfaces/middleware"
	"github.com/teknatem/mpbackoffice/pkg/constants"
	"github.com/teknatem/mpbackoffice/pkg/errors"
)

// RespondAppError sends a standardised JSON error response using pkg/errors
func RespondAppError(c *gin.Context, err error) {
	code := errors.GetHTTPStatus(err)
	resp := errors.ToResponse(err)

	if code >= 500 {
		middleware.Logger(c).WithFields(logrus.Fields{
			"status":     code,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"request_id": c.GetString(constants.ContextKeyRequestID),
		}).WithError(err).Error("request error")
	}
	_ = c.Error(err)

	body := gin.H{
		constants.ResponseError: resp.Message,
		constants.FieldMessage:  resp.Message,
		"code":                  resp.Code,
	}
	if resp.Details != nil {
		body["details"] = resp.Details
	}
	c.JSON(code, body)
}

// BindJSON binds JSON and returns true if successful. If failed, it sends bad request error.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		RespondAppError(c, errors.NewValidationError("body", err.Error()))
		return false
	}
	return true
}

// HandleGetEnvelope executes a read action and returns the result wrapped in a JSON key
// Response: { [key]: result }
func HandleGetEnvelope(c *gin.Context, key string, action func() (interface{}, error)) {
	result, err := action()
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{key: result})
}

// HandleResult executes an action and returns its result as the whole body
func HandleResult(c *gin.Context, action func() (interface{}, error)) {
	result, err := action()
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleDeleteEnvelope executes a delete action and returns a success message
// Response: { constants.FieldMessage: successMsg }
func HandleDeleteEnvelope(c *gin.Context, successMsg string, action func() error) {
	if err := action(); err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.FieldMessage: successMsg})
}
