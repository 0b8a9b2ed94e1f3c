package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/gaswatch-project/gaswatch/web/services"
)

type HttpError struct {
	msg  string
	code int
}

func (e *HttpError) Error() string {
	return e.msg
}

func NotFoundError(msg string) *HttpError {
	return &HttpError{msg: msg, code: http.StatusNotFound}
}

func BadRequestError(msg string) *HttpError {
	return &HttpError{msg: msg, code: http.StatusBadRequest}
}

// ErrorHandler renders the last error attached to the gin context as a JSON body
// with the status code matching its kind.
func ErrorHandler(c *gin.Context) {
	c.Next()

	last := c.Errors.Last()
	if last == nil || c.Writer.Written() {
		return
	}

	var httpErr *HttpError
	var validationErr *services.ValidationError
	var persistenceErr *services.PersistenceError

	switch err := last.Err; {
	case errors.As(err, &httpErr):
		c.JSON(httpErr.code, gin.H{"error": httpErr.Error()})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.As(err, &persistenceErr):
		log.Errorf("%s", persistenceErr)
		c.JSON(http.StatusInternalServerError, gin.H{"error": persistenceErr.Summary()})
	default:
		log.Errorf("unexpected error while serving %s: %s", c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
