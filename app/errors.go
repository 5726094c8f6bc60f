package app

import (
	"errors"
	"net/http"

	"Gin_postgres_redis_library/lending"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Abort writes the error envelope every handler uses.
func Abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, H{"error": code, "message": msg, "path": c.Request.URL.Path})
}

// Fail maps err to an HTTP status and writes it.
func Fail(c *gin.Context, err error) {
	var le *lending.Error
	switch {
	case errors.As(err, &le):
		Abort(c, statusOf(le.Kind), le.Code, le.Msg)
	case errors.Is(err, gorm.ErrRecordNotFound):
		Abort(c, http.StatusNotFound, "NOT_FOUND", "not found")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		Abort(c, http.StatusConflict, "CONFLICT", "already exists")
	default:
		_ = c.Error(err)
		Abort(c, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

func statusOf(k lending.Kind) int {
	switch k {
	case lending.KindNotFound:
		return http.StatusNotFound
	case lending.KindInvalidArgument:
		return http.StatusBadRequest
	case lending.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func BadRequest(c *gin.Context, msg string) {
	Abort(c, http.StatusBadRequest, "INVALID_ARGUMENT", msg)
}
