package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the data payload of the common envelope.
type Response map[string]interface{}

// Business error codes.
const (
	CodeOK           = 0
	CodeInvalidParam = 40001
	CodeAuth         = 40101
	CodeForbidden    = 40301
	CodeNotFound     = 40401
	CodeConflict     = 40901
	CodeRateLimited  = 42901
	CodeServerErr    = 50001
)

// Success writes the common success envelope.
func Success(c *gin.Context, data Response) {
	SuccessStatus(c, http.StatusOK, data)
}

// SuccessStatus is Success with an explicit HTTP status, e.g. 201.
func SuccessStatus(c *gin.Context, httpStatus int, data Response) {
	c.JSON(httpStatus, gin.H{
		"code": CodeOK,
		"data": data,
	})
}

// Error writes the common error envelope.
func Error(c *gin.Context, httpStatus int, code int, msg string) {
	c.JSON(httpStatus, gin.H{
		"code":    code,
		"message": msg,
	})
}

// ErrorWithData is Error plus extra fields merged into the envelope.
func ErrorWithData(c *gin.Context, httpStatus int, code int, msg string, extra Response) {
	body := gin.H{
		"code":    code,
		"message": msg,
	}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(httpStatus, body)
}
