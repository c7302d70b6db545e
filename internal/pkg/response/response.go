package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type ErrorBody struct {
	Code   uint32              `json:"code"`
	Msg    string              `json:"msg"`
	Fields map[string][]string `json:"fields,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func Error(c *gin.Context, status int, code uint32, message string) {
	c.AbortWithStatusJSON(status, ErrorBody{Code: code, Msg: message})
}

func FieldError(c *gin.Context, status int, code uint32, message string, fields map[string][]string) {
	c.AbortWithStatusJSON(status, ErrorBody{Code: code, Msg: message, Fields: fields})
}
