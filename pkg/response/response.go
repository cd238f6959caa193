// Package response writes the JSON envelope shared by every draft endpoint.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Body is the envelope. Issues carries field-level detail for 422 replies,
// either validation issues or the step the wizard stayed on.
type Body struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Issues  interface{} `json:"issues,omitempty"`
}

func success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Body{Success: true, Data: data})
}

func failure(c *gin.Context, status int, msg string, issues interface{}) {
	c.AbortWithStatusJSON(status, Body{Error: msg, Issues: issues})
}

func OK(c *gin.Context, data interface{})       { success(c, http.StatusOK, data) }
func Created(c *gin.Context, data interface{})  { success(c, http.StatusCreated, data) }
func Accepted(c *gin.Context, data interface{}) { success(c, http.StatusAccepted, data) }

// NoContent sends 204 without a body.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func BadRequest(c *gin.Context, msg string)         { failure(c, http.StatusBadRequest, msg, nil) }
func NotFound(c *gin.Context, msg string)           { failure(c, http.StatusNotFound, msg, nil) }
func Conflict(c *gin.Context, msg string)           { failure(c, http.StatusConflict, msg, nil) }
func ServiceUnavailable(c *gin.Context, msg string) { failure(c, http.StatusServiceUnavailable, msg, nil) }
func Internal(c *gin.Context, msg string)           { failure(c, http.StatusInternalServerError, msg, nil) }

// Unprocessable sends 422 with whatever detail explains the rejection.
func Unprocessable(c *gin.Context, msg string, issues interface{}) {
	failure(c, http.StatusUnprocessableEntity, msg, issues)
}
