package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response unified envelope consumed by the dashboards
type Response struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Pagination page metadata
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"total_pages"`
}

// NewPagination computes total_pages from total and page size
func NewPagination(total int64, page, perPage int) Pagination {
	totalPages := 0
	if perPage > 0 {
		totalPages = int(total) / perPage
		if int(total)%perPage > 0 {
			totalPages++
		}
	}
	return Pagination{
		CurrentPage: page,
		PerPage:     perPage,
		Total:       total,
		TotalPages:  totalPages,
	}
}

// ── success ──

// OK 200
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// OKMessage 200 with a message and no payload
func OKMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message})
}

// Created 201
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

// OKPage 200 with a named collection and pagination:
// {"success":true,"data":{"<key>":[...],"pagination":{...}}}
func OKPage(c *gin.Context, key string, list interface{}, total int64, page, perPage int) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			key:          list,
			"pagination": NewPagination(total, page, perPage),
		},
	})
}

// ── errors ──

// Error generic error envelope
func Error(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, Response{Success: false, Message: message})
}

// ValidationError 422 with a field → message map
func ValidationError(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusUnprocessableEntity, Response{
		Success: false,
		Message: "validation failed",
		Errors:  fields,
	})
}

// BadRequest 400
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// Unauthorized 401
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

// Forbidden 403
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, message)
}

// NotFound 404
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// Conflict 409
func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, message)
}

// InternalError 500
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "internal server error")
}
