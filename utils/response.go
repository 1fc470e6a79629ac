package utils

import "github.com/gin-gonic/gin"

// ErrorResponse defines the uniform structure for API errors.
type ErrorResponse struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Error writes a standard error response.
func Error(ctx *gin.Context, status int, code int, message string) {
	ctx.JSON(status, ErrorResponse{Code: code, Message: message})
}

// FieldErrors writes a validation error response with per-field detail.
func FieldErrors(ctx *gin.Context, status int, code int, message string, fields map[string]string) {
	ctx.JSON(status, ErrorResponse{Code: code, Message: message, Errors: fields})
}

// Success writes a 200 response with the given body.
func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(200, data)
}
