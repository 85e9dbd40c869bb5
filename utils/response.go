package utils

import "github.com/gin-gonic/gin"

// FailureResponse is the wire shape of every error reply.
type FailureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Fail writes a failure payload with the given status code. The message is the
// public error string; internal detail belongs in the operator log, never here.
func Fail(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, FailureResponse{Success: false, Error: message})
}

// OK writes a 200 response with the given payload merged under success=true.
func OK(ctx *gin.Context, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	ctx.JSON(200, body)
}
