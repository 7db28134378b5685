package response

import "github.com/gin-gonic/gin"

// RespondJSON writes the standard envelope. status is "success" or "error";
// errs carries validation details or the underlying failure for error
// responses and is omitted from the body when nil.
func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errs interface{}) {
	c.JSON(code, Envelope{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errs,
	})
}
