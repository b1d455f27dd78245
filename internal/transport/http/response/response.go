package response

import "github.com/gin-gonic/gin"

const (
	CodeBadRequest         = 40000
	CodeSessionNotFound    = 40401
	CodeDatasetNotFound    = 40402
	CodeCursorNotFound     = 40403
	CodeNoRelevantDatasets = 40010
	CodeInternalServer     = 50000
)

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
