package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// EditionResult is the JSON body of the create/edit/delete endpoints
type EditionResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	EditionID *int64 `json:"edition_id,omitempty"`
}

// APIResponse is the JSON body of read endpoints
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// EditionSuccess writes {success:true, message, edition_id}
func EditionSuccess(c *gin.Context, message string, editionID int64) {
	c.JSON(http.StatusOK, EditionResult{Success: true, Message: message, EditionID: &editionID})
}

// EditionFailure writes {success:false, message} with a status derived from the stage.
// Only the client-safe reason is exposed.
func EditionFailure(c *gin.Context, err error) {
	c.JSON(StatusForStage(StageOf(err)), EditionResult{Success: false, Message: ReasonOf(err)})
}

// SuccessResponse returns a successful JSON response
func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// ErrorResponse returns an error JSON response
func ErrorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error: &ErrorInfo{
			Code:    getErrorCode(status),
			Message: message,
		},
	})
}

// StatusForStage maps a failure stage to an HTTP status
func StatusForStage(stage Stage) int {
	switch stage {
	case StageValidation:
		return http.StatusBadRequest
	case StageNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// getErrorCode generates error code from HTTP status
func getErrorCode(status int) string {
	switch status {
	case 400:
		return "BAD_REQUEST"
	case 401:
		return "UNAUTHORIZED"
	case 403:
		return "FORBIDDEN"
	case 404:
		return "NOT_FOUND"
	case 409:
		return "CONFLICT"
	case 500:
		return "INTERNAL_SERVER_ERROR"
	case 503:
		return "SERVICE_UNAVAILABLE"
	default:
		return "ERROR"
	}
}
