package httptransport

import (
	"net/http"

	"github.com/Blindtools/Api/internal/domain/envelope"

	"github.com/gin-gonic/gin"
)

// RespondSuccess writes the uniform success envelope.
func RespondSuccess(c *gin.Context, payload envelope.Fields) {
	c.JSON(http.StatusOK, envelope.Success(payload))
}

// RespondError converts any error into the uniform failure envelope
// with its mapped HTTP status.
func RespondError(c *gin.Context, err error) {
	status, desc := envelope.FromError(err)
	c.JSON(status, envelope.Failure(desc))
}
