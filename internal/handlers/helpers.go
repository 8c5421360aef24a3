package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/classifieds-api/internal/constants"
	"github.com/yukikurage/classifieds-api/internal/middleware"
)

// requestFields are the log fields identifying the current request
func requestFields(c *gin.Context) map[string]interface{} {
	fields := map[string]interface{}{}
	if c.Request != nil {
		fields["method"] = c.Request.Method
		fields["path"] = c.Request.URL.Path
	}
	if requestID := c.GetString(constants.ContextKeyRequestID); requestID != "" {
		fields["request_id"] = requestID
	}
	if userID, ok := middleware.GetUserID(c); ok {
		fields["user_id"] = userID
	}
	return fields
}

func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
