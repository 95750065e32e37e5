package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	appErrors "github.com/mnemo-app/mnemo-api/pkg/errors"
)

const dateLayout = "2006-01-02"

// idParam parses a path parameter as a positive int64 id.
func idParam(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid "+name+": "+raw)
	}
	return id, nil
}

// idQuery parses an optional int64 query parameter. Returns nil when absent.
func idQuery(c *gin.Context, name string) (*int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid "+name+": "+raw)
	}
	return &id, nil
}

// dateQuery parses an optional YYYY-MM-DD query parameter.
func dateQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid "+name+", expected YYYY-MM-DD")
	}
	return &parsed, nil
}
