package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"rollcall/internal/errs"
)

// abortWithError maps the protocol error taxonomy onto HTTP statuses. The
// body always carries a human-readable reason; the check-in path must never
// fail silently.
func abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errs.IsValidation(err):
		status = http.StatusBadRequest
	case errs.IsAuthorization(err):
		status = http.StatusForbidden
	case errs.IsNotFound(err):
		status = http.StatusNotFound
	case errs.IsConflict(err):
		status = http.StatusConflict
	case errs.IsTransient(err):
		status = http.StatusServiceUnavailable
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
