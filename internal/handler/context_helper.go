package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/study-sprint-api/internal/middleware"
	appErrors "github.com/noah-isme/study-sprint-api/pkg/errors"
)

func currentUserID(c *gin.Context) (string, bool) {
	user := middleware.CurrentUser(c)
	if user == nil {
		return "", false
	}
	return user.ID, true
}

// parseIDList reads a comma separated list of positive integer ids.
func parseIDList(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "ids must be positive integers")
		}
		ids = append(ids, id)
	}
	return ids, nil
}
