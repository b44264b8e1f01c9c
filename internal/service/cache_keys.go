package service

import (
	"time"

	"github.com/google/uuid"
)

const (
	userCacheTTL        = 5 * time.Minute
	productListCacheKey = "products:all"
	productListCacheTTL = time.Minute
)

func userCacheKey(id uuid.UUID) string {
	return "user:" + id.String()
}
