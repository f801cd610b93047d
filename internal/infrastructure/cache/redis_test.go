package cache

import (
	"context"
	"testing"

	"taxdesk-backend/internal/domain"
	"taxdesk-backend/internal/logger"
)

func TestCatalogDisabled(t *testing.T) {
	c := NewCatalog(nil, 0, logger.Nop())
	ctx := context.Background()
	c.StorePackages(ctx, []domain.Package{{ID: "p1"}})
	if _, ok := c.Packages(ctx); ok {
		t.Fatalf("disabled cache must miss")
	}
	c.Invalidate(ctx)

	var nilCatalog *Catalog
	if _, ok := nilCatalog.Packages(ctx); ok {
		t.Fatalf("nil cache must miss")
	}
}
