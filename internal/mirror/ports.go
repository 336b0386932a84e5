package mirror

import (
	"context"

	"finanzas/internal/core"
)

// EntryWriter mirrors ledger transactions to an external sheet.
type EntryWriter interface {
	Append(ctx context.Context, t core.Transaction) (rowRef string, err error)
}
