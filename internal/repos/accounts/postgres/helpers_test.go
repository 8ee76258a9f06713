package accounts

import (
	"database/sql"
	"testing"

	"github.com/fastprodman/cashcow/internal/infra/pgtestutil"
)

func upsert(t *testing.T, db *sql.DB, id string, bal int64) {
	t.Helper()
	pgtestutil.SeedAccount(t, db, id, bal)
}
