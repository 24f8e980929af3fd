// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// Checkpoint folds the WAL back into the main database file and truncates
// it. busy reports whether readers prevented a complete checkpoint.
func Checkpoint(ctx context.Context, db *sql.DB) (busy bool, err error) {
	var b, logFrames, checkpointed int
	if err := db.QueryRowContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)").Scan(&b, &logFrames, &checkpointed); err != nil {
		return false, fmt.Errorf("wal checkpoint: %w", err)
	}
	return b != 0, nil
}
