package ingest

import (
	"context"
	"database/sql"
	"errors"
)

const selectNextIndex = `
SELECT next_volume_index
FROM trailer
ORDER BY next_volume_index DESC
LIMIT 1`

// NextIndex returns the index of the next file expected to be processed.
//
// Files are named {product}_{bundle_type}_{issue_date}_{index}.csv, for
// example AddressBasePremium_FULL_2020-06-06_001.csv. An empty trailer table
// means nothing was ingested yet and yields (1, true). The last trailer of a
// complete set carries 0, reported as (0, false).
func NextIndex(ctx context.Context, q Queryer) (uint32, bool, error) {
	var value int64
	err := q.QueryRowContext(ctx, selectNextIndex).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 1, true, nil
	case err != nil:
		return 0, false, classifyStoreErr("failed to read trailer", err)
	case value < 0:
		return 0, false, newError(ErrParse, "trailer next_volume_index %d is negative", value)
	case value == 0:
		return 0, false, nil
	}
	return uint32(value), true, nil
}
