package driven

import (
	"context"
	"encoding/json"
)

// CompoundFetcher retrieves raw compound records from the upstream
// chemical database by external identifier.
//
// Implementations own retry and throttling policy: 5xx and 429
// responses are retried with capped exponential backoff, 404 maps to
// domain.ErrNotFound and 400 is terminal. The returned payload is raw
// parsed-JSON handed to the normaliser untouched.
type CompoundFetcher interface {
	// Fetch returns the raw upstream record for a CID.
	Fetch(ctx context.Context, cid int64) (json.RawMessage, error)
}
