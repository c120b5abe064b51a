package api

// Write rate limits per client IP.
const (
	writeRequestsPerSecond = 2
	writeBurst             = 20
)

// partialWarning is sent in the Warning header when a view was built from
// a reduced result set.
const partialWarning = `199 trustwave "partial data: some records could not be fetched"`
