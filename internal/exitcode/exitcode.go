package exitcode

const (
	Success         = 0
	UsageError      = 1
	ValidationError = 2 // bad config, no search criteria, missing required filter
	DBConnError     = 3
	IngestError     = 4
	QueryError      = 5
	PartialSuccess  = 6 // ingest finished but some documents failed
)
