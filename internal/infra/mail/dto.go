package mail

import "time"

type SummaryEmailData struct {
	Campaign      string
	Filename      string
	TotalRows     int
	NewRows       int
	DuplicateRows int
	InvalidRows   int
	OccurredAt    time.Time
}

type SummarySender struct {
	From       string
	Recipients []string
	Dialer     Dialer
}
