package reporting

import (
	"time"
)

// Dispatch outcomes.
const (
	StatusSuccess = "SUCCESS"
	StatusFailure = "FAILURE"
)

// Entry records one request sent through the dispatcher.
type Entry struct {
	Timestamp    time.Time
	TraceID      string
	OrderID      string
	Instrument   string
	Operation    string
	Status       string // StatusSuccess or StatusFailure
	StatusCode   int    // gateway HTTP status, 0 when none was received
	Amount       int64
	Currency     string
	ErrorCode    string
	ErrorMessage string
	Duration     time.Duration
}

// RetrospectiveReport summarizes a set of journal entries.
type RetrospectiveReport struct {
	TotalRequests        int
	SuccessfulRequests   int
	FailedRequests       int
	TotalAmountProcessed int64            // successful entries only
	AmountByCurrency     map[string]int64 // successful entries only
	ErrorBreakdown       map[string]int
	StatusCodeBreakdown  map[int]int
	InstrumentUsage      map[string]int
	OperationUsage       map[string]int
	DateFrom             time.Time
	DateTo               time.Time
	ProcessingDuration   time.Duration
}

// RetrospectiveReporter generates retrospective reports from journal entries.
type RetrospectiveReporter struct{}

func NewRetrospectiveReporter() *RetrospectiveReporter {
	return &RetrospectiveReporter{}
}

// GenerateRetrospective analyzes entries in any order.
func (rr *RetrospectiveReporter) GenerateRetrospective(entries []Entry) (*RetrospectiveReport, error) {
	report := &RetrospectiveReport{
		AmountByCurrency:    make(map[string]int64),
		ErrorBreakdown:      make(map[string]int),
		StatusCodeBreakdown: make(map[int]int),
		InstrumentUsage:     make(map[string]int),
		OperationUsage:      make(map[string]int),
	}

	for i, e := range entries {
		report.TotalRequests++

		if i == 0 || e.Timestamp.Before(report.DateFrom) {
			report.DateFrom = e.Timestamp
		}
		if i == 0 || e.Timestamp.After(report.DateTo) {
			report.DateTo = e.Timestamp
		}

		if e.Instrument != "" {
			report.InstrumentUsage[e.Instrument]++
		}
		if e.Operation != "" {
			report.OperationUsage[e.Operation]++
		}
		if e.StatusCode != 0 {
			report.StatusCodeBreakdown[e.StatusCode]++
		}

		switch e.Status {
		case StatusSuccess:
			report.SuccessfulRequests++
			report.TotalAmountProcessed += e.Amount
			if e.Currency != "" {
				report.AmountByCurrency[e.Currency] += e.Amount
			}
		case StatusFailure:
			report.FailedRequests++
			if e.ErrorCode != "" {
				report.ErrorBreakdown[e.ErrorCode]++
			}
		}
	}

	report.ProcessingDuration = report.DateTo.Sub(report.DateFrom)
	return report, nil
}
