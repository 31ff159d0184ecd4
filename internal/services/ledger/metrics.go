package ledger

import "github.com/shopspring/decimal"

// MetricsCollector receives mutation outcomes. Wire a real collector in
// production; the constructor falls back to a no-op when given nil.
type MetricsCollector interface {
	RecordMutation(op string, attempts int)
	RecordAmount(entryType string, amount decimal.Decimal)
	RecordError(op, errType string)
}

type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordMutation(string, int)           {}
func (NoopMetricsCollector) RecordAmount(string, decimal.Decimal) {}
func (NoopMetricsCollector) RecordError(string, string)           {}
