package otel

import (
	"go.opentelemetry.io/otel/attribute"
)

const (
	AttrGroupID      = attribute.Key("load.group.id")
	AttrBatchOutcome = attribute.Key("load.batch.outcome")
	AttrReaderID     = attribute.Key("load.reader.id")
)

// Batch outcome values
const (
	OutcomeFinished  = "finished"
	OutcomeCancelled = "cancelled"
	OutcomeFailed    = "failed"
)
