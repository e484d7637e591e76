package batch

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/RyanBlaney/sonido-band/batch"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
)

// rowCounter counts processed rows by outcome. Nil when the instrument
// could not be created.
var rowCounter, _ = meter.Int64Counter("sonido_band.batch.rows",
	metric.WithDescription("Manifest rows processed, by outcome"),
	metric.WithUnit("{row}"),
)
