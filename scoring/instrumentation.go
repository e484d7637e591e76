package scoring

import (
	"go.opentelemetry.io/otel"
)

const scopeName = "github.com/RyanBlaney/sonido-band/scoring"

var tracer = otel.Tracer(scopeName)
