package otel

import (
	"go.opentelemetry.io/otel"

	"github.com/amorlias/storefront/internal/constants"
)

var Tracer = otel.Tracer(constants.AppName)
