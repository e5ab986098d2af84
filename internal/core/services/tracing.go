package services

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/custodia-labs/inboxwatch/internal/core/services"

// Span attribute keys. Never attach token or grant values.
const (
	attrUserID       = "oauth.user_id"
	attrScope        = "oauth.scope"
	attrIdentityMode = "oauth.identity_mode"
	attrTopic        = "gmail.watch.topic"
	attrAlreadyWatch = "gmail.watch.already_active"
)

func tracerFrom(tp trace.TracerProvider) trace.Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(tracerName)
}

// recordError marks span as failed with err.
func recordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
