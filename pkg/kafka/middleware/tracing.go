package kafka_middleware

import (
	"context"

	"campusres/pkg/kafka"
	"campusres/pkg/obs"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TracingProducerMiddleware records a producer span and writes its context
// into the message headers so the consumer can continue the trace.
func TracingProducerMiddleware() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) (err error) {
		ctx, span := obs.Tracer().Start(ctx, "kafka.publish "+msg.Topic,
			trace.WithSpanKind(trace.SpanKindProducer),
			trace.WithAttributes(messageAttributes(msg)...),
		)
		defer func() { obs.End(span, err) }()

		headers := make(map[string]string, len(msg.Headers)+2)
		for k, v := range msg.Headers {
			headers[k] = v
		}
		otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(headers))
		msg.Headers = headers

		return next(ctx, msg)
	}
}

// TracingConsumerMiddleware continues the trace carried in the message headers.
func TracingConsumerMiddleware() kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) (err error) {
		ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(msg.Headers))
		ctx, span := obs.Tracer().Start(ctx, "kafka.process "+msg.Topic,
			trace.WithSpanKind(trace.SpanKindConsumer),
			trace.WithAttributes(messageAttributes(msg)...),
		)
		span.SetAttributes(attribute.Int("messaging.kafka.retry_count", msg.GetRetryCount()))
		defer func() { obs.End(span, err) }()

		return next(ctx, msg)
	}
}

func messageAttributes(msg kafka.Message) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("messaging.system", "kafka"),
		attribute.String("messaging.destination.name", msg.Topic),
		attribute.String("messaging.message.id", msg.GetEventID()),
		attribute.String("messaging.kafka.message.key", msg.Key),
	}
}
