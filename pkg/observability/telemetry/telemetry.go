// Package telemetry wraps service operations with a span, operation metrics,
// structured logs and panic recovery.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/medusa-ctf/medusa-backend/pkg/observability/attr"
	"github.com/medusa-ctf/medusa-backend/pkg/observability/metrics"
	"github.com/medusa-ctf/medusa-backend/pkg/results"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Instrument names the owning service and carries its observability handles.
// Any handle may be nil.
type Instrument struct {
	Service string
	Logger  *slog.Logger
	Metrics metrics.OperationMetrics
	Tracer  trace.Tracer
}

// OperationFunc is the generic signature for service operation functions.
type OperationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

func (in Instrument) logger() *slog.Logger {
	if in.Logger == nil {
		return slog.Default()
	}
	return in.Logger
}

// Run executes op. Infrastructure errors are wrapped with the operation name;
// domain failures are logged at warn level and returned untouched.
func Run[S any, F any](
	ctx context.Context,
	in Instrument,
	operationName string,
	identifier string,
	op OperationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	logger := in.logger()

	var span trace.Span
	if in.Tracer != nil {
		ctx, span = in.Tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("service", in.Service),
			attribute.String("identifier", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	if in.Metrics != nil {
		in.Metrics.RecordOperationAttempt(ctx, operationName, in.Service)
	}

	startTime := time.Now()
	defer func() {
		if in.Metrics != nil {
			in.Metrics.RecordOperationDuration(ctx, operationName, in.Service, time.Since(startTime))
		}
	}()

	logger.DebugContext(ctx, "Operation triggered", attr.ExtractCorrelationID(ctx), attr.String("operation", operationName))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.String("identifier", identifier),
				attr.Error(err),
			)
			if in.Metrics != nil {
				in.Metrics.RecordOperationFailure(ctx, operationName, in.Service)
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "panic")
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Error(wrappedErr),
		)
		if in.Metrics != nil {
			in.Metrics.RecordOperationFailure(ctx, operationName, in.Service)
		}
		span.RecordError(wrappedErr)
		span.SetStatus(codes.Error, operationName)
		return result, wrappedErr
	}

	if result.IsFailure() {
		logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Any("failure_payload", *result.Failure),
		)
	}

	if result.IsSuccess() {
		logger.InfoContext(ctx, "Operation completed successfully",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
		)
	}

	if in.Metrics != nil {
		in.Metrics.RecordOperationSuccess(ctx, operationName, in.Service)
	}

	return result, nil
}
