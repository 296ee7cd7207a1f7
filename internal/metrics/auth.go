package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AuthMetrics records authentication, entitlement and rate-limit decisions.
// Labels identify the decision, never the subject: no emails, user IDs or
// token material end up in the metric stream.
type AuthMetrics interface {
	// RecordAuthDecision records one auth token verification.
	// Format is "current" or "legacy"; status is "success" or "failure".
	RecordAuthDecision(ctx context.Context, format, status string)

	// RecordProDecision records one entitlement evaluation.
	// Outcome is "granted" or "denied".
	RecordProDecision(ctx context.Context, outcome string)

	// RecordRateLimitDecision records one limiter decision.
	// Outcome is "allowed", "denied" or "error".
	RecordRateLimitDecision(ctx context.Context, endpoint, outcome string)
}

type authMetrics struct {
	authCounter      metric.Int64Counter
	proCounter       metric.Int64Counter
	rateLimitCounter metric.Int64Counter
}

// NewAuthMetrics creates an AuthMetrics implementation on the provided meter provider.
func NewAuthMetrics(meterProvider metric.MeterProvider, namespace string) (AuthMetrics, error) {
	meter := meterProvider.Meter(namespace)

	authCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_auth_decisions_total", namespace),
		metric.WithDescription("Total number of auth token verification decisions"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth counter: %w", err)
	}

	proCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_pro_decisions_total", namespace),
		metric.WithDescription("Total number of entitlement evaluation decisions"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pro counter: %w", err)
	}

	rateLimitCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_rate_limit_decisions_total", namespace),
		metric.WithDescription("Total number of rate limiter decisions"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit counter: %w", err)
	}

	return &authMetrics{
		authCounter:      authCounter,
		proCounter:       proCounter,
		rateLimitCounter: rateLimitCounter,
	}, nil
}

func (a *authMetrics) RecordAuthDecision(ctx context.Context, format, status string) {
	a.authCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("format", format),
			attribute.String("status", status),
		),
	)
}

func (a *authMetrics) RecordProDecision(ctx context.Context, outcome string) {
	a.proCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("outcome", outcome),
		),
	)
}

func (a *authMetrics) RecordRateLimitDecision(ctx context.Context, endpoint, outcome string) {
	a.rateLimitCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("endpoint", endpoint),
			attribute.String("outcome", outcome),
		),
	)
}
