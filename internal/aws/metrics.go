package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Metric names emitted by the storefront.
const (
	MetricOrdersPlaced    = "OrdersPlaced"
	MetricPaymentFailed   = "PaymentFailed"
	MetricPaymentOrphaned = "PaymentOrphaned"
	MetricEmailsSent      = "OrderEmailsSent"
	MetricEmailsFailed    = "OrderEmailsFailed"
)

// Metrics publishes counters to CloudWatch under a single namespace.
// A nil *Metrics is a no-op emitter.
type Metrics struct {
	client    CloudWatchAPI
	namespace string
}

// NewMetrics returns a Metrics emitter bound to a namespace (e.g. "Storefront").
func NewMetrics(client CloudWatchAPI, namespace string) *Metrics {
	return &Metrics{client: client, namespace: namespace}
}

// Count emits a single count datapoint. Errors are returned for the caller
// to log; metric emission must never fail a request.
func (m *Metrics) Count(ctx context.Context, name string, value float64, dims map[string]string) error {
	if m == nil || m.client == nil {
		return nil
	}
	datum := cwtypes.MetricDatum{
		MetricName: &name,
		Value:      &value,
		Unit:       cwtypes.StandardUnitCount,
	}
	for k, v := range dims {
		key, val := k, v
		datum.Dimensions = append(datum.Dimensions, cwtypes.Dimension{Name: &key, Value: &val})
	}
	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  &m.namespace,
		MetricData: []cwtypes.MetricDatum{datum},
	})
	if err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}
