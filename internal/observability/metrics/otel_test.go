package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestFilterAttributes(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("status", "Paid"),
		attribute.String("client_id", "1001"),
		attribute.String("currency", "EUR"),
	)
	require.Len(t, attrs, 2)
	assert.Equal(t, attribute.Key("status"), attrs[0].Key)
	assert.Equal(t, attribute.Key("currency"), attrs[1].Key)
}

func TestMetrics_RecordInvoiceCreated(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := New(OTelConfig{ServiceName: "flowdesk-test"}, provider)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordInvoiceCreated(ctx, "Draft", "usd")
	m.RecordInvoiceCreated(ctx, "Draft", "USD")
	m.RecordOverdueMarked(ctx, 0)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	var created *metricdata.Sum[int64]
	for _, metric := range rm.ScopeMetrics[0].Metrics {
		if metric.Name == "flowdesk_invoices_created_total" {
			sum := metric.Data.(metricdata.Sum[int64])
			created = &sum
		}
	}
	require.NotNil(t, created)
	require.Len(t, created.DataPoints, 1)
	assert.Equal(t, int64(2), created.DataPoints[0].Value)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.RecordInvoiceCreated(context.Background(), "Draft", "USD")
	m.RecordStatusChange(context.Background(), "Sent", "Paid")
	m.RecordOverdueMarked(context.Background(), 3)
}
