package tracing

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributes_DropsContactData(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/api/v1/clients"),
		attribute.String("client.email", "a@b.c"),
		attribute.String("bank.account_number", "123"),
	)
	if assert.Len(t, attrs, 1) {
		assert.Equal(t, "http.route", string(attrs[0].Key))
	}
}

func TestSafeError(t *testing.T) {
	assert.Nil(t, SafeError(nil))
	assert.Nil(t, SafeError(errors.New("  ")))

	long := errors.New(strings.Repeat("x", 400))
	assert.Len(t, SafeError(long).Error(), 256)
}
