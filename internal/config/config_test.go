package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FLOWDESK_DATA_DIR", "/tmp/flowdesk-test")
	t.Setenv("DRAFT_BACKEND", "")

	cfg := Load()

	assert.Equal(t, "sqlite", cfg.DBType)
	assert.Equal(t, "/tmp/flowdesk-test/flowdesk.db", cfg.DBPath)
	assert.Equal(t, DraftBackendFile, cfg.Draft.Backend)
	assert.Equal(t, "/tmp/flowdesk-test/invoice-draft.json", cfg.Draft.Path)
	assert.Equal(t, time.Second, cfg.Draft.Debounce)
	assert.Equal(t, "/tmp/flowdesk-test/pdfs", cfg.Export.Dir)
}

func TestLoad_DraftBackendOverrides(t *testing.T) {
	t.Setenv("DRAFT_BACKEND", " Redis ")
	t.Setenv("DRAFT_COMPRESS", "yes")
	t.Setenv("DRAFT_AUTOSAVE_DEBOUNCE", "not-a-duration")

	cfg := Load()

	assert.Equal(t, DraftBackendRedis, cfg.Draft.Backend)
	assert.True(t, cfg.Draft.Compress)
	assert.Equal(t, time.Second, cfg.Draft.Debounce)
}

func TestValidateInvoicingConfig(t *testing.T) {
	assert.NoError(t, validateInvoicingConfig(DefaultInvoicingConfig()))

	cfg := DefaultInvoicingConfig()
	cfg.NumberPrefix = " "
	assert.Error(t, validateInvoicingConfig(cfg))

	cfg = DefaultInvoicingConfig()
	cfg.PaymentTermsDays = -1
	assert.Error(t, validateInvoicingConfig(cfg))
}
