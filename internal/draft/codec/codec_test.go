package codec

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/flowdesk/internal/draft/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDoc() domain.Document {
	doc := domain.NewDocument()
	doc.ClientID = "c1"
	doc.LineItems = []domain.LineItem{{Description: "Design", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(500)}}
	doc.Notes.ProjectDetails = []domain.ProjectDetail{{Key: "Sprint", Value: "12"}}
	return doc
}

func TestCodec_CompressedAndPlain(t *testing.T) {
	for _, compress := range []bool{false, true} {
		c := Codec{Compress: compress}
		data, err := c.Encode(sampleDoc())
		require.NoError(t, err)

		got, err := c.Decode(data)
		require.NoError(t, err)
		assert.Equal(t, "c1", got.ClientID)
		assert.True(t, got.LineItems[0].UnitPrice.Equal(decimal.NewFromInt(500)))
	}
}

func TestCodec_ReadsPlainWhenCompressing(t *testing.T) {
	data, err := Codec{}.Encode(sampleDoc())
	require.NoError(t, err)

	got, err := Codec{Compress: true}.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "c1", got.ClientID)
}

func TestCodec_Corrupt(t *testing.T) {
	cases := map[string][]byte{
		"empty":          {},
		"truncated json": []byte(`{"clientId":"c1"`),
		"bad snappy":     {0xff, 0x01, 0x02},
		"unknown status": []byte(`{"status":"Archived"}`),
		"wrong shape":    []byte(`[1,2,3]`),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Codec{}.Decode(data)
			assert.ErrorIs(t, err, domain.ErrDraftCorrupt)
		})
	}
}

func TestCodec_DefaultsMissingStatus(t *testing.T) {
	got, err := Codec{}.Decode([]byte(`{"clientId":""}`))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, got.Status)
}
