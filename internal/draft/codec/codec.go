// Package codec serializes drafts for the recoverable slot.
package codec

import (
	"encoding/json"
	"fmt"

	"github.com/golang/snappy"
	"github.com/smallbiznis/flowdesk/internal/draft/domain"
)

// snappyMarker prefixes compressed payloads. No JSON document starts with it,
// so a slot written before compression was switched on still decodes.
const snappyMarker byte = 0xff

type Codec struct {
	Compress bool
}

func (c Codec) Encode(doc domain.Document) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	if !c.Compress {
		return raw, nil
	}
	out := make([]byte, 1, 1+snappy.MaxEncodedLen(len(raw)))
	out[0] = snappyMarker
	return append(out, snappy.Encode(nil, raw)...), nil
}

// Decode returns domain.ErrDraftCorrupt for anything that is not a draft.
func (c Codec) Decode(data []byte) (domain.Document, error) {
	if len(data) == 0 {
		return domain.Document{}, fmt.Errorf("%w: empty payload", domain.ErrDraftCorrupt)
	}
	if data[0] == snappyMarker {
		raw, err := snappy.Decode(nil, data[1:])
		if err != nil {
			return domain.Document{}, fmt.Errorf("%w: %v", domain.ErrDraftCorrupt, err)
		}
		data = raw
	}

	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Document{}, fmt.Errorf("%w: %v", domain.ErrDraftCorrupt, err)
	}
	if doc.Status == "" {
		doc.Status = domain.StatusDraft
	}
	if !doc.Status.Valid() {
		return domain.Document{}, fmt.Errorf("%w: unknown status %q", domain.ErrDraftCorrupt, doc.Status)
	}
	return doc, nil
}
