package domain

import (
	"bytes"
	"encoding/json"
)

type ProjectDetail struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type BankSnapshot struct {
	AccountName   string `json:"accountName,omitempty"`
	AccountNumber string `json:"accountNumber,omitempty"`
	BankName      string `json:"bankName,omitempty"`
	IBAN          string `json:"iban,omitempty"`
	SWIFT         string `json:"swift,omitempty"`
}

// Auxiliary carries the editor fields that have no invoice column. Keys this
// version does not know about are kept in Extra and written back unchanged.
type Auxiliary struct {
	DeveloperName  string          `json:"developerName,omitempty"`
	LogoRef        string          `json:"logoRef,omitempty"`
	QRRef          string          `json:"qrRef,omitempty"`
	ProjectDetails []ProjectDetail `json:"projectDetails,omitempty"`
	Bank           *BankSnapshot   `json:"bank,omitempty"`
	PaymentNote    string          `json:"paymentNote,omitempty"`
	Text           string          `json:"text,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var auxiliaryKeys = map[string]struct{}{
	"developerName":  {},
	"logoRef":        {},
	"qrRef":          {},
	"projectDetails": {},
	"bank":           {},
	"paymentNote":    {},
	"text":           {},
}

type auxiliaryFields Auxiliary

func (a Auxiliary) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(auxiliaryFields(a))
	if err != nil {
		return nil, err
	}
	if len(a.Extra) == 0 {
		return known, nil
	}

	merged := make(map[string]json.RawMessage, len(a.Extra)+len(auxiliaryKeys))
	for k, v := range a.Extra {
		merged[k] = v
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

func (a *Auxiliary) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*a = Auxiliary{}
		return nil
	}
	// Plain string notes are kept as free text.
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*a = Auxiliary{Text: text}
		return nil
	}

	var fields auxiliaryFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*a = Auxiliary(fields)
	a.Extra = nil
	for k, v := range raw {
		if _, ok := auxiliaryKeys[k]; ok {
			continue
		}
		if a.Extra == nil {
			a.Extra = make(map[string]json.RawMessage)
		}
		a.Extra[k] = v
	}
	return nil
}

// Empty reports whether nothing would be written for this record.
func (a Auxiliary) Empty() bool {
	return a.DeveloperName == "" &&
		a.LogoRef == "" &&
		a.QRRef == "" &&
		len(a.ProjectDetails) == 0 &&
		a.Bank == nil &&
		a.PaymentNote == "" &&
		a.Text == "" &&
		len(a.Extra) == 0
}

func (a Auxiliary) Clone() Auxiliary {
	out := a
	if a.ProjectDetails != nil {
		out.ProjectDetails = append([]ProjectDetail(nil), a.ProjectDetails...)
	}
	if a.Bank != nil {
		bank := *a.Bank
		out.Bank = &bank
	}
	if a.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(a.Extra))
		for k, v := range a.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}
