package mpesa

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TransactionType identifies which Daraja flow produced a normalized payment.
type TransactionType string

const (
	TransactionTypeC2B               TransactionType = "c2b"
	TransactionTypeSTKPush           TransactionType = "stkpush"
	TransactionTypeB2C               TransactionType = "b2c"
	TransactionTypeB2B               TransactionType = "b2b"
	TransactionTypeReversal          TransactionType = "reversal"
	TransactionTypeBalance           TransactionType = "balance"
	TransactionTypeTransactionStatus TransactionType = "transactionStatus"
)

// PaymentStatus is the canonical outcome of a callback.
type PaymentStatus string

const (
	StatusSuccess PaymentStatus = "success"
	StatusFailed  PaymentStatus = "failed"
)

// NormalizedPayment is the canonical record every callback shape is reduced
// to. Every field always carries a value: missing source data degrades to a
// default, never to an error, so the delivery can always be acknowledged.
type NormalizedPayment struct {
	TransactionID     string          `json:"transactionId"`
	TransactionType   TransactionType `json:"transactionType"`
	Amount            float64         `json:"amount"`
	Status            PaymentStatus   `json:"status"`
	ResultCode        int             `json:"resultCode"`
	ResultDescription string          `json:"resultDescription"`
	PhoneNumber       string          `json:"phoneNumber,omitempty"`
	AccountReference  string          `json:"accountReference,omitempty"`
	Timestamp         time.Time       `json:"timestamp"`
	RawPayload        Envelope        `json:"rawPayload"`
}

// Envelope is a raw callback body exactly as delivered by the API. It is
// never mutated; the normalizer only reads from it.
type Envelope map[string]interface{}

// RequestDescriptor is an outbound Daraja request ready for the transport:
// the method is always POST in this protocol.
type RequestDescriptor struct {
	Method string                 `json:"method"`
	Path   string                 `json:"path"`
	Body   map[string]interface{} `json:"body"`
}

// Params holds the named inputs for one operation invocation. Values arrive
// as strings, JSON numbers or small enum codes.
type Params map[string]interface{}

// Has reports whether a parameter is present and non-empty.
func (p Params) Has(name string) bool {
	v, ok := p[name]
	if !ok || v == nil {
		return false
	}
	if s, isString := v.(string); isString {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// String returns the parameter rendered as a trimmed string, or "" when
// absent.
func (p Params) String(name string) string {
	switch v := p[name].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Decimal renders a numeric parameter as the decimal string the API
// expects for amounts and offsets (never a native JSON number).
func (p Params) Decimal(name string) string {
	switch v := p[name].(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case string:
		return strings.TrimSpace(v)
	default:
		return "0"
	}
}
