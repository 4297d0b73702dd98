package mpesa

import (
	"fmt"
	"strconv"
	"time"
)

// EventKind selects which callback decoder handles an inbound webhook body.
// Several Daraja callback shapes are flat and not self-distinguishing, so
// the kind is configured per registered callback URL, never inferred from
// the payload.
type EventKind string

const (
	EventPaymentReceived            EventKind = "payment.received"
	EventSTKPushCompleted           EventKind = "stkpush.completed"
	EventB2CCompleted               EventKind = "b2c.completed"
	EventB2BCompleted               EventKind = "b2b.completed"
	EventReversalCompleted          EventKind = "reversal.completed"
	EventBalanceCompleted           EventKind = "balance.completed"
	EventTransactionStatusCompleted EventKind = "transaction.status.completed"
)

// EventKinds lists every supported callback kind.
func EventKinds() []EventKind {
	return []EventKind{
		EventPaymentReceived,
		EventSTKPushCompleted,
		EventB2CCompleted,
		EventB2BCompleted,
		EventReversalCompleted,
		EventBalanceCompleted,
		EventTransactionStatusCompleted,
	}
}

// ParseEventKind validates an event kind against the closed set. Unlisted
// kinds are rejected at configuration time.
func ParseEventKind(s string) (EventKind, error) {
	for _, kind := range EventKinds() {
		if EventKind(s) == kind {
			return kind, nil
		}
	}
	return "", fmt.Errorf("mpesa: unknown event kind %q", s)
}

// Normalize reduces a raw callback body to the canonical record for the
// configured event kind. It never fails: malformed or missing structure
// degrades to documented defaults so the delivery can always be
// acknowledged. The clock is injected for the timestamp fallback.
func Normalize(event EventKind, body Envelope, now func() time.Time) NormalizedPayment {
	if body == nil {
		body = Envelope{}
	}
	switch event {
	case EventPaymentReceived:
		return normalizeC2BPayment(body, now)
	case EventSTKPushCompleted:
		return normalizeSTKPush(body, now)
	case EventB2CCompleted:
		return normalizeB2CResult(body, now)
	case EventB2BCompleted:
		return normalizeB2BResult(body, now)
	case EventReversalCompleted:
		return normalizeReversalResult(body, now)
	case EventBalanceCompleted:
		return normalizeAccountBalance(body, now)
	case EventTransactionStatusCompleted:
		return normalizeTransactionStatus(body, now)
	default:
		return NormalizedPayment{
			TransactionID:     "unknown",
			TransactionType:   TransactionTypeC2B,
			Status:            StatusSuccess,
			ResultDescription: "Unknown event type",
			Timestamp:         now(),
			RawPayload:        body,
		}
	}
}

// nested returns m[key] as an object, or an empty one when absent or of the
// wrong shape.
func nested(m map[string]interface{}, key string) map[string]interface{} {
	if v, ok := m[key].(map[string]interface{}); ok {
		return v
	}
	return map[string]interface{}{}
}

// foldPairs flattens the API's array-of-pairs encoding into a lookup map.
// Later entries with a duplicate key overwrite earlier ones; anything that
// is not an array of objects folds to an empty map.
func foldPairs(items interface{}, keyField string) map[string]interface{} {
	folded := make(map[string]interface{})
	list, ok := items.([]interface{})
	if !ok {
		return folded
	}
	for _, item := range list {
		pair, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		key, ok := pair[keyField].(string)
		if !ok || key == "" {
			continue
		}
		folded[key] = pair["Value"]
	}
	return folded
}

// stringValue tries each key in order and returns the first non-empty value
// rendered as a string. Numeric values (e.g. a phone number delivered as a
// JSON number) are formatted without an exponent.
func stringValue(m map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		switch v := m[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// floatValue tries each key in order and returns the first nonzero numeric
// value, coercing numeric strings. Absence resolves to 0.
func floatValue(m map[string]interface{}, keys ...string) float64 {
	for _, key := range keys {
		switch v := m[key].(type) {
		case float64:
			if v != 0 {
				return v
			}
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil && f != 0 {
				return f
			}
		}
	}
	return 0
}

// intValue reads a result code, tolerating numeric strings. Absence
// resolves to 0.
func intValue(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}

func statusFromCode(code int) PaymentStatus {
	if code == 0 {
		return StatusSuccess
	}
	return StatusFailed
}

// normalizeC2BPayment decodes the flat C2B confirmation callback. This
// callback kind has no failure variant, so it always reports success.
func normalizeC2BPayment(body Envelope, now func() time.Time) NormalizedPayment {
	return NormalizedPayment{
		TransactionID:     stringValue(body, "TransID"),
		TransactionType:   TransactionTypeC2B,
		Amount:            floatValue(body, "TransAmount"),
		Status:            StatusSuccess,
		ResultCode:        0,
		ResultDescription: "Payment received",
		PhoneNumber:       stringValue(body, "MSISDN"),
		AccountReference:  stringValue(body, "BillRefNumber"),
		Timestamp:         ParseTimestamp(stringValue(body, "TransTime"), now),
		RawPayload:        body,
	}
}

// normalizeSTKPush decodes the Lipa na M-Pesa result: a two-level wrapper
// around a result code and {Name, Value} metadata items. The receipt number
// is preferred as the transaction id, falling back to the checkout request
// id when the payment never completed.
func normalizeSTKPush(body Envelope, now func() time.Time) NormalizedPayment {
	callback := nested(nested(body, "Body"), "stkCallback")
	code := intValue(callback, "ResultCode")
	metadata := foldPairs(nested(callback, "CallbackMetadata")["Item"], "Name")

	transactionID := stringValue(metadata, "MpesaReceiptNumber")
	if transactionID == "" {
		transactionID = stringValue(callback, "CheckoutRequestID")
	}

	return NormalizedPayment{
		TransactionID:     transactionID,
		TransactionType:   TransactionTypeSTKPush,
		Amount:            floatValue(metadata, "Amount"),
		Status:            statusFromCode(code),
		ResultCode:        code,
		ResultDescription: stringValue(callback, "ResultDesc"),
		PhoneNumber:       stringValue(metadata, "PhoneNumber"),
		Timestamp:         now(),
		RawPayload:        body,
	}
}

// resultWrapper is the shared shape of the B2C, B2B, reversal, balance and
// transaction-status callbacks: a Result object with a result code and
// {Key, Value} ResultParameters.
type resultWrapper struct {
	result map[string]interface{}
	params map[string]interface{}
	code   int
}

func unwrapResult(body Envelope) resultWrapper {
	result := nested(body, "Result")
	return resultWrapper{
		result: result,
		params: foldPairs(nested(result, "ResultParameters")["ResultParameter"], "Key"),
		code:   intValue(result, "ResultCode"),
	}
}

func normalizeB2CResult(body Envelope, now func() time.Time) NormalizedPayment {
	w := unwrapResult(body)
	return NormalizedPayment{
		TransactionID:     firstNonEmpty(stringValue(w.params, "TransactionReceipt"), stringValue(w.result, "TransactionID")),
		TransactionType:   TransactionTypeB2C,
		Amount:            floatValue(w.params, "TransactionAmount"),
		Status:            statusFromCode(w.code),
		ResultCode:        w.code,
		ResultDescription: stringValue(w.result, "ResultDesc"),
		PhoneNumber:       stringValue(w.params, "ReceiverPartyPublicName"),
		Timestamp:         now(),
		RawPayload:        body,
	}
}

func normalizeB2BResult(body Envelope, now func() time.Time) NormalizedPayment {
	w := unwrapResult(body)
	return NormalizedPayment{
		TransactionID:     firstNonEmpty(stringValue(w.params, "TransactionReceipt"), stringValue(w.result, "TransactionID")),
		TransactionType:   TransactionTypeB2B,
		Amount:            floatValue(w.params, "TransactionAmount", "Amount"),
		Status:            statusFromCode(w.code),
		ResultCode:        w.code,
		ResultDescription: stringValue(w.result, "ResultDesc"),
		AccountReference:  stringValue(w.params, "DebitAccountBalance"),
		Timestamp:         now(),
		RawPayload:        body,
	}
}

func normalizeReversalResult(body Envelope, now func() time.Time) NormalizedPayment {
	w := unwrapResult(body)
	return NormalizedPayment{
		TransactionID:     firstNonEmpty(stringValue(w.result, "TransactionID"), stringValue(w.params, "OriginalTransactionID")),
		TransactionType:   TransactionTypeReversal,
		Amount:            floatValue(w.params, "Amount", "TransactionAmount"),
		Status:            statusFromCode(w.code),
		ResultCode:        w.code,
		ResultDescription: stringValue(w.result, "ResultDesc"),
		Timestamp:         now(),
		RawPayload:        body,
	}
}

func normalizeAccountBalance(body Envelope, now func() time.Time) NormalizedPayment {
	w := unwrapResult(body)
	return NormalizedPayment{
		TransactionID:   firstNonEmpty(stringValue(w.result, "ConversationID"), stringValue(w.result, "TransactionID")),
		TransactionType: TransactionTypeBalance,
		// Balance queries carry no transaction amount; the balance string
		// travels as the account reference.
		Amount:            0,
		Status:            statusFromCode(w.code),
		ResultCode:        w.code,
		ResultDescription: stringValue(w.result, "ResultDesc"),
		AccountReference:  stringValue(w.params, "AccountBalance"),
		Timestamp:         now(),
		RawPayload:        body,
	}
}

func normalizeTransactionStatus(body Envelope, now func() time.Time) NormalizedPayment {
	w := unwrapResult(body)

	// A completed transaction reports success even when the query's own
	// result code is nonzero.
	status := statusFromCode(w.code)
	if stringValue(w.params, "TransactionStatus") == "Completed" {
		status = StatusSuccess
	}

	return NormalizedPayment{
		TransactionID:     firstNonEmpty(stringValue(w.params, "ReceiptNo"), stringValue(w.result, "TransactionID")),
		TransactionType:   TransactionTypeTransactionStatus,
		Amount:            floatValue(w.params, "Amount"),
		Status:            status,
		ResultCode:        w.code,
		ResultDescription: firstNonEmpty(stringValue(w.result, "ResultDesc"), stringValue(w.params, "TransactionReason")),
		PhoneNumber:       firstNonEmpty(stringValue(w.params, "DebitPartyPublicName"), stringValue(w.params, "CreditPartyPublicName")),
		Timestamp:         now(),
		RawPayload:        body,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
