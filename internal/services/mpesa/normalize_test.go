package mpesa

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelopeFromJSON(t *testing.T, raw string) Envelope {
	t.Helper()
	var body Envelope
	require.NoError(t, json.Unmarshal([]byte(raw), &body))
	return body
}

func TestFoldPairs(t *testing.T) {
	items := []interface{}{
		map[string]interface{}{"Name": "Amount", "Value": float64(100)},
		map[string]interface{}{"Name": "PhoneNumber", "Value": "254712345678"},
	}

	folded := foldPairs(items, "Name")
	assert.Equal(t, float64(100), folded["Amount"])
	assert.Equal(t, "254712345678", folded["PhoneNumber"])
}

func TestFoldPairsDuplicateKeepsLast(t *testing.T) {
	items := []interface{}{
		map[string]interface{}{"Key": "Amount", "Value": float64(1)},
		map[string]interface{}{"Key": "Amount", "Value": float64(2)},
	}

	folded := foldPairs(items, "Key")
	assert.Equal(t, float64(2), folded["Amount"])
}

func TestFoldPairsToleratesGarbage(t *testing.T) {
	assert.Empty(t, foldPairs(nil, "Name"))
	assert.Empty(t, foldPairs("not an array", "Name"))
	assert.Empty(t, foldPairs([]interface{}{"not an object", float64(7)}, "Name"))
}

const stkSuccessBody = `{
	"Body": {
		"stkCallback": {
			"MerchantRequestID": "29115-34620561-1",
			"CheckoutRequestID": "ws_CO_191220191020363925",
			"ResultCode": 0,
			"ResultDesc": "The service request is processed successfully.",
			"CallbackMetadata": {
				"Item": [
					{"Name": "Amount", "Value": 100},
					{"Name": "MpesaReceiptNumber", "Value": "NLJ7RT61SV"},
					{"Name": "TransactionDate", "Value": 20231005143000},
					{"Name": "PhoneNumber", "Value": 254712345678}
				]
			}
		}
	}
}`

func TestNormalizeSTKPushSuccess(t *testing.T) {
	body := envelopeFromJSON(t, stkSuccessBody)
	record := Normalize(EventSTKPushCompleted, body, fixedClock(testInstant))

	assert.Equal(t, "NLJ7RT61SV", record.TransactionID)
	assert.Equal(t, TransactionTypeSTKPush, record.TransactionType)
	assert.Equal(t, float64(100), record.Amount)
	assert.Equal(t, StatusSuccess, record.Status)
	assert.Equal(t, 0, record.ResultCode)
	assert.Equal(t, "254712345678", record.PhoneNumber)
	assert.Equal(t, body, record.RawPayload)
}

func TestNormalizeSTKPushCancelled(t *testing.T) {
	body := envelopeFromJSON(t, `{
		"Body": {
			"stkCallback": {
				"MerchantRequestID": "29115-34620561-1",
				"CheckoutRequestID": "ws_CO_191220191020363925",
				"ResultCode": 1032,
				"ResultDesc": "Request cancelled by user."
			}
		}
	}`)
	record := Normalize(EventSTKPushCompleted, body, fixedClock(testInstant))

	// No metadata was delivered, so the checkout request id is the fallback.
	assert.Equal(t, "ws_CO_191220191020363925", record.TransactionID)
	assert.Equal(t, float64(0), record.Amount)
	assert.Equal(t, StatusFailed, record.Status)
	assert.Equal(t, 1032, record.ResultCode)
	assert.Equal(t, "Request cancelled by user.", record.ResultDescription)
}

func TestNormalizeC2BPayment(t *testing.T) {
	body := envelopeFromJSON(t, `{
		"TransactionType": "Pay Bill",
		"TransID": "RKTQDM7W6S",
		"TransTime": "20231005143000",
		"TransAmount": "100.00",
		"BusinessShortCode": "600998",
		"BillRefNumber": "INV-001",
		"MSISDN": "254712345678",
		"FirstName": "JOHN"
	}`)
	record := Normalize(EventPaymentReceived, body, fixedClock(testInstant))

	assert.Equal(t, "RKTQDM7W6S", record.TransactionID)
	assert.Equal(t, TransactionTypeC2B, record.TransactionType)
	assert.Equal(t, float64(100), record.Amount)
	// C2B confirmations have no failure variant.
	assert.Equal(t, StatusSuccess, record.Status)
	assert.Equal(t, "254712345678", record.PhoneNumber)
	assert.Equal(t, "INV-001", record.AccountReference)
	assert.Equal(t, "20231005143000", FormatTimestamp(record.Timestamp))
}

func TestNormalizeC2BPaymentMalformedTimeFallsBack(t *testing.T) {
	body := envelopeFromJSON(t, `{"TransID": "RKTQDM7W6S", "TransTime": "oops"}`)
	record := Normalize(EventPaymentReceived, body, fixedClock(testInstant))
	assert.True(t, record.Timestamp.Equal(testInstant))
}

const b2cResultBody = `{
	"Result": {
		"ResultType": 0,
		"ResultCode": 0,
		"ResultDesc": "The service request is processed successfully.",
		"OriginatorConversationID": "10571-7910404-1",
		"ConversationID": "AG_20231005_00004e48cf7e3533f581",
		"TransactionID": "NLJ41HAY6Q",
		"ResultParameters": {
			"ResultParameter": [
				{"Key": "TransactionAmount", "Value": 1500},
				{"Key": "TransactionReceipt", "Value": "NLJ41HAY6Q"},
				{"Key": "ReceiverPartyPublicName", "Value": "254712345678 - John Doe"},
				{"Key": "B2CUtilityAccountAvailableFunds", "Value": 10116}
			]
		}
	}
}`

func TestNormalizeB2CResult(t *testing.T) {
	body := envelopeFromJSON(t, b2cResultBody)
	record := Normalize(EventB2CCompleted, body, fixedClock(testInstant))

	assert.Equal(t, "NLJ41HAY6Q", record.TransactionID)
	assert.Equal(t, TransactionTypeB2C, record.TransactionType)
	assert.Equal(t, float64(1500), record.Amount)
	assert.Equal(t, StatusSuccess, record.Status)
	assert.Equal(t, "254712345678 - John Doe", record.PhoneNumber)
}

func TestNormalizeB2BResultAmountFallback(t *testing.T) {
	body := envelopeFromJSON(t, `{
		"Result": {
			"ResultCode": 0,
			"ResultDesc": "Success",
			"TransactionID": "QKA81LK5CY",
			"ResultParameters": {
				"ResultParameter": [
					{"Key": "Amount", "Value": 5000},
					{"Key": "DebitAccountBalance", "Value": "Working Account|KES|100000.00"}
				]
			}
		}
	}`)
	record := Normalize(EventB2BCompleted, body, fixedClock(testInstant))

	assert.Equal(t, "QKA81LK5CY", record.TransactionID)
	assert.Equal(t, TransactionTypeB2B, record.TransactionType)
	assert.Equal(t, float64(5000), record.Amount)
	assert.Equal(t, "Working Account|KES|100000.00", record.AccountReference)
}

func TestNormalizeReversalResult(t *testing.T) {
	body := envelopeFromJSON(t, `{
		"Result": {
			"ResultCode": 0,
			"ResultDesc": "The service request is processed successfully.",
			"TransactionID": "MJ561H6X5O",
			"ResultParameters": {
				"ResultParameter": [
					{"Key": "Amount", "Value": 100},
					{"Key": "OriginalTransactionID", "Value": "MJ551H6X5D"}
				]
			}
		}
	}`)
	record := Normalize(EventReversalCompleted, body, fixedClock(testInstant))

	assert.Equal(t, "MJ561H6X5O", record.TransactionID)
	assert.Equal(t, TransactionTypeReversal, record.TransactionType)
	assert.Equal(t, float64(100), record.Amount)
	assert.Equal(t, StatusSuccess, record.Status)
}

func TestNormalizeAccountBalance(t *testing.T) {
	body := envelopeFromJSON(t, `{
		"Result": {
			"ResultCode": 0,
			"ResultDesc": "The service request is processed successfully.",
			"ConversationID": "AG_20231005_00007e4c1b7f8c2d3a4b",
			"ResultParameters": {
				"ResultParameter": [
					{"Key": "AccountBalance", "Value": "Working Account|KES|700000.00|700000.00|0.00|0.00"},
					{"Key": "BOCompletedTime", "Value": 20231005143000}
				]
			}
		}
	}`)
	record := Normalize(EventBalanceCompleted, body, fixedClock(testInstant))

	assert.Equal(t, "AG_20231005_00007e4c1b7f8c2d3a4b", record.TransactionID)
	assert.Equal(t, TransactionTypeBalance, record.TransactionType)
	assert.Equal(t, float64(0), record.Amount)
	assert.Equal(t, "Working Account|KES|700000.00|700000.00|0.00|0.00", record.AccountReference)
}

func TestNormalizeTransactionStatusCompletedOverridesCode(t *testing.T) {
	body := envelopeFromJSON(t, `{
		"Result": {
			"ResultCode": 1,
			"ResultDesc": "Processing",
			"TransactionID": "QKA81LK5CY",
			"ResultParameters": {
				"ResultParameter": [
					{"Key": "TransactionStatus", "Value": "Completed"},
					{"Key": "ReceiptNo", "Value": "QKA81LK5CY"},
					{"Key": "Amount", "Value": 250},
					{"Key": "DebitPartyPublicName", "Value": "254712345678 - John Doe"}
				]
			}
		}
	}`)
	record := Normalize(EventTransactionStatusCompleted, body, fixedClock(testInstant))

	// "Completed" wins even though the result code alone would say failed.
	assert.Equal(t, StatusSuccess, record.Status)
	assert.Equal(t, 1, record.ResultCode)
	assert.Equal(t, "QKA81LK5CY", record.TransactionID)
	assert.Equal(t, float64(250), record.Amount)
	assert.Equal(t, "254712345678 - John Doe", record.PhoneNumber)
}

func TestNormalizeTransactionStatusFailed(t *testing.T) {
	body := envelopeFromJSON(t, `{
		"Result": {
			"ResultCode": 2001,
			"ResultParameters": {
				"ResultParameter": [
					{"Key": "TransactionStatus", "Value": "Failed"},
					{"Key": "TransactionReason", "Value": "The initiator is not allowed"}
				]
			}
		}
	}`)
	record := Normalize(EventTransactionStatusCompleted, body, fixedClock(testInstant))

	assert.Equal(t, StatusFailed, record.Status)
	assert.Equal(t, 2001, record.ResultCode)
	assert.Equal(t, "The initiator is not allowed", record.ResultDescription)
}

func TestNormalizeDegradesOnMissingStructure(t *testing.T) {
	for _, kind := range EventKinds() {
		record := Normalize(kind, Envelope{}, fixedClock(testInstant))

		assert.Equal(t, "", record.TransactionID, "kind %s", kind)
		assert.Equal(t, float64(0), record.Amount, "kind %s", kind)
		assert.NotEmpty(t, record.TransactionType, "kind %s", kind)
		assert.NotNil(t, record.RawPayload, "kind %s", kind)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	body := envelopeFromJSON(t, stkSuccessBody)

	first := Normalize(EventSTKPushCompleted, body, fixedClock(testInstant))
	second := Normalize(EventSTKPushCompleted, body, fixedClock(testInstant))
	assert.Equal(t, first, second)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, firstJSON, secondJSON)
}

func TestNormalizePreservesRawPayload(t *testing.T) {
	raw := `{"Result": {"ResultCode": 1, "ResultDesc": "fail", "Unknown": {"Deep": [1, 2, 3]}}}`
	body := envelopeFromJSON(t, raw)
	record := Normalize(EventB2CCompleted, body, fixedClock(testInstant))

	assert.Equal(t, envelopeFromJSON(t, raw), record.RawPayload)
}

func TestNormalizeUnknownEventKind(t *testing.T) {
	record := Normalize(EventKind("made.up"), Envelope{"x": float64(1)}, fixedClock(testInstant))

	assert.Equal(t, "unknown", record.TransactionID)
	assert.Equal(t, StatusSuccess, record.Status)
	assert.Equal(t, "Unknown event type", record.ResultDescription)
	assert.True(t, record.Timestamp.Equal(testInstant))
}

func TestParseEventKind(t *testing.T) {
	for _, kind := range EventKinds() {
		parsed, err := ParseEventKind(string(kind))
		require.NoError(t, err)
		assert.Equal(t, kind, parsed)
	}

	_, err := ParseEventKind("payment.refunded")
	assert.Error(t, err)
}
