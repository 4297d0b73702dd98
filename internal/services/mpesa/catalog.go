package mpesa

import (
	"errors"
	"fmt"
)

// Resource is a Daraja API family.
type Resource string

const (
	ResourceSTKPush  Resource = "stkPush"
	ResourceC2B      Resource = "c2b"
	ResourceB2C      Resource = "b2c"
	ResourceB2B      Resource = "b2b"
	ResourceIdentity Resource = "identity"
	ResourcePull     Resource = "pull"
	ResourceAccount  Resource = "account"
)

// Operation is one action on a resource.
type Operation string

const (
	OperationInitiate          Operation = "initiate"
	OperationQueryStatus       Operation = "queryStatus"
	OperationRegisterURL       Operation = "registerUrl"
	OperationSimulate          Operation = "simulate"
	OperationPaymentRequest    Operation = "paymentRequest"
	OperationCheckATI          Operation = "checkAti"
	OperationQuery             Operation = "query"
	OperationBalance           Operation = "balance"
	OperationTransactionStatus Operation = "transactionStatus"
	OperationReversal          Operation = "reversal"
)

// Identifier type codes defined by the Daraja API.
const (
	// identifierTypeShortcode marks a counterparty identified by an
	// organization shortcode.
	identifierTypeShortcode = 4
	// identifierTypeReversalReceiver is the code reversals require for the
	// receiving organization.
	identifierTypeReversalReceiver = "11"
)

// ErrUnsupportedOperation is returned when a (resource, operation) pair has
// no catalog entry. This is a configuration error, not a runtime one.
var ErrUnsupportedOperation = errors.New("mpesa: unsupported resource/operation pair")

// MissingParameterError reports a required parameter absent from an
// invocation. Like ErrUnsupportedOperation it surfaces before any request
// is built.
type MissingParameterError struct {
	Resource  Resource
	Operation Operation
	Name      string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("mpesa: %s/%s: missing required parameter %q", e.Resource, e.Operation, e.Name)
}

// OperationKey identifies one catalog entry.
type OperationKey struct {
	Resource  Resource
	Operation Operation
}

// OperationSpec describes how to turn validated parameters into the exact
// request the API expects. Build is pure: same params and timestamp, same
// body.
type OperationSpec struct {
	Path     string
	Required []string
	Build    func(p Params, timestamp string) map[string]interface{}
}

// ParseResource validates a resource tag against the closed set.
func ParseResource(s string) (Resource, error) {
	switch Resource(s) {
	case ResourceSTKPush, ResourceC2B, ResourceB2C, ResourceB2B,
		ResourceIdentity, ResourcePull, ResourceAccount:
		return Resource(s), nil
	}
	return "", fmt.Errorf("mpesa: unknown resource %q", s)
}

// ParseOperation validates an operation tag against the closed set.
func ParseOperation(s string) (Operation, error) {
	switch Operation(s) {
	case OperationInitiate, OperationQueryStatus, OperationRegisterURL,
		OperationSimulate, OperationPaymentRequest, OperationCheckATI,
		OperationQuery, OperationBalance, OperationTransactionStatus,
		OperationReversal:
		return Operation(s), nil
	}
	return "", fmt.Errorf("mpesa: unknown operation %q", s)
}

// Lookup returns the catalog entry for a resource/operation pair.
func Lookup(resource Resource, operation Operation) (OperationSpec, error) {
	spec, ok := catalog[OperationKey{Resource: resource, Operation: operation}]
	if !ok {
		return OperationSpec{}, fmt.Errorf("%w: %s/%s", ErrUnsupportedOperation, resource, operation)
	}
	return spec, nil
}

// Catalog returns the keys of every supported operation, in no particular
// order.
func Catalog() []OperationKey {
	keys := make([]OperationKey, 0, len(catalog))
	for key := range catalog {
		keys = append(keys, key)
	}
	return keys
}

var catalog = map[OperationKey]OperationSpec{
	{ResourceSTKPush, OperationInitiate}: {
		Path: "/mpesa/stkpush/v1/processrequest",
		Required: []string{
			"businessShortCode", "passkey", "amount", "phoneNumber",
			"callbackUrl", "accountReference", "transactionDesc",
		},
		Build: func(p Params, timestamp string) map[string]interface{} {
			shortCode := p.String("businessShortCode")
			phoneNumber := p.String("phoneNumber")
			return map[string]interface{}{
				"BusinessShortCode": shortCode,
				"Password":          Password(shortCode, p.String("passkey"), timestamp),
				"Timestamp":         timestamp,
				"TransactionType":   "CustomerPayBillOnline",
				"Amount":            p.Decimal("amount"),
				"PartyA":            phoneNumber,
				"PartyB":            shortCode,
				"PhoneNumber":       phoneNumber,
				"CallBackURL":       p.String("callbackUrl"),
				"AccountReference":  p.String("accountReference"),
				"TransactionDesc":   p.String("transactionDesc"),
			}
		},
	},
	{ResourceSTKPush, OperationQueryStatus}: {
		Path:     "/mpesa/stkpushquery/v1/query",
		Required: []string{"businessShortCode", "passkey", "checkoutRequestId"},
		Build: func(p Params, timestamp string) map[string]interface{} {
			shortCode := p.String("businessShortCode")
			return map[string]interface{}{
				"BusinessShortCode": shortCode,
				"Password":          Password(shortCode, p.String("passkey"), timestamp),
				"Timestamp":         timestamp,
				"CheckoutRequestID": p.String("checkoutRequestId"),
			}
		},
	},
	{ResourceC2B, OperationRegisterURL}: {
		Path:     "/mpesa/c2b/v1/registerurl",
		Required: []string{"shortCode", "responseType", "confirmationUrl", "validationUrl"},
		Build: func(p Params, _ string) map[string]interface{} {
			return map[string]interface{}{
				"ShortCode":       p.String("shortCode"),
				"ResponseType":    p.String("responseType"),
				"ConfirmationURL": p.String("confirmationUrl"),
				"ValidationURL":   p.String("validationUrl"),
			}
		},
	},
	{ResourceC2B, OperationSimulate}: {
		Path:     "/mpesa/c2b/v1/simulate",
		Required: []string{"shortCode", "commandId", "amount", "msisdn"},
		Build: func(p Params, _ string) map[string]interface{} {
			return map[string]interface{}{
				"ShortCode":     p.String("shortCode"),
				"CommandID":     p.String("commandId"),
				"Amount":        p.Decimal("amount"),
				"Msisdn":        p.String("msisdn"),
				"BillRefNumber": "Simulate",
			}
		},
	},
	{ResourceB2C, OperationPaymentRequest}: {
		Path: "/mpesa/b2c/v1/paymentrequest",
		Required: []string{
			"initiatorName", "securityCredential", "commandId", "amount",
			"partyA", "partyB", "remarks", "queueTimeOutUrl", "resultUrl",
		},
		Build: func(p Params, _ string) map[string]interface{} {
			return map[string]interface{}{
				"InitiatorName":      p.String("initiatorName"),
				"SecurityCredential": p.String("securityCredential"),
				"CommandID":          p.String("commandId"),
				"Amount":             p.Decimal("amount"),
				"PartyA":             p.String("partyA"),
				"PartyB":             p.String("partyB"),
				"Remarks":            p.String("remarks"),
				"QueueTimeOutURL":    p.String("queueTimeOutUrl"),
				"ResultURL":          p.String("resultUrl"),
			}
		},
	},
	{ResourceB2B, OperationPaymentRequest}: {
		Path: "/mpesa/b2b/v1/paymentrequest",
		Required: []string{
			"initiatorName", "securityCredential", "commandId", "amount",
			"partyA", "partyB", "remarks", "queueTimeOutUrl", "resultUrl",
			"accountReference",
		},
		Build: func(p Params, _ string) map[string]interface{} {
			return map[string]interface{}{
				"Initiator":          p.String("initiatorName"),
				"SecurityCredential": p.String("securityCredential"),
				"CommandID":          p.String("commandId"),
				"Amount":             p.Decimal("amount"),
				"PartyA":             p.String("partyA"),
				"PartyB":             p.String("partyB"),
				"Remarks":            p.String("remarks"),
				"QueueTimeOutURL":    p.String("queueTimeOutUrl"),
				"ResultURL":          p.String("resultUrl"),
				"AccountReference":   p.String("accountReference"),
				// Both ends of a B2B transfer are shortcodes. The receiver
				// key spelling is the API's, not a typo here.
				"SenderIdentifierType":   identifierTypeShortcode,
				"RecieverIdentifierType": identifierTypeShortcode,
			}
		},
	},
	{ResourceIdentity, OperationCheckATI}: {
		Path:     "/mpesa/checkidentity/v1/processrequest",
		Required: []string{"initiatorName", "securityCredential", "customerNumber"},
		Build: func(p Params, _ string) map[string]interface{} {
			return map[string]interface{}{
				"Initiator":          p.String("initiatorName"),
				"SecurityCredential": p.String("securityCredential"),
				"CommandID":          "CheckATI",
				"PartyA":             p.String("customerNumber"),
			}
		},
	},
	{ResourcePull, OperationRegisterURL}: {
		Path:     "/pulltransactions/v1/register",
		Required: []string{"shortCode", "requestType", "nominatedNumber", "callbackUrl"},
		Build: func(p Params, _ string) map[string]interface{} {
			return map[string]interface{}{
				"ShortCode":       p.String("shortCode"),
				"RequestType":     p.String("requestType"),
				"NominatedNumber": p.String("nominatedNumber"),
				"CallBackURL":     p.String("callbackUrl"),
			}
		},
	},
	{ResourcePull, OperationQuery}: {
		Path:     "/pulltransactions/v1/query",
		Required: []string{"shortCode", "startDate", "endDate", "offsetValue"},
		Build: func(p Params, _ string) map[string]interface{} {
			return map[string]interface{}{
				"ShortCode":   p.String("shortCode"),
				"StartDate":   p.String("startDate"),
				"EndDate":     p.String("endDate"),
				"OffSetValue": p.Decimal("offsetValue"),
			}
		},
	},
	{ResourceAccount, OperationBalance}: {
		Path: "/mpesa/accountbalance/v1/query",
		Required: []string{
			"initiatorName", "securityCredential", "partyA", "remarks",
			"queueTimeOutUrl", "resultUrl",
		},
		Build: func(p Params, _ string) map[string]interface{} {
			return map[string]interface{}{
				"Initiator":          p.String("initiatorName"),
				"SecurityCredential": p.String("securityCredential"),
				"CommandID":          "AccountBalance",
				"PartyA":             p.String("partyA"),
				"IdentifierType":     identifierTypeShortcode,
				"Remarks":            p.String("remarks"),
				"QueueTimeOutURL":    p.String("queueTimeOutUrl"),
				"ResultURL":          p.String("resultUrl"),
			}
		},
	},
	{ResourceAccount, OperationTransactionStatus}: {
		Path: "/mpesa/transactionstatus/v1/query",
		Required: []string{
			"initiatorName", "securityCredential", "transactionId", "partyA",
			"remarks", "queueTimeOutUrl", "resultUrl",
		},
		Build: func(p Params, _ string) map[string]interface{} {
			return map[string]interface{}{
				"Initiator":          p.String("initiatorName"),
				"SecurityCredential": p.String("securityCredential"),
				"CommandID":          "TransactionStatusQuery",
				"TransactionID":      p.String("transactionId"),
				"PartyA":             p.String("partyA"),
				"IdentifierType":     identifierTypeShortcode,
				"Remarks":            p.String("remarks"),
				"QueueTimeOutURL":    p.String("queueTimeOutUrl"),
				"ResultURL":          p.String("resultUrl"),
				"Occasion":           p.String("occasion"),
			}
		},
	},
	{ResourceAccount, OperationReversal}: {
		Path: "/mpesa/reversal/v1/request",
		Required: []string{
			"initiatorName", "securityCredential", "transactionId", "amount",
			"receiverParty", "remarks", "queueTimeOutUrl", "resultUrl",
		},
		Build: func(p Params, _ string) map[string]interface{} {
			return map[string]interface{}{
				"Initiator":              p.String("initiatorName"),
				"SecurityCredential":     p.String("securityCredential"),
				"CommandID":              "TransactionReversal",
				"TransactionID":          p.String("transactionId"),
				"Amount":                 p.Decimal("amount"),
				"ReceiverParty":          p.String("receiverParty"),
				"RecieverIdentifierType": identifierTypeReversalReceiver,
				"Remarks":                p.String("remarks"),
				"QueueTimeOutURL":        p.String("queueTimeOutUrl"),
				"ResultURL":              p.String("resultUrl"),
				"Occasion":               p.String("occasion"),
			}
		},
	},
}
