package mpesa

import (
	"encoding/base64"
	"net/http"
	"time"
)

// Password derives the Lipa na M-Pesa request password: the base64 encoding
// of shortcode + passkey + vendor timestamp. Deterministic given a fixed
// timestamp, so it can be reproduced bit-for-bit under test.
func Password(shortCode, passkey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortCode + passkey + timestamp))
}

// Encode turns one validated operation invocation into the outbound request
// descriptor. The clock is injected: the same instant always yields the same
// descriptor, including the derived password.
//
// Both initiate and queryStatus derive their timestamp through the EAT
// codec, so a status query's password matches the policy of the initiate it
// interrogates.
func Encode(resource Resource, operation Operation, params Params, now func() time.Time) (*RequestDescriptor, error) {
	spec, err := Lookup(resource, operation)
	if err != nil {
		return nil, err
	}

	for _, name := range spec.Required {
		if !params.Has(name) {
			return nil, &MissingParameterError{Resource: resource, Operation: operation, Name: name}
		}
	}

	timestamp := FormatTimestamp(now())
	return &RequestDescriptor{
		Method: http.MethodPost,
		Path:   spec.Path,
		Body:   spec.Build(params, timestamp),
	}, nil
}
