package mpesa

// FilterPolicy controls which normalized records are emitted downstream.
type FilterPolicy struct {
	// SuccessOnly suppresses emission for records whose status is not
	// success.
	SuccessOnly bool
	// NormalizeOutput emits the canonical record; when false the raw
	// envelope is emitted instead, for debugging or legacy consumers.
	NormalizeOutput bool
}

// Emission is the downstream-facing outcome of filtering one callback.
// Suppression only affects Emit; the protocol acknowledgment is produced
// separately and unconditionally.
type Emission struct {
	Emit    bool
	Payload interface{}
}

// Apply decides whether a record is emitted and in which form.
func Apply(policy FilterPolicy, record NormalizedPayment) Emission {
	if policy.SuccessOnly && record.Status != StatusSuccess {
		return Emission{}
	}
	if !policy.NormalizeOutput {
		return Emission{Emit: true, Payload: record.RawPayload}
	}
	return Emission{Emit: true, Payload: record}
}

// Acknowledgment is the fixed response every callback delivery receives,
// emitted or suppressed. The API retries unacknowledged deliveries, so this
// is a transport contract, not a business outcome.
type Acknowledgment struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}

// Accepted returns the acknowledgment payload.
func Accepted() Acknowledgment {
	return Acknowledgment{ResultCode: 0, ResultDesc: "Accepted"}
}
