package checkout

// State tracks the progress of one checkout attempt. States are never
// re-entered within an attempt; a new attempt restarts from StateIdle
// with freshly fetched stock and address validation.
type State string

const (
	StateIdle              State = "idle"
	StateValidatingAddress State = "validating_address"
	StateValidatingStock   State = "validating_stock"
	StateComputing         State = "computing"
	StateSubmitting        State = "submitting"
	StateConfirmed         State = "confirmed"
	StateRejected          State = "rejected"
)
