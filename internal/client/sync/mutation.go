package sync

// MutationState tracks an optimistic mutation's server confirmation.
type MutationState string

const (
	MutationPending   MutationState = "pending"
	MutationConfirmed MutationState = "confirmed"
	MutationFailed    MutationState = "failed"
)

// Mutation is the record of one optimistic local change. The local state is
// mutated before the record is confirmed; a Failed record means the local
// view may have drifted from the server until the next full reload. Failed
// records are never retried or rolled back automatically.
type Mutation struct {
	ID     string
	Kind   string
	ItemID string
	State  MutationState

	// Err holds the confirmation failure, "" otherwise.
	Err string
}
