// Package emailfinder discovers and verifies founder email addresses by
// generating name/domain permutations and probing them against a
// verification backend (remote API or direct SMTP handshake).
package emailfinder

// FailureKind classifies why a probe could not confirm an address. It lets
// callers and tests branch on the failure class without string matching.
type FailureKind string

const (
	// FailureNone means the probe produced a definitive answer.
	FailureNone FailureKind = ""
	// FailureAPIStatus means the verification API returned a non-2xx status.
	FailureAPIStatus FailureKind = "api_status"
	// FailureTransport covers connection-level errors reaching the API.
	FailureTransport FailureKind = "transport"
	// FailureTimeout means an async verification never left pending.
	FailureTimeout FailureKind = "timeout"
	// FailureDNS covers MX resolution failures for the candidate's domain.
	FailureDNS FailureKind = "dns"
	// FailureSMTPRejected means a mail exchanger firmly rejected the mailbox.
	FailureSMTPRejected FailureKind = "smtp_rejected"
	// FailureSMTPUnexpected means a mail exchanger answered with a code
	// outside the accept/reject sets.
	FailureSMTPUnexpected FailureKind = "smtp_unexpected"
	// FailureSMTPUnreachable means no mail exchanger yielded a definitive
	// outcome.
	FailureSMTPUnreachable FailureKind = "smtp_unreachable"
)

// Verification is the outcome of probing a single candidate address.
// Expected failure modes (network errors, malformed responses, timeouts)
// never surface as Go errors; they are absorbed into Failure and Message.
type Verification struct {
	Email    string      `json:"email"`
	Valid    bool        `json:"valid"`
	CatchAll bool        `json:"catch_all"`
	Score    *int        `json:"score,omitempty"`
	Failure  FailureKind `json:"failure,omitempty"`
	Message  string      `json:"message"`
}
