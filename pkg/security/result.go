package security

// Decision represents the three possible outcomes of checking one security
// scheme against a request.
type Decision int

const (
	// Granted means the credential was extracted and verified. The chain
	// stops and the token info becomes the request's identity.
	Granted Decision = iota

	// Rejected means a credential for this scheme was present but failed
	// verification. The chain stops and the request is refused.
	Rejected

	// Abstain means the request carries no credential this scheme handles.
	// The chain continues with the next configured scheme.
	Abstain
)

// String returns the decision name for logging and metrics labels.
func (d Decision) String() string {
	switch d {
	case Granted:
		return "granted"
	case Rejected:
		return "rejected"
	case Abstain:
		return "abstain"
	}
	return "unknown"
}

// Result carries the outcome of one scheme verifier invocation. Exactly one
// of the three shapes is ever produced: {Abstain}, {Granted, Info} or
// {Rejected, Err}.
type Result struct {
	Decision Decision
	Info     TokenInfo // populated only when Decision == Granted
	Err      error     // populated only when Decision == Rejected
}

func granted(info TokenInfo) Result { return Result{Decision: Granted, Info: info} }

func rejected(err error) Result { return Result{Decision: Rejected, Err: err} }

func abstain() Result { return Result{Decision: Abstain} }
