package flow

import "fmt"

// Phase is a step of the issuance state machine.
//
//	Built -> SelfSigned -> AwaitingSignatures -> FullySigned -> Notarized -> Finalized
//
// Any step may instead end in one of the failure phases.
type Phase int32

const (
	Built Phase = iota + 1
	SelfSigned
	AwaitingSignatures
	FullySigned
	Notarized
	Finalized

	ValidationFailed
	SignatureRejected
	NotarizationConflict
	SessionError
)

var phaseNames = map[Phase]string{
	Built:                "BUILT",
	SelfSigned:           "SELF_SIGNED",
	AwaitingSignatures:   "AWAITING_SIGNATURES",
	FullySigned:          "FULLY_SIGNED",
	Notarized:            "NOTARIZED",
	Finalized:            "FINALIZED",
	ValidationFailed:     "VALIDATION_FAILED",
	SignatureRejected:    "SIGNATURE_REJECTED",
	NotarizationConflict: "NOTARIZATION_CONFLICT",
	SessionError:         "SESSION_ERROR",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Phase(%d)", int32(p))
}

// Terminal returns true if no transition leaves the phase.
func (p Phase) Terminal() bool {
	return p == Finalized || p.Failed()
}

// Failed returns true for phases that end the flow without a result.
func (p Phase) Failed() bool {
	switch p {
	case ValidationFailed, SignatureRejected, NotarizationConflict, SessionError:
		return true
	}
	return false
}

// FlowError is returned by a flow that ended in a failure phase.
type FlowError struct {
	Phase Phase
	Err   error
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

// Cause returns the underlying error, so that the errors package can match
// it against registered errors.
func (e *FlowError) Cause() error {
	return e.Err
}

// Unwrap returns the underlying error.
func (e *FlowError) Unwrap() error {
	return e.Err
}

// PhaseOf returns the phase a flow error ended in, or zero.
func PhaseOf(err error) Phase {
	if fe, ok := err.(*FlowError); ok {
		return fe.Phase
	}
	return 0
}
