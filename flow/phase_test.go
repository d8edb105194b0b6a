package flow

import (
	"testing"

	"github.com/iov-one/iou/errors"
	"github.com/iov-one/iou/iotest/assert"
)

func TestPhase(t *testing.T) {
	cases := map[Phase]struct {
		name     string
		terminal bool
		failed   bool
	}{
		Built:                {name: "BUILT"},
		SelfSigned:           {name: "SELF_SIGNED"},
		AwaitingSignatures:   {name: "AWAITING_SIGNATURES"},
		FullySigned:          {name: "FULLY_SIGNED"},
		Notarized:            {name: "NOTARIZED"},
		Finalized:            {name: "FINALIZED", terminal: true},
		ValidationFailed:     {name: "VALIDATION_FAILED", terminal: true, failed: true},
		SignatureRejected:    {name: "SIGNATURE_REJECTED", terminal: true, failed: true},
		NotarizationConflict: {name: "NOTARIZATION_CONFLICT", terminal: true, failed: true},
		SessionError:         {name: "SESSION_ERROR", terminal: true, failed: true},
		Phase(42):            {name: "Phase(42)"},
	}
	for p, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.name, p.String())
			assert.Equal(t, tc.terminal, p.Terminal())
			assert.Equal(t, tc.failed, p.Failed())
		})
	}
}

func TestFlowError(t *testing.T) {
	err := &FlowError{Phase: NotarizationConflict, Err: errors.Wrap(errors.ErrConflict, "linear id taken")}

	assert.Equal(t, NotarizationConflict, PhaseOf(err))
	assert.IsErr(t, errors.ErrConflict, err)
	assert.Equal(t, "NOTARIZATION_CONFLICT: linear id taken: notarization conflict", err.Error())
	assert.Equal(t, Phase(0), PhaseOf(errors.ErrConflict))
}
