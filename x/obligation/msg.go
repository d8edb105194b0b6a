package obligation

import (
	"github.com/iov-one/iou"
	"github.com/iov-one/iou/errors"
)

func init() {
	iou.RegisterConcrete(&Issue{}, "obligation/Issue")
}

const (
	// PathIssue routes Issue commands to the obligation contract.
	PathIssue = "obligation/issue"

	// currentSchema is the only Issue schema version understood.
	currentSchema = 1
)

// Issue creates a new obligation. It consumes nothing and produces one
// ObligationRecord.
type Issue struct {
	Schema int64 `json:"schema"`
}

var _ iou.Command = (*Issue)(nil)

// NewIssue returns an Issue command of the current schema.
func NewIssue() *Issue {
	return &Issue{Schema: currentSchema}
}

// Path implements iou.Command.
func (Issue) Path() string {
	return PathIssue
}

// Validate makes sure the command is of a known schema.
func (m *Issue) Validate() error {
	if m.Schema != currentSchema {
		return errors.Wrapf(errors.ErrValidation, "unknown issue schema %d", m.Schema)
	}
	return nil
}
