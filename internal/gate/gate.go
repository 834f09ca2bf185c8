// Package gate decides whether a caller holds an operator session.
// The Store and the View Projector only ever see the resulting boolean.
package gate

// Gate reports whether the current caller is the operator.
type Gate interface {
	IsOperatorSession() bool
}

// Static is a fixed gate. The CLI and MCP server run as Static(true):
// the local process owner is the operator.
type Static bool

// IsOperatorSession implements Gate.
func (s Static) IsOperatorSession() bool { return bool(s) }

// Operator and Visitor are the two fixed gates.
const (
	Operator Static = true
	Visitor  Static = false
)
