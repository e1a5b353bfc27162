package wschannel

import (
	"encoding/json"
	stderrors "errors"

	"github.com/c360/semalign/engine"
	"github.com/c360/semalign/errors"
)

// Envelope types. Requests carry one of the three verbs; every reply
// comes back as typeReply with the request's ID.
const (
	typeDescribe = "describe"
	typeCall     = "call"
	typeEval     = "eval"
	typeReply    = "reply"
)

// envelope frames every message on the socket. The ID correlates a
// reply with the request that asked for it; Payload holds the
// verb-specific body.
type envelope struct {
	Type      string          `json:"type"`
	ID        string          `json:"id"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// describeRequest asks the bridge for an object's confirmed identifiers
type describeRequest struct {
	Ref string `json:"ref"`
}

// describeResponse carries the identifiers, or the engine's diagnostic
// verbatim when the engine raised an error
type describeResponse struct {
	Identifiers []string `json:"identifiers,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// callRequest invokes a named engine operation
type callRequest struct {
	Op   string         `json:"op"`
	Args []engine.Value `json:"args,omitempty"`
}

// evalRequest evaluates source text in the engine's own language
type evalRequest struct {
	Code string `json:"code"`
}

// valueResponse answers call and eval requests
type valueResponse struct {
	Result engine.Value `json:"result"`
	Error  string       `json:"error,omitempty"`
}

// diagnosticOf flattens an error into the string that crosses the
// wire. Engine-raised errors contribute their diagnostic untouched so
// the far side rebuilds an identical ExternalCallError.
func diagnosticOf(err error) string {
	var ext *errors.ExternalCallError
	if stderrors.As(err, &ext) {
		return ext.Diagnostic
	}
	return err.Error()
}
