package engine

import "fmt"

// Flow names.
const (
	FlowLink    = "link"
	FlowRelink  = "relink"
	FlowServer  = "server"
	FlowResolve = "resolve"
	FlowUnlink  = "unlink"
	FlowProfile = "profile"
)

// FlowError reports the step at which a deploy flow aborted. Nothing the
// flow wrote before the step is kept.
type FlowError struct {
	Flow string
	Step string
	Err  error
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Flow, e.Step, e.Err)
}

func (e *FlowError) Unwrap() error {
	return e.Err
}

func flowErr(flow, step string, err error) error {
	return &FlowError{Flow: flow, Step: step, Err: err}
}
