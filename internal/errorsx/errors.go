// Package errorsx provides the typed error used across the scenario engine,
// adapted from the service layer's ServiceError but scoped to this engine's
// own failure domains (scenario loading, action execution, report
// transport, expression evaluation) instead of HTTP/auth/crypto codes.
package errorsx

import "fmt"

// Code identifies a class of engine failure.
type Code string

const (
	// Scenario-construction failures (spec §7 "fatal at load").
	CodeMalformedFile     Code = "SCN_1001"
	CodeUnknownActionType Code = "SCN_1002"
	CodeMissingParameter  Code = "SCN_1003"
	CodeMultipleScenarios Code = "SCN_1004"
	CodeIncludeNotFound   Code = "SCN_1005"

	// Action-execution failures (spec §7, non-fatal unless abort policy applies).
	CodeActionExecution Code = "ACT_2001"
	CodeActionTimeout   Code = "ACT_2002"
	CodePipelineGone    Code = "ACT_2003"

	// Report-transport failures (spec §4.3).
	CodeSinkWriteFailed Code = "RPT_3001"
	CodeSinkBusy        Code = "RPT_3002"

	// Expression-evaluator failures (spec §4.4).
	CodeExprSyntax      Code = "EXPR_4001"
	CodeExprUnknownVar  Code = "EXPR_4002"
	CodeExprUnknownFunc Code = "EXPR_4003"
)

// EngineError is the engine's structured error type. It is never thrown
// out of an action handler: handlers translate it into a report (see
// domain/report) whose severity decides whether execution aborts.
type EngineError struct {
	Code    Code
	Message string
	Details map[string]any
	Err     error
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *EngineError) Unwrap() error { return e.Err }

// WithDetail attaches a contextual key/value pair, returning the receiver
// for chaining.
func (e *EngineError) WithDetail(key string, value any) *EngineError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates an EngineError without an underlying cause.
func New(code Code, message string) *EngineError {
	return &EngineError{Code: code, Message: message}
}

// Wrap creates an EngineError around an existing error.
func Wrap(code Code, message string, err error) *EngineError {
	return &EngineError{Code: code, Message: message, Err: err}
}

// Fatal-at-load constructors.

func MalformedFile(path string, err error) *EngineError {
	return Wrap(CodeMalformedFile, "scenario file is malformed", err).WithDetail("path", path)
}

func UnknownActionType(name string) *EngineError {
	return New(CodeUnknownActionType, "unknown action type").WithDetail("type", name)
}

func MissingParameter(actionType, param string) *EngineError {
	return New(CodeMissingParameter, "missing mandatory parameter").
		WithDetail("action-type", actionType).WithDetail("parameter", param)
}

func MultipleActionScenarios(first, second string) *EngineError {
	return New(CodeMultipleScenarios, "only one action scenario may be loaded per run").
		WithDetail("first", first).WithDetail("second", second)
}

func IncludeNotFound(location string) *EngineError {
	return New(CodeIncludeNotFound, "include location could not be resolved").
		WithDetail("location", location)
}

// Execution-time constructors.

func ActionExecution(actionType string, err error) *EngineError {
	return Wrap(CodeActionExecution, "action execution failed", err).WithDetail("action-type", actionType)
}

func ActionTimeout(actionType string, elapsed, timeout any) *EngineError {
	return New(CodeActionTimeout, "action timed out").
		WithDetail("action-type", actionType).WithDetail("elapsed", elapsed).WithDetail("timeout", timeout)
}

func PipelineGone(actionType string) *EngineError {
	return New(CodePipelineGone, "pipeline is gone").WithDetail("action-type", actionType)
}
