package cli

import (
	"encoding/json"
	"fmt"
	"os"
)

// jsonOutput is set by --json.
var jsonOutput bool

// Response is the envelope of every --json output.
type Response struct {
	OK       bool        `json:"ok"`
	Data     interface{} `json:"data,omitempty"`
	Error    *ErrorInfo  `json:"error,omitempty"`
	Warnings []Warning   `json:"warnings,omitempty"`
	Meta     *Meta       `json:"meta,omitempty"`
}

// ErrorInfo describes why a command failed.
type ErrorInfo struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Warning is a non-fatal problem, such as a chapter that was not written.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta carries counts and timings.
type Meta struct {
	Count       int   `json:"count,omitempty"`
	QueryTimeMs int64 `json:"query_time_ms,omitempty"`
}

// outputJSON writes resp to stdout. Non-ASCII text (CJK chapter titles) is
// written as is.
func outputJSON(resp Response) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	_ = enc.Encode(resp)
}

func outputSuccess(data interface{}, meta *Meta) {
	outputJSON(Response{OK: true, Data: data, Meta: meta})
}

func outputSuccessWithWarnings(data interface{}, warnings []Warning, meta *Meta) {
	outputJSON(Response{OK: true, Data: data, Warnings: warnings, Meta: meta})
}

// outputFailure reports a failed command that still has data to show, like
// the per-file results of an import where some files failed.
func outputFailure(code, message string, data interface{}, warnings []Warning) {
	outputJSON(Response{
		OK:       false,
		Data:     data,
		Error:    &ErrorInfo{Code: code, Message: message},
		Warnings: warnings,
	})
}

func isJSONOutput() bool {
	return jsonOutput
}

// handleError reports err. In JSON mode it is written as an error envelope
// and errSilent is returned; otherwise err is returned, with the suggestion
// appended, for Execute to print.
func handleError(code string, err error, suggestion string) error {
	if jsonOutput {
		outputJSON(Response{
			Error: &ErrorInfo{Code: code, Message: err.Error(), Suggestion: suggestion},
		})
		return errSilent
	}
	if suggestion != "" {
		return fmt.Errorf("%w\n\n%s", err, suggestion)
	}
	return err
}

func handleErrorMsg(code, message, suggestion string) error {
	return handleError(code, fmt.Errorf("%s", message), suggestion)
}
