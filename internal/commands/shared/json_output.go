// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package shared

import (
	"encoding/json"
	"io"
)

// JSONVersion is the envelope schema version.
const JSONVersion = "1.0"

// JSONResponse is the base envelope for all JSON output
type JSONResponse struct {
	Version string `json:"@version"`
	Command string `json:"command"`
	Success bool   `json:"success"`
}

// NewJSONResponse creates an envelope for command.
func NewJSONResponse(command string, success bool) JSONResponse {
	return JSONResponse{
		Version: JSONVersion,
		Command: command,
		Success: success,
	}
}

// JSONError represents a structured error with code, message and suggestion
type JSONError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	ExitCode   int    `json:"exit_code"`
	Suggestion string `json:"suggestion,omitempty"`
}

// EmitJSON marshals a response to indented JSON on w.
func EmitJSON(w io.Writer, response any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// EmitJSONError writes a failed envelope describing err.
func EmitJSONError(w io.Writer, command string, err error) error {
	type errorResponse struct {
		JSONResponse
		Errors []JSONError `json:"errors"`
	}

	jsonErr := JSONError{
		Code:     ErrorCodeFor(err),
		Message:  err.Error(),
		ExitCode: ExitCodeFor(err),
	}
	if s := suggestionFor(err); s != "" {
		jsonErr.Suggestion = s
	}

	return EmitJSON(w, errorResponse{
		JSONResponse: NewJSONResponse(command, false),
		Errors:       []JSONError{jsonErr},
	})
}

// Fail reports err for command. In JSON mode the error envelope goes to w
// and the returned error only carries the exit code; otherwise err is
// returned for HandleExitError to print.
func Fail(w io.Writer, command string, err error) error {
	if err == nil || !GetJSON() {
		return err
	}
	if emitErr := EmitJSONError(w, command, err); emitErr != nil {
		return err
	}
	return SilentExit(ExitCodeFor(err))
}
