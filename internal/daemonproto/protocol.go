// Package daemonproto implements the wire protocol between the thin
// cachewrap front end and the cachedaemon process: a \b-delimited,
// \0-terminated line over a single unix-socket round trip per invocation.
// List-valued fields are JSON-encoded within their field so an argument
// containing a literal space or backslash can never corrupt the frame, and
// a response's stdout/stderr are Go-quoted so tool output containing \b or
// \0 bytes survives intact.
package daemonproto

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Request is what cachewrap sends: everything the daemon needs to resolve
// the tool adapter, build the CacheKey, and replay-or-run.
type Request struct {
	RepoRoot      string
	ToolName      string
	ToolPath      string
	MainFile      string
	ToolArgs      []string
	InputPathArgs []string
	OutputArgs    []string
}

// Response is what the daemon sends back.
type Response struct {
	ExitCode int
	CacheHit bool
	Stdout   string
	Stderr   string
}

const fieldSep = "\b"
const frameEnd = "\000"

// EncodeRequest serializes req into a single \0-terminated frame.
func EncodeRequest(req Request) ([]byte, error) {
	toolArgsJSON, err := json.Marshal(req.ToolArgs)
	if err != nil {
		return nil, err
	}
	inputArgsJSON, err := json.Marshal(req.InputPathArgs)
	if err != nil {
		return nil, err
	}
	outputArgsJSON, err := json.Marshal(req.OutputArgs)
	if err != nil {
		return nil, err
	}

	fields := []string{
		req.RepoRoot,
		req.ToolName,
		req.ToolPath,
		req.MainFile,
		string(toolArgsJSON),
		string(inputArgsJSON),
		string(outputArgsJSON),
	}

	return []byte(strings.Join(fields, fieldSep) + frameEnd), nil
}

// DecodeRequest parses a frame previously produced by EncodeRequest. raw
// must already have its trailing \0 stripped.
func DecodeRequest(raw []byte) (Request, error) {
	parts := strings.Split(string(raw), fieldSep)
	if len(parts) != 7 {
		return Request{}, fmt.Errorf("malformed request: expected 7 fields, got %d", len(parts))
	}

	var req Request
	req.RepoRoot = parts[0]
	req.ToolName = parts[1]
	req.ToolPath = parts[2]
	req.MainFile = parts[3]

	if err := json.Unmarshal([]byte(parts[4]), &req.ToolArgs); err != nil {
		return Request{}, fmt.Errorf("decoding tool_args: %w", err)
	}
	if err := json.Unmarshal([]byte(parts[5]), &req.InputPathArgs); err != nil {
		return Request{}, fmt.Errorf("decoding input_path_args: %w", err)
	}
	if err := json.Unmarshal([]byte(parts[6]), &req.OutputArgs); err != nil {
		return Request{}, fmt.Errorf("decoding output_args: %w", err)
	}

	return req, nil
}

// EncodeResponse serializes resp into a single \0-terminated frame.
func EncodeResponse(resp Response) []byte {
	hit := "0"
	if resp.CacheHit {
		hit = "1"
	}
	fields := []string{
		strconv.Itoa(resp.ExitCode),
		hit,
		strconv.Quote(resp.Stdout),
		strconv.Quote(resp.Stderr),
	}
	return []byte(strings.Join(fields, fieldSep) + frameEnd)
}

// DecodeResponse parses a frame previously produced by EncodeResponse. raw
// must already have its trailing \0 stripped.
func DecodeResponse(raw []byte) (Response, error) {
	parts := strings.SplitN(string(raw), fieldSep, 4)
	if len(parts) != 4 {
		return Response{}, fmt.Errorf("malformed response: expected 4 fields, got %d", len(parts))
	}

	exitCode, err := strconv.Atoi(parts[0])
	if err != nil {
		return Response{}, fmt.Errorf("decoding exit code: %w", err)
	}
	stdout, err := strconv.Unquote(parts[2])
	if err != nil {
		return Response{}, fmt.Errorf("decoding stdout: %w", err)
	}
	stderr, err := strconv.Unquote(parts[3])
	if err != nil {
		return Response{}, fmt.Errorf("decoding stderr: %w", err)
	}

	return Response{
		ExitCode: exitCode,
		CacheHit: parts[1] == "1",
		Stdout:   stdout,
		Stderr:   stderr,
	}, nil
}
