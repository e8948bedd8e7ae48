package daemonproto

import (
	"reflect"
	"strings"
	"testing"
)

func TestRequest_RoundTrip(t *testing.T) {
	req := Request{
		RepoRoot:      "/repo",
		ToolName:      "cc",
		ToolPath:      "/usr/bin/cc",
		MainFile:      "/repo/a.cpp",
		ToolArgs:      []string{"-Wall", "-O2"},
		InputPathArgs: []string{"-Iinclude"},
		OutputArgs:    []string{"-o", "a.o"},
	}

	encoded, err := EncodeRequest(req)
	if err != nil {
		t.Fatalf("EncodeRequest failed: %v", err)
	}
	if !strings.HasSuffix(string(encoded), frameEnd) {
		t.Fatalf("expected frame to end with the frame terminator")
	}

	decoded, err := DecodeRequest(encoded[:len(encoded)-1])
	if err != nil {
		t.Fatalf("DecodeRequest failed: %v", err)
	}

	if !reflect.DeepEqual(req, decoded) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, req)
	}
}

func TestRequest_ArgsWithSpacesSurviveRoundTrip(t *testing.T) {
	req := Request{
		RepoRoot: "/repo",
		ToolName: "cc",
		ToolPath: "/usr/bin/cc",
		MainFile: "/repo/a.cpp",
		ToolArgs: []string{`-DFLAG="has a space"`, `path\with\backslash`},
	}

	encoded, err := EncodeRequest(req)
	if err != nil {
		t.Fatalf("EncodeRequest failed: %v", err)
	}
	decoded, err := DecodeRequest(encoded[:len(encoded)-1])
	if err != nil {
		t.Fatalf("DecodeRequest failed: %v", err)
	}
	if !reflect.DeepEqual(req.ToolArgs, decoded.ToolArgs) {
		t.Fatalf("got %v, want %v", decoded.ToolArgs, req.ToolArgs)
	}
}

func TestDecodeRequest_MalformedFieldCount(t *testing.T) {
	_, err := DecodeRequest([]byte("only" + fieldSep + "two"))
	if err == nil {
		t.Fatalf("expected an error for a frame with the wrong field count")
	}
}

func TestResponse_RoundTrip(t *testing.T) {
	resp := Response{ExitCode: 2, CacheHit: true, Stdout: "out\ntext", Stderr: "err text"}

	encoded := EncodeResponse(resp)
	if !strings.HasSuffix(string(encoded), frameEnd) {
		t.Fatalf("expected frame to end with the frame terminator")
	}

	decoded, err := DecodeResponse(encoded[:len(encoded)-1])
	if err != nil {
		t.Fatalf("DecodeResponse failed: %v", err)
	}
	if !reflect.DeepEqual(resp, decoded) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, resp)
	}
}

func TestResponse_StdoutContainingFieldSeparatorIsPreserved(t *testing.T) {
	// stdout/stderr are quoted within their fields, so a stray field
	// separator inside them must not truncate the payload.
	resp := Response{ExitCode: 0, CacheHit: false, Stdout: "weird" + fieldSep + "payload", Stderr: ""}

	encoded := EncodeResponse(resp)
	decoded, err := DecodeResponse(encoded[:len(encoded)-1])
	if err != nil {
		t.Fatalf("DecodeResponse failed: %v", err)
	}
	if decoded.Stdout != resp.Stdout {
		t.Fatalf("got %q, want %q", decoded.Stdout, resp.Stdout)
	}
}
