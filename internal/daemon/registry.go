package daemon

import (
	"fmt"

	"quicken/internal/adapter/cc"
	"quicken/internal/adapter/clangtidy"
	"quicken/internal/adapter/doxygen"
	"quicken/internal/adapter/moc"
	"quicken/internal/adapter/uic"
	"quicken/internal/cache"
	"quicken/internal/daemonproto"
)

// BuildAdapter resolves req.ToolName to a concrete cache.ToolAdapter. Tool
// family recognition is by name so cc/c++/gcc/g++/clang/clang++ all route
// to the same generic compiler adapter.
func BuildAdapter(req daemonproto.Request) (cache.ToolAdapter, error) {
	name := req.ToolName

	switch {
	case name == "clang-tidy":
		// clang-tidy analyzes the same translation unit a real compile
		// would; "clang++" is the portable default used for the
		// dependency-discovery side invocation.
		return clangtidy.New(req.ToolPath, "clang++", req.ToolArgs, req.OutputArgs, req.InputPathArgs), nil

	case name == "moc":
		return moc.New(req.ToolPath, req.ToolArgs, req.OutputArgs, req.InputPathArgs), nil

	case name == "uic":
		return uic.New(req.ToolPath, req.ToolArgs, req.OutputArgs, req.InputPathArgs), nil

	case name == "doxygen":
		return doxygen.New(req.ToolPath, req.ToolArgs, req.OutputArgs, req.InputPathArgs), nil

	case isCompilerName(name):
		return cc.New(req.ToolPath, req.ToolArgs, req.OutputArgs, req.InputPathArgs), nil

	default:
		return nil, fmt.Errorf("unsupported tool: %s", name)
	}
}

// cl.exe is deliberately absent: its flag syntax (/Fo, /showIncludes) is
// nothing like the gcc/clang adapter's -M/-MG discovery, so routing it here
// would break every invocation before the real tool even ran.
func isCompilerName(name string) bool {
	switch name {
	case "cc", "c++", "gcc", "g++", "clang", "clang++":
		return true
	default:
		return false
	}
}
