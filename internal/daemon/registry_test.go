package daemon

import (
	"testing"

	"quicken/internal/adapter/cc"
	"quicken/internal/adapter/clangtidy"
	"quicken/internal/adapter/doxygen"
	"quicken/internal/adapter/moc"
	"quicken/internal/adapter/uic"
	"quicken/internal/daemonproto"
)

func TestBuildAdapter_RoutesKnownToolNames(t *testing.T) {
	cases := []struct {
		toolName string
		want     any
	}{
		{"cc", &cc.Adapter{}},
		{"g++", &cc.Adapter{}},
		{"clang++", &cc.Adapter{}},
		{"clang-tidy", &clangtidy.Adapter{}},
		{"moc", &moc.Adapter{}},
		{"uic", &uic.Adapter{}},
		{"doxygen", &doxygen.Adapter{}},
	}

	for _, tc := range cases {
		adapter, err := BuildAdapter(daemonproto.Request{ToolName: tc.toolName, ToolPath: "/usr/bin/" + tc.toolName})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.toolName, err)
		}
		switch tc.want.(type) {
		case *cc.Adapter:
			if _, ok := adapter.(*cc.Adapter); !ok {
				t.Fatalf("%s: expected a cc.Adapter, got %T", tc.toolName, adapter)
			}
		case *clangtidy.Adapter:
			if _, ok := adapter.(*clangtidy.Adapter); !ok {
				t.Fatalf("%s: expected a clangtidy.Adapter, got %T", tc.toolName, adapter)
			}
		case *moc.Adapter:
			if _, ok := adapter.(*moc.Adapter); !ok {
				t.Fatalf("%s: expected a moc.Adapter, got %T", tc.toolName, adapter)
			}
		case *uic.Adapter:
			if _, ok := adapter.(*uic.Adapter); !ok {
				t.Fatalf("%s: expected a uic.Adapter, got %T", tc.toolName, adapter)
			}
		case *doxygen.Adapter:
			if _, ok := adapter.(*doxygen.Adapter); !ok {
				t.Fatalf("%s: expected a doxygen.Adapter, got %T", tc.toolName, adapter)
			}
		}
	}
}

func TestBuildAdapter_RejectsUnknownToolName(t *testing.T) {
	_, err := BuildAdapter(daemonproto.Request{ToolName: "some-unknown-tool"})
	if err == nil {
		t.Fatalf("expected an error for an unrecognized tool name")
	}
}
