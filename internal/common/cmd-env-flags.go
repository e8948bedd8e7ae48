// This module provides integration of the flag package with environment variables.
// The purpose is to launch either `cachedaemon -cache-dir /path` or
// `QUICKEN_CACHE_DIR=/path cachedaemon`. See usages of CmdEnvString and others.

package common

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type cmdLineArg interface {
	flag.Value
	isFlagSet() bool
	getCmdName() string
	getDescription() string
}

var allCmdLineArgs []cmdLineArg

type cmdLineArgBool struct {
	cmdName string
	usage   string

	isSet bool
	value bool
}

func (s *cmdLineArgBool) String() string { return strconv.FormatBool(s.value) }
func (s *cmdLineArgBool) IsBoolFlag() bool { return true }
func (s *cmdLineArgBool) getDescription() string { return s.usage }
func (s *cmdLineArgBool) isFlagSet() bool { return s.isSet }
func (s *cmdLineArgBool) getCmdName() string { return s.cmdName }

func (s *cmdLineArgBool) Set(v string) error {
	s.isSet = true
	b, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}
	s.value = b
	return nil
}

type cmdLineArgString struct {
	cmdName string
	usage   string

	isSet bool
	value string
}

func (s *cmdLineArgString) String() string { return s.value }
func (s *cmdLineArgString) getDescription() string { return s.usage }
func (s *cmdLineArgString) isFlagSet() bool { return s.isSet }
func (s *cmdLineArgString) getCmdName() string { return s.cmdName }

func (s *cmdLineArgString) Set(v string) error {
	s.isSet = true
	s.value = v
	return nil
}

type cmdLineArgInt64 struct {
	cmdName string
	usage   string

	isSet bool
	value int64
}

func (s *cmdLineArgInt64) String() string { return strconv.FormatInt(s.value, 10) }
func (s *cmdLineArgInt64) getDescription() string { return s.usage }
func (s *cmdLineArgInt64) isFlagSet() bool { return s.isSet }
func (s *cmdLineArgInt64) getCmdName() string { return s.cmdName }

func (s *cmdLineArgInt64) Set(v string) error {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return err
	}
	s.isSet = true
	s.value = n
	return nil
}

func initCmdFlag(s cmdLineArg, cmdName string, usage string) {
	if cmdName != "" { // only env var makes sense
		flag.Var(s, cmdName, usage)
	}
}

func customPrintUsage() {
	fmt.Printf("Usage of %s:\n\n", os.Args[0])
	for _, f := range allCmdLineArgs {
		if f.getCmdName() == "" {
			continue
		}
		fmt.Printf("  -%s\n", f.getCmdName())
		fmt.Print("    \t")
		fmt.Print(strings.ReplaceAll(f.getDescription(), "\n", "\n    \t"))
		fmt.Print("\n\n")
	}
}

// CmdEnvBool registers a boolean command-line flag whose default is
// overridden by envName if set, before flag.Parse() runs.
func CmdEnvBool(usage string, def bool, cmdFlagName string, envName string) *bool {
	value := def
	if envName != "" {
		if raw, ok := os.LookupEnv(envName); ok {
			if b, err := strconv.ParseBool(raw); err == nil {
				value = b
			}
		}
	}

	sf := &cmdLineArgBool{cmdName: cmdFlagName, usage: usage, value: value}
	allCmdLineArgs = append(allCmdLineArgs, sf)
	initCmdFlag(sf, cmdFlagName, usage)
	return &sf.value
}

func CmdEnvString(usage string, def string, cmdFlagName string, envName string) *string {
	value := def
	if envName != "" {
		if raw, ok := os.LookupEnv(envName); ok {
			value = raw
		}
	}

	sf := &cmdLineArgString{cmdName: cmdFlagName, usage: usage, value: value}
	allCmdLineArgs = append(allCmdLineArgs, sf)
	initCmdFlag(sf, cmdFlagName, usage)
	return &sf.value
}

func CmdEnvInt(usage string, def int64, cmdFlagName string, envName string) *int64 {
	value := def
	if envName != "" {
		if raw, ok := os.LookupEnv(envName); ok {
			if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
				value = n
			}
		}
	}

	sf := &cmdLineArgInt64{cmdName: cmdFlagName, usage: usage, value: value}
	allCmdLineArgs = append(allCmdLineArgs, sf)
	initCmdFlag(sf, cmdFlagName, usage)
	return &sf.value
}

func ParseCmdFlagsCombiningWithEnv() {
	flag.Usage = customPrintUsage
	flag.Parse()
}
