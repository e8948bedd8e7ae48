package main

import (
	"fmt"
	"os"
	"path/filepath"

	sdaemon "github.com/coreos/go-systemd/v22/daemon"

	"quicken/internal/cache"
	"quicken/internal/common"
	"quicken/internal/daemon"
)

func failedStart(err any) {
	_, _ = fmt.Fprintln(os.Stderr, "[quicken]", err)
	os.Exit(1)
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "quicken-cache")
	}
	return filepath.Join(home, ".quicken", "cache")
}

func main() {
	showVersionAndExit := common.CmdEnvBool("Show version and exit.", false,
		"version", "")
	configPath := common.CmdEnvString("Path to a TOML configuration file.", "",
		"config", "QUICKEN_DAEMON_CONFIG")
	cacheDirFlag := common.CmdEnvString("Cache root directory.", "",
		"cache-dir", "QUICKEN_CACHE_DIR")
	sockPathFlag := common.CmdEnvString("Unix socket path the daemon listens on.", "",
		"sock", "QUICKEN_DAEMON_SOCK")
	logFileName := common.CmdEnvString("A filename to log, stderr by default.", "",
		"log-file", "QUICKEN_LOG_FILENAME")
	logVerbosity := common.CmdEnvInt("Logger verbosity level for INFO (-1 off, default 1, max 2).", 1,
		"log-verbosity", "QUICKEN_LOG_VERBOSITY")

	common.ParseCmdFlagsCombiningWithEnv()

	if *showVersionAndExit {
		fmt.Println(common.GetVersion())
		os.Exit(0)
	}

	config, err := daemon.ParseConfiguration(*configPath)
	if err != nil {
		failedStart(err)
	}

	if *cacheDirFlag != "" {
		config.CacheDir = *cacheDirFlag
	}
	if config.CacheDir == "" {
		config.CacheDir = defaultCacheDir()
	}
	if *sockPathFlag != "" {
		config.SockPath = *sockPathFlag
	}
	if *logFileName != "" {
		config.LogFileName = *logFileName
	}
	if *logVerbosity != 1 { // a flag/env value other than the default 1 beats the config file; an explicit 1 does not
		config.LogLevel = int(*logVerbosity)
	}

	logger, err := common.MakeLogger(config.LogFileName, config.LogLevel, config.LogFileName != "stderr")
	if err != nil {
		failedStart(err)
	}

	store, err := cache.NewCacheStore(config.CacheDir, config.RestoreWorkers)
	if err != nil {
		failedStart(err)
	}

	d := daemon.MakeDaemon(store, logger, config.SockPath)
	if err := d.StartListeningUnixSocket(); err != nil {
		failedStart(err)
	}

	_, _ = sdaemon.SdNotify(false, sdaemon.SdNotifyReady)
	d.ServeUntilNobodyAlive()
	_, _ = sdaemon.SdNotify(false, sdaemon.SdNotifyStopping)
}
