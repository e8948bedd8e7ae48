package daemon

import (
	"github.com/BurntSushi/toml"
)

// Configuration is cachedaemon's TOML config.
type Configuration struct {
	CacheDir       string
	SockPath       string
	LogFileName    string
	LogLevel       int
	RestoreWorkers int
}

func ParseConfiguration(filePath string) (*Configuration, error) {
	config := Configuration{
		CacheDir:       "",
		SockPath:       "/run/cachedaemon.sock",
		LogFileName:    "stderr",
		LogLevel:       1,
		RestoreWorkers: 8,
	}
	if filePath == "" {
		return &config, nil
	}
	if _, err := toml.DecodeFile(filePath, &config); err != nil {
		return nil, err
	}
	return &config, nil
}
