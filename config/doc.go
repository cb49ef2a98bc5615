// Package config loads asrkit configuration from a YAML file, an optional
// .env file and the process environment.
//
// Files are searched in ./cmd/<service>/config.yml, ./config/config.yml and
// ./config.yml unless an explicit path is given. Environment variables map to
// nested keys by splitting on underscores, so WER_WORKERS sets wer.workers.
//
//	var cfg AppConfig
//	err := config.LoadConfig("asrkit", &cfg, config.WithConfigFile(path))
package config
