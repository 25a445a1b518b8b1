package logger

import (
	"io"
	"os"
	"strings"

	"github.com/shuldan/queues/pkg/contracts"
)

// NewFromConfig builds a logger from a "logger" config section:
//
//	level: trace|debug|info|warn|error|critical
//	format: text|json
//	output: stdout|stderr|discard
//	add_source: bool (alias include_caller)
//	color: bool (alias enable_colors)
//	timestamps: bool
func NewFromConfig(cfg contracts.Config) (contracts.Logger, error) {
	if cfg == nil {
		return NewLogger()
	}
	return NewLogger(optionsFromConfig(cfg)...)
}

func optionsFromConfig(cfg contracts.Config) []Option {
	opts := []Option{WithLevel(ParseLevel(cfg.GetString("level", "info")))}

	if strings.EqualFold(cfg.GetString("format", "text"), "json") {
		opts = append(opts, WithJSON())
	} else {
		opts = append(opts, WithText())
	}

	if cfg.GetBool("add_source", cfg.GetBool("include_caller", false)) {
		opts = append(opts, WithSource())
	}
	if cfg.GetBool("color", cfg.GetBool("enable_colors", false)) {
		opts = append(opts, WithColor())
	}

	if cfg.GetBool("timestamps", false) {
		opts = append(opts, WithTimestamps())
	}

	opts = append(opts, WithWriter(outputWriter(cfg.GetString("output", "stdout"))))
	return opts
}

func outputWriter(name string) io.Writer {
	switch strings.ToLower(name) {
	case "stderr":
		return os.Stderr
	case "discard", "none":
		return io.Discard
	default:
		return os.Stdout
	}
}
