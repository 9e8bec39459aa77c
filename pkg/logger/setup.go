package logger

import "io"

// SetupLogger installs the process default logger writing to out and returns it.
func SetupLogger(out io.Writer, logLevel string, logJSON, logSource bool) Logger {
	cfg := &Config{
		Level:      ParseLevel(logLevel),
		Output:     out,
		JSON:       logJSON,
		AddSource:  logSource,
		TimeFormat: "15:04:05",
	}
	Init(cfg)
	return GetDefault()
}
