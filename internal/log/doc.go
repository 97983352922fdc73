// Package log builds the slog loggers used by dirharvest.
//
// Every logger returned here wraps its handler in a SecureHandler that masks
// credentials before they reach the output: the session cookie a directory
// requires, authorization headers and proxy credentials. Even in verbose
// mode these values are replaced with MaskValue.
//
//	logger := log.New(os.Stderr, log.Options{Verbose: true})
//	logger.Debug("request", "cookie", "PHPSESSID=abc123") // cookie=***REDACTED***
//	slog.SetDefault(logger)
package log
