// Package logger is a standardized event logging framework for the shell.
// Events are recorded as newline delimited JSON objects and summarized by
// Report.
package logger
