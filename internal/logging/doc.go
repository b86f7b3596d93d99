// Package logging builds the slog loggers used across weir and standardizes
// their structured fields.
//
// It provides a console handler that renders compact human-readable lines and
// a JSON handler for machine consumption, selected by config. Attribute
// helpers mirror the slog constructors so call sites stay terse, and the
// Field* constants keep key names consistent between the daemon, the watch
// engine, and the CLI.
//
// Warnings should carry cause, impact, and a next step: pair the message with
// FieldEventType, FieldErrorHint, and FieldImpact attributes.
package logging
