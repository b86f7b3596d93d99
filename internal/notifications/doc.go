// Package notifications delivers watch events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Detection and error toggles let users silence either class of
// message without removing the topic.
//
// Extend this package if you need alternative transports; daemon code depends
// only on the simple Service interface.
package notifications
