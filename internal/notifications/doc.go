// Package notifications delivers capture events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and degrades to a no-op when no topic is set. Filed-folder and
// error events can each be switched off in the [notifications] section; the
// test event always goes out so `filingdesk notify test` can verify delivery.
package notifications
