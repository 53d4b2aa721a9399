// Package connectors holds the adapters that talk to external inputs:
// Gmail mailboxes, Google calendars and iCalendar feeds. Each one
// implements driven.MailboxFetcher or driven.FeedFetcher and knows
// nothing about reconciliation.
package connectors
