// Package normalisers turns raw provider payloads into the values the
// reconciliation core works with.
//
// Sub-packages:
//   - ics: iCalendar parsing and feed event normalisation
//   - html: HTML to text for email bodies
//   - eml: RFC 5322 message files to mail messages
//   - reservation: rule-based fact extraction from confirmation emails
package normalisers
