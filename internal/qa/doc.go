// Package qa manages conversational follow-up about an analyzed video. A
// session chains the backend continuation token across questions and keeps
// the exchange history, persisting it alongside the other artifacts.
package qa
