// Package timesaved keeps the ledger of watch time the user avoided by
// reading analyses instead of watching videos.
//
// Each fresh analysis records an estimated minute count against (owner scope,
// local date, video id). The ledger only ever aggregates: daily and weekly
// minute totals, the streak of consecutive active days, and the distinct
// video count feed the paywall context shown when the quota runs out.
package timesaved
