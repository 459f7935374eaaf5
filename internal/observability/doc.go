// Package observability records what genkvo does as structured JSON Lines
// events (one generation run or property update per line) and derives
// metrics from that log on demand.
package observability
