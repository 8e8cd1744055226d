//go:build pktmemdebug

package pktmem

// Builds tagged pktmemdebug check every pool unless its Config says otherwise.
const debugChecks = true
