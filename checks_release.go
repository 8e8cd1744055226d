//go:build !pktmemdebug

package pktmem

const debugChecks = false
