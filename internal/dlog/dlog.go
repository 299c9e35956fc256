// Package dlog is the shared debug-logging gate used across blockfs's
// packages, grounded on go-nfsd's util.go DPrintf/Debug pair.
package dlog

import "log"

// Debug is the threshold below which DPrintf calls actually log. Raise it
// locally while debugging; 0 means silent.
const Debug = 0

// DPrintf logs via log.Printf when level <= Debug.
func DPrintf(level int, format string, a ...interface{}) {
	if level <= Debug {
		log.Printf(format, a...)
	}
}
