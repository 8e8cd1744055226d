package pktmem

import (
	"fmt"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
)

var (
	pkgPath = reflect.TypeOf(Pool{}).PkgPath()

	// frames under these prefixes belong to the pool or its containers
	poolPrefixes = []string{pkgPath + ".", pkgPath + "/container/"}
)

// callerSite names the first frame outside the pool and its containers,
// which is the call a consumer made. Test files always count as consumers.
func callerSite() string {
	var pcs [32]uintptr
	n := runtime.Callers(2, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])
	for {
		f, more := frames.Next()
		if !poolFrame(f.Function, f.File) {
			return fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
		}
		if !more {
			return "unknown"
		}
	}
}

func poolFrame(function, file string) bool {
	if strings.HasSuffix(file, "_test.go") {
		return false
	}
	for _, p := range poolPrefixes {
		if strings.HasPrefix(function, p) {
			return true
		}
	}
	return false
}
