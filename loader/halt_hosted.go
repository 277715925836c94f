//go:build !baremetal
// +build !baremetal

package loader

import "github.com/golang/glog"

// haltFn stops the machine. Tests replace it.
var haltFn = func() {
	glog.Exit("boot halted")
}
