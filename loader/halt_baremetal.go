//go:build baremetal
// +build baremetal

package loader

import "github.com/aligator/stage2/bridge"

var haltFn = bridge.Halt
