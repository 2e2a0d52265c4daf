package fitting

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
)

// RoutingFn maps an input item to the fixed-width routing key an external
// consistent-hash ring consumes to select a physical worker. This module
// never calls it for placement; it only requires its presence on every
// non-sink stage.
type RoutingFn func(item any) uint64

// SinkRoute is the sentinel routing function carried by sink identities.
// A sink is never an input target, so routing through it is a programming
// error.
var SinkRoute RoutingFn = func(any) uint64 {
	panic("fitting: sink is not an input target")
}

// HashRoute routes by a stable hash of the item's JSON form. Items that
// fail to marshal fall back to their fmt representation, so the function
// is total.
func HashRoute() RoutingFn {
	return func(item any) uint64 {
		h := fnv.New64a()
		if data, err := json.Marshal(item); err == nil {
			_, _ = h.Write(data)
		} else {
			_, _ = fmt.Fprintf(h, "%v", item)
		}
		return h.Sum64()
	}
}

// ConstRoute routes every item to the same key. Useful for single-worker
// stages and for tests that need deterministic placement.
func ConstRoute(key uint64) RoutingFn {
	return func(any) uint64 { return key }
}
