package ids

import "github.com/oklog/ulid/v2"

// New returns a lexicographically sortable identifier. Purchase records and
// audit entries use these so that storage order matches creation order.
func New() string {
	return ulid.Make().String()
}
