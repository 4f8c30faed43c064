package catalog

import "errors"

// ErrCatalogUnavailable is returned when there is no usable catalog: no local
// copy exists and the remote fetch failed.
var ErrCatalogUnavailable = errors.New("catalog unavailable")
