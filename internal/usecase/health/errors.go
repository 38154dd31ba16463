package health

import "errors"

var errIndexMissing = errors.New("search index missing")
