package mmfile

import "errors"

// ErrNotRegular indicates a path that is not a regular file.
var ErrNotRegular = errors.New("mmfile: not a regular file")
