package sessiondb

import "errors"

var ErrNotFound = errors.New("round session not found")
