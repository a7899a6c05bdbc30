package hintdb

import "errors"

var ErrDuplicateKey = errors.New("hint already unlocked")
