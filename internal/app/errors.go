package app

import "errors"

var errMissingUser = errors.New("user id required (--user or POLYCHAT_USER)")
