package poller

import "errors"

var errAlreadyStarted = errors.New("watcher already started")
