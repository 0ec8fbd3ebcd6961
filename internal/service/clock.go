package service

import "time"

// now is a package-level clock hook so tests can freeze timestamps.
var now = time.Now
