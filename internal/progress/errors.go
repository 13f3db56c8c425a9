package progress

import "errors"

// ErrMissingUserID is returned by Registry.Engine for a blank user id.
var ErrMissingUserID = errors.New("user id is required")
