package reactive

import "errors"

// errUnsafeAckRequired is returned by SetOverclock when a DEV tier is
// requested without the control path's unsafe acknowledgement.
var errUnsafeAckRequired = errors.New("reactive: dev overclock tier requires unsafe acknowledgement")
