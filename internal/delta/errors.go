package delta

import "errors"

// ErrInvalidOp indicates an operation that does not fit the delta
// vocabulary, such as a wire insert that is neither text nor an embed
// object.
var ErrInvalidOp = errors.New("invalid delta op")
