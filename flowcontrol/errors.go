// The MIT License (MIT)
//
// Copyright (c) 2024 quicflow contributors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package flowcontrol

import "fmt"

// Kind classifies the three ways a flow-control call can fail. Peer-protocol
// anomalies (a MAX_DATA that decreases, an attempt to shrink a remembered
// initial limit) are not represented here: the controller logs and ignores
// those to stay robust against reordered or merely surprising peers.
type Kind int

const (
	// InvalidArgument marks a Reserve call whose requestedLimit is below the
	// stream's current assigned offset.
	InvalidArgument Kind = iota
	// InternalInvariant marks a programming error: a Server instance
	// invoking the client-only transport-parameter handler, or a stream id
	// the local role has no business sending on.
	InternalInvariant
	// Cancelled marks a WaitForCredit call aborted by its context.
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid argument"
	case InternalInvariant:
		return "internal invariant violated"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown flow-control error"
	}
}

// Error is the error type returned by every flowcontrol entry point that can
// fail. Use errors.Is against the Err* sentinels below, or inspect Kind
// directly.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is makes Error compatible with errors.Is(err, ErrInvalidArgument) and
// friends: two *Error values match when their Kind matches, regardless of
// Message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel values for errors.Is comparisons. Messages are irrelevant to Is,
// so these can stand in for any *Error of the same Kind.
var (
	ErrInvalidArgument = &Error{Kind: InvalidArgument}
	ErrInternal        = &Error{Kind: InternalInvariant}
	ErrCancelled       = &Error{Kind: Cancelled}
)

func invalidArgument(format string, args ...interface{}) error {
	return &Error{Kind: InvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func internalInvariant(format string, args ...interface{}) error {
	return &Error{Kind: InternalInvariant, Message: fmt.Sprintf(format, args...)}
}
