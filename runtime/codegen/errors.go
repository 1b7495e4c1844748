package codegen

import (
	"errors"

	"github.com/AltairaLabs/codestream/runtime/types"
)

var (
	// ErrMalformedMessage marks an inbound frame that failed to parse or
	// validate. The session continues.
	ErrMalformedMessage = types.ErrMalformedMessage

	// ErrApplication marks an error frame sent by the server. The session
	// continues until the server closes it.
	ErrApplication = errors.New("server reported an error")

	// ErrConnectTimeout marks a session whose connection was not
	// established within the connect timeout.
	ErrConnectTimeout = errors.New("connect timeout")

	// ErrTransport marks a low-level connection failure or an unexpected close code.
	ErrTransport = errors.New("transport failure")

	// ErrRecognizedApplicationFailure marks a session closed by the server
	// with AppErrorCode.
	ErrRecognizedApplicationFailure = errors.New("recognized application failure")
)
