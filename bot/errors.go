package bot

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupported is wrapped by a ConfigError when the account kind cannot
// deliver the message kind.
var ErrUnsupported = errors.New("message type not supported")

// ConfigError reports unusable robot configuration: a missing or malformed
// credentials file, a bad token string, or a message kind the account
// cannot deliver.
type ConfigError struct {
	Op  string
	Err error
}

func (e *ConfigError) Error() string { return "bot: " + e.Op + ": " + e.Err.Error() }

func (e *ConfigError) Unwrap() error { return e.Err }

// MessageError reports a message that cannot be sent as built.
type MessageError struct {
	Type   MessageType
	Reason string
}

func (e *MessageError) Error() string {
	if e.Type == "" {
		return "bot: invalid message: " + e.Reason
	}
	return fmt.Sprintf("bot: invalid %s message: %s", e.Type, e.Reason)
}

// TransportError wraps a failure of the transport: the request never got
// a well-formed answer.
type TransportError struct {
	Err      error
	scrubber *strings.Replacer
}

func (e *TransportError) Error() string {
	msg := e.Err.Error()
	if e.scrubber != nil {
		msg = e.scrubber.Replace(msg)
	}
	return "bot: transport: " + msg
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteError is a rejection reported by the robot service in the
// errcode/errmsg fields of its answer.
type RemoteError struct {
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("bot: remote error %d: %s", e.Code, e.Message)
}
