package heif

import (
	"errors"
	"fmt"
)

type ErrorCode int32

const (
	ErrorOk                       ErrorCode = 0
	ErrorInputDoesNotExist        ErrorCode = 1
	ErrorInvalidInput             ErrorCode = 2
	ErrorUnsupportedFiletype      ErrorCode = 3
	ErrorUnsupportedFeature       ErrorCode = 4
	ErrorUsageError               ErrorCode = 5
	ErrorMemoryAllocationError    ErrorCode = 6
	ErrorDecoderPluginError       ErrorCode = 7
	ErrorEncoderPluginError       ErrorCode = 8
	ErrorEncodingError            ErrorCode = 9
	ErrorColorProfileDoesNotExist ErrorCode = 10
	ErrorPluginLoadingError       ErrorCode = 11
)

var errorCodeNames = map[ErrorCode]string{
	ErrorOk:                       "Ok",
	ErrorInputDoesNotExist:        "Input_does_not_exist",
	ErrorInvalidInput:             "Invalid_input",
	ErrorUnsupportedFiletype:      "Unsupported_filetype",
	ErrorUnsupportedFeature:       "Unsupported_feature",
	ErrorUsageError:               "Usage_error",
	ErrorMemoryAllocationError:    "Memory_allocation_error",
	ErrorDecoderPluginError:       "Decoder_plugin_error",
	ErrorEncoderPluginError:       "Encoder_plugin_error",
	ErrorEncodingError:            "Encoding_error",
	ErrorColorProfileDoesNotExist: "Color_profile_does_not_exist",
	ErrorPluginLoadingError:       "Plugin_loading_error",
}

func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("heif_error(%d)", int32(c))
}

var (
	// ErrEmptyInput is returned before any native call when there is nothing to decode.
	ErrEmptyInput = errors.New("heif: empty input buffer")
	// ErrInvalidPlane is returned when the decoded image has no usable interleaved plane.
	ErrInvalidPlane = errors.New("heif: decoded image has no usable interleaved plane")
)

// DecodeError is a failure reported by libheif through a heif_error record.
type DecodeError struct {
	Op      string
	Code    ErrorCode
	Subcode int32
	Message string
}

func newDecodeError(op string, rec ErrorRecord) *DecodeError {
	return &DecodeError{
		Op:      op,
		Code:    rec.Code,
		Subcode: rec.Subcode,
		Message: rec.Message,
	}
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("heif: %s: %s (code: %d %s, subcode: %d)", e.Op, e.Message, int32(e.Code), e.Code, e.Subcode)
}

// IOError wraps a failure to read the compressed source from disk. No native
// resource is acquired when it is returned.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("heif: read %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err may go away on a second attempt. Decode
// errors on the same bytes are deterministic; I/O errors may be transient.
func IsRetryable(err error) bool {
	var ioErr *IOError
	return errors.As(err, &ioErr)
}
