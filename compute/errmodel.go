package compute

// RawError is the round-trippable, storage-ready form of an error produced
// by a computation: a format code and version identifying the serializer,
// and the serialized payload.
type RawError struct {
	FormatCode    string `json:"format_code"`
	FormatVersion int    `json:"format_version"`
	Serialized    string `json:"serialized"`
}

// Error is a resolved RawError: it additionally knows how to materialize a
// concrete Go error for the computation it belongs to.
type Error interface {
	// Raw returns the storage form of this error.
	Raw() RawError

	// AsException returns a concrete error for this error code.
	AsException(identifier WorkflowIdentifier, path Path) error
}

// ExceptionSerializer converts an arbitrary error into a RawError. It must
// be total: it never fails, whatever the error value.
type ExceptionSerializer interface {
	SerializeException(err error) RawError
}

// ErrorResolver promotes a stored RawError to a resolved Error. Resolution
// fails when the format code is not recognised.
type ErrorResolver interface {
	ResolveError(raw RawError) (Error, error)
}

// SimpleErrorFormatCode is the format code of SimpleError.
const SimpleErrorFormatCode = "simple"

// SimpleErrorFormatVersion is the format version of SimpleError.
const SimpleErrorFormatVersion = 1

// SimpleError is the default error format: the error message as a plain
// string.
type SimpleError struct {
	Serialized string
}

// SerializeSimple returns the SimpleError representing the provided error.
func SerializeSimple(err error) SimpleError {
	if err == nil {
		return SimpleError{}
	}
	return SimpleError{Serialized: err.Error()}
}

// Raw returns the storage form of this error.
func (e SimpleError) Raw() RawError {
	return RawError{
		FormatCode:    SimpleErrorFormatCode,
		FormatVersion: SimpleErrorFormatVersion,
		Serialized:    e.Serialized,
	}
}

// AsException returns a ComputationErroredError carrying the serialized
// message.
func (e SimpleError) AsException(identifier WorkflowIdentifier, path Path) error {
	return &ComputationErroredError{Identifier: identifier, Path: path, Reason: e.Serialized}
}

// SimpleExceptionSerializer is the default ExceptionSerializer. It serializes
// any error as a SimpleError holding the error message.
type SimpleExceptionSerializer struct{}

// SerializeException implements ExceptionSerializer. It never fails.
func (SimpleExceptionSerializer) SerializeException(err error) RawError {
	return SerializeSimple(err).Raw()
}

// SimpleErrorResolver is the default ErrorResolver. It only recognises the
// SimpleError format.
type SimpleErrorResolver struct{}

// ResolveError implements ErrorResolver.
func (SimpleErrorResolver) ResolveError(raw RawError) (Error, error) {
	if raw.FormatCode != SimpleErrorFormatCode {
		return nil, &UnknownErrorFormatError{FormatCode: raw.FormatCode, FormatVersion: raw.FormatVersion}
	}
	return SimpleError{Serialized: raw.Serialized}, nil
}
