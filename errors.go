package goelastic

import (
	"fmt"
)

// ErrorKind classifies an ElasticError into the DB-API error taxonomy.
type ErrorKind int

const (
	// KindOperational covers transport and connectivity faults.
	KindOperational ErrorKind = iota
	// KindProgramming covers unknown indices, malformed statements and bad parameters.
	KindProgramming
	// KindData covers responses that violate the expected response contract.
	KindData
	// KindClosed covers operations on a closed Cursor or Connection.
	KindClosed
	// KindInitialization covers a Connection whose client handle could not be built.
	KindInitialization
	// KindNotSupported covers database/sql features the cluster cannot provide.
	KindNotSupported
)

func (k ErrorKind) String() string {
	switch k {
	case KindOperational:
		return "OperationalError"
	case KindProgramming:
		return "ProgrammingError"
	case KindData:
		return "DataError"
	case KindClosed:
		return "ClosedResourceError"
	case KindInitialization:
		return "InitializationError"
	case KindNotSupported:
		return "NotSupportedError"
	}
	return "UnknownError"
}

// ElasticError is an error type including the error class, a driver error code and
// the cluster endpoint involved, if any.
type ElasticError struct {
	Number      int
	Kind        ErrorKind
	Message     string
	MessageArgs []interface{}
	Endpoint    string
	Err         error
}

func (ee *ElasticError) Error() string {
	message := ee.Message
	if len(ee.MessageArgs) > 0 {
		message = fmt.Sprintf(ee.Message, ee.MessageArgs...)
	}
	return fmt.Sprintf("%06d (%s): %s", ee.Number, ee.Kind, message)
}

// Unwrap returns the underlying transport error, if any.
func (ee *ElasticError) Unwrap() error {
	return ee.Err
}

// Is reports whether target is the class sentinel of this error's kind, or an
// ElasticError with the same code.
func (ee *ElasticError) Is(target error) bool {
	if ks, ok := target.(*kindSentinel); ok {
		return ks.kind == ee.Kind
	}
	if other, ok := target.(*ElasticError); ok {
		return other.Number == ee.Number
	}
	return false
}

type kindSentinel struct {
	kind ErrorKind
}

func (ks *kindSentinel) Error() string {
	return ks.kind.String()
}

var (
	// ErrOperational matches every connectivity and transport error.
	ErrOperational error = &kindSentinel{KindOperational}
	// ErrProgramming matches every programming error.
	ErrProgramming error = &kindSentinel{KindProgramming}
	// ErrData matches every response contract violation.
	ErrData error = &kindSentinel{KindData}
	// ErrClosed matches every operation attempted on a closed resource.
	ErrClosed error = &kindSentinel{KindClosed}
	// ErrInitialization matches client handle construction failures.
	ErrInitialization error = &kindSentinel{KindInitialization}
	// ErrNotSupported matches unsupported database/sql features.
	ErrNotSupported error = &kindSentinel{KindNotSupported}
)

const (
	// operational

	// ErrCodeConnectivity is an error code for the case where the cluster could not be reached.
	ErrCodeConnectivity = 270001
	// ErrCodeClusterUnavailable is an error code for the case where the cluster answered with a 5xx status.
	ErrCodeClusterUnavailable = 270002
	// ErrCodeCircuitOpen is an error code for the case where the circuit breaker rejected a request.
	ErrCodeCircuitOpen = 270003
	// ErrCodeAuthentication is an error code for the case where the cluster rejected the credentials.
	ErrCodeAuthentication = 270004

	// programming

	// ErrCodeIndexNotFound is an error code for the case where the index does not exist.
	ErrCodeIndexNotFound = 271001
	// ErrCodeBadRequest is an error code for the case where the cluster rejected the statement.
	ErrCodeBadRequest = 271002
	// ErrCodeInvalidParameter is an error code for the case where a parameter could not be substituted.
	ErrCodeInvalidParameter = 271003
	// ErrCodeInvalidStatement is an error code for the case where a pseudo statement is malformed.
	ErrCodeInvalidStatement = 271004
	// ErrCodeInvalidDSN is an error code for the case where a DSN or connection file cannot be parsed.
	ErrCodeInvalidDSN = 271005
	// ErrCodeFailedToFindDSNInToml is an error code for the case where the connection name is missing from connections.toml.
	ErrCodeFailedToFindDSNInToml = 271006
	// ErrCodeTomlFileParsingFailed is an error code for the case where a connections.toml value has the wrong type.
	ErrCodeTomlFileParsingFailed = 271007
	// ErrCodePrivateKeyParseError is an error code for the case where the JWT private key cannot be loaded.
	ErrCodePrivateKeyParseError = 271008
	// ErrCodeUnknownTLSConfig is an error code for a TLS config name that was never registered.
	ErrCodeUnknownTLSConfig = 271009
	// ErrCodeClientConfigFailed is an error code for a logging client config file that cannot be applied.
	ErrCodeClientConfigFailed = 271010

	// data

	// ErrCodeMissingColumns is an error code for the case where a query response has no columns field.
	ErrCodeMissingColumns = 272001
	// ErrCodeRowLengthMismatch is an error code for the case where a row does not match its description.
	ErrCodeRowLengthMismatch = 272002
	// ErrCodeMalformedResponse is an error code for the case where a response cannot be decoded.
	ErrCodeMalformedResponse = 272003
	// ErrCodeArrowConversion is an error code for a value that does not fit the arrow type of its column.
	ErrCodeArrowConversion = 272004

	// closed

	// ErrCodeCursorClosed is an error code for operations on a closed cursor.
	ErrCodeCursorClosed = 273001
	// ErrCodeConnectionClosed is an error code for operations on a closed connection.
	ErrCodeConnectionClosed = 273002

	// initialization

	// ErrCodeUnexpectedInit is an error code for a connection without a client handle.
	ErrCodeUnexpectedInit = 274001

	// not supported

	// ErrCodeNoTransactions is an error code for BEGIN on a cluster without transactions.
	ErrCodeNoTransactions = 275001
)

const (
	errMsgConnecting         = "Error connecting to %v: %v"
	errMsgClusterError       = "Error (%v): %v"
	errMsgClusterUnavailable = "cluster at %v answered with status %v: %v"
	errMsgCircuitOpen        = "requests to %v are suspended by the circuit breaker: %v"
	errMsgAuthentication     = "authentication against %v failed: %v"
	errMsgMissingColumns     = "Missing columns field, maybe it's an opendistro sql ep"
	errMsgRowLengthMismatch  = "row has %v values but the description has %v columns"
	errMsgMalformedResponse  = "failed to decode the response from %v: %v"
	errMsgUnsupportedParam   = "Unsupported param format: %v"
	errMsgMissingParam       = "missing value for parameter %q"
	errMsgBadPlaceholder     = "malformed placeholder at offset %v"
	errMsgParamCountMismatch = "statement has %v placeholders but %v arguments were given"
	errMsgEmptyTableName     = "SHOW ARRAY_COLUMNS requires a table name"
	errMsgMissingColumn      = "result of %q has no %q column"
	errMsgInvalidDSN         = "invalid DSN: %v"
	errMsgFailedToParseToml  = "failed to parse the connection file. key: %v, value: %v"
	errMsgFailedToFindDSN    = "failed to find the connection name in connections.toml"
	errMsgUnknownTLSConfig   = "TLS config %q is not registered"
	errMsgClientConfigFailed = "client configuration failed: %v"
)

var (
	// preformatted errors

	// ErrClosedCursor is returned if an operation is attempted on a closed cursor.
	ErrClosedCursor = &ElasticError{
		Number:  ErrCodeCursorClosed,
		Kind:    KindClosed,
		Message: "cursor already closed",
	}
	// ErrClosedConnection is returned if an operation is attempted on a closed connection.
	ErrClosedConnection = &ElasticError{
		Number:  ErrCodeConnectionClosed,
		Kind:    KindClosed,
		Message: "connection already closed",
	}
	// ErrUnexpectedInit is returned when a Connection has no client handle.
	ErrUnexpectedInit = &ElasticError{
		Number:  ErrCodeUnexpectedInit,
		Kind:    KindInitialization,
		Message: "unexpected error while initializing the cluster client",
	}
	// ErrMissingColumns is returned when a query response has no columns field.
	ErrMissingColumns = &ElasticError{
		Number:  ErrCodeMissingColumns,
		Kind:    KindData,
		Message: errMsgMissingColumns,
	}
	// ErrNoTransactions is returned by Begin.
	ErrNoTransactions = &ElasticError{
		Number:  ErrCodeNoTransactions,
		Kind:    KindNotSupported,
		Message: "transactions are not supported",
	}
)

func errConnectivity(endpoint string, cause error) *ElasticError {
	return &ElasticError{
		Number:      ErrCodeConnectivity,
		Kind:        KindOperational,
		Message:     errMsgConnecting,
		MessageArgs: []interface{}{endpoint, cause},
		Endpoint:    endpoint,
		Err:         cause,
	}
}

func errProgramming(code int, message string, args ...interface{}) *ElasticError {
	return &ElasticError{
		Number:      code,
		Kind:        KindProgramming,
		Message:     message,
		MessageArgs: args,
	}
}

func errData(code int, message string, args ...interface{}) *ElasticError {
	return &ElasticError{
		Number:      code,
		Kind:        KindData,
		Message:     message,
		MessageArgs: args,
	}
}
