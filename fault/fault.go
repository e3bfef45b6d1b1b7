// Package fault - error instances
//
// Provides a single instance of each error so callers can compare with
// errors.Is instead of matching on message text.
package fault

// error base, only the underlying type of the classes below
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type UnauthorizedError GenericError
type ProcessError GenericError

// common errors - keep in alphabetic order
var (
	ErrAlreadyExists        = ExistsError("collection already exists")
	ErrAlreadyInitialized   = ExistsError("identity has already been initialized")
	ErrAlreadyInstantiated  = ExistsError("ledger config already exists")
	ErrConfigNotFound       = NotFoundError("ledger config not found")
	ErrCorruptLengthCounter = ProcessError("stored length counter is corrupt")
	ErrCorruptRecord        = ProcessError("stored record is corrupt")
	ErrInvalidEntropy       = InvalidError("entropy is invalid")
	ErrInvalidIdentity      = InvalidError("identity is invalid")
	ErrInvalidReference     = InvalidError("reference is invalid")
	ErrInvalidSeed          = InvalidError("prng seed is required")
	ErrLengthOverflow       = ProcessError("collection length overflow")
	ErrNotACollection       = NotFoundError("not a collection")
	ErrOutOfRange           = NotFoundError("index out of range")
	ErrOwnerMismatch        = UnauthorizedError("collection owner does not match target")
	ErrSelfServiceOnly      = UnauthorizedError("operation is restricted to the caller's own collection")
	ErrUnauthorized         = UnauthorizedError("unauthorized")
	ErrUnsupportedHeader    = InvalidError("unsupported collection header version")
)

// the error interface methods
func (e ExistsError) Error() string       { return string(e) }
func (e InvalidError) Error() string      { return string(e) }
func (e NotFoundError) Error() string     { return string(e) }
func (e UnauthorizedError) Error() string { return string(e) }
func (e ProcessError) Error() string      { return string(e) }

// determine the class of an error, looking through wrapped errors
func IsErrExists(e error) bool       { var t ExistsError; return as(e, &t) }
func IsErrInvalid(e error) bool      { var t InvalidError; return as(e, &t) }
func IsErrNotFound(e error) bool     { var t NotFoundError; return as(e, &t) }
func IsErrUnauthorized(e error) bool { var t UnauthorizedError; return as(e, &t) }
func IsErrProcess(e error) bool      { var t ProcessError; return as(e, &t) }
