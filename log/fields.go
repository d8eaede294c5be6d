package log

import "go.uber.org/zap"

var (
	Skip       = zap.Skip
	Binary     = zap.Binary
	Bool       = zap.Bool
	Boolp      = zap.Boolp
	ByteString = zap.ByteString
	Float64    = zap.Float64
	Float64p   = zap.Float64p
	Float32    = zap.Float32
	Float32p   = zap.Float32p
	Int        = zap.Int
	Int64      = zap.Int64
	Int32      = zap.Int32
	Int16      = zap.Int16
	Int8       = zap.Int8
	Uint       = zap.Uint
	Uint64     = zap.Uint64
	Uint32     = zap.Uint32
	Uint16     = zap.Uint16
	Uint8      = zap.Uint8
	Uintptr    = zap.Uintptr
	String     = zap.String
	Strings    = zap.Strings
	Stringer   = zap.Stringer
	Time       = zap.Time
	Duration   = zap.Duration
	Object     = zap.Object
	Any        = zap.Any
	Namespace  = zap.Namespace
	Reflect    = zap.Reflect
	ErrorField = zap.Error
	NamedError = zap.NamedError
	Stack      = zap.Stack
	StackSkip  = zap.StackSkip
	Inline     = zap.Inline
)
