/*
   Copyright Mycophonic.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package alac

import (
	"errors"

	"github.com/mycophonic/saprobe-alacbind/engine"
)

var (
	// ErrInvalidParameter is returned when the engine rejects a format or configuration.
	ErrInvalidParameter = errors.New("ALAC error: invalid parameter")

	// ErrOutOfMemory is returned when the engine fails to allocate.
	ErrOutOfMemory = errors.New("ALAC error: out of memory")

	// ErrUnknown is returned for every other engine failure.
	ErrUnknown = errors.New("ALAC error: unknown error")

	// ErrConfig is returned when a configuration record is missing or mistyped.
	ErrConfig = errors.New("invalid configuration")

	// ErrClosed is returned by sessions used after Close.
	ErrClosed = errors.New("session closed")
)

// ErrorKind classifies engine failures.
type ErrorKind int

// Engine failure kinds.
const (
	KindUnknown ErrorKind = iota
	KindInvalidParameter
	KindOutOfMemory
)

// Err returns the sentinel error for the kind.
func (k ErrorKind) Err() error {
	switch k {
	case KindInvalidParameter:
		return ErrInvalidParameter
	case KindOutOfMemory:
		return ErrOutOfMemory
	default:
		return ErrUnknown
	}
}

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidParameter:
		return "InvalidParameter"
	case KindOutOfMemory:
		return "OutOfMemory"
	default:
		return "Unknown"
	}
}

// Classify maps an engine status to an error kind. Only the parameter and
// memory codes are recognized; every other value, success included, is Unknown.
// Callers check for engine.StatusOK before classifying.
func Classify(code engine.Status) ErrorKind {
	switch code {
	case engine.StatusParamError:
		return KindInvalidParameter
	case engine.StatusMemFullError:
		return KindOutOfMemory
	default:
		return KindUnknown
	}
}

// EngineError reports a failed engine call.
type EngineError struct {
	Op   string
	Kind ErrorKind
	Code engine.Status
}

func (e *EngineError) Error() string {
	return e.Op + ": " + e.Kind.Err().Error()
}

// Unwrap returns the sentinel for the error kind, so errors.Is(err, ErrInvalidParameter) works.
func (e *EngineError) Unwrap() error { return e.Kind.Err() }

// check returns nil for engine.StatusOK and an *EngineError otherwise.
func check(op string, code engine.Status) error {
	if code == engine.StatusOK {
		return nil
	}

	return &EngineError{Op: op, Kind: Classify(code), Code: code}
}
