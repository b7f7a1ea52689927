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

package alac_test

import (
	"errors"
	"testing"

	alac "github.com/mycophonic/saprobe-alacbind"
	"github.com/mycophonic/saprobe-alacbind/engine"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code engine.Status
		want alac.ErrorKind
	}{
		{engine.StatusParamError, alac.KindInvalidParameter},
		{engine.StatusMemFullError, alac.KindOutOfMemory},
		{engine.StatusUnimplemented, alac.KindUnknown},
		{engine.StatusFileNotFound, alac.KindUnknown},
		{engine.StatusOK, alac.KindUnknown},
		{1, alac.KindUnknown},
		{-1, alac.KindUnknown},
		{-51, alac.KindUnknown},
		{12345, alac.KindUnknown},
	}

	for _, tt := range tests {
		if got := alac.Classify(tt.code); got != tt.want {
			t.Errorf("Classify(%d) = %s, want %s", tt.code, got, tt.want)
		}
	}
}

func TestErrorKindMessages(t *testing.T) {
	t.Parallel()

	tests := map[alac.ErrorKind]string{
		alac.KindInvalidParameter: "ALAC error: invalid parameter",
		alac.KindOutOfMemory:      "ALAC error: out of memory",
		alac.KindUnknown:          "ALAC error: unknown error",
	}

	for kind, want := range tests {
		if got := kind.Err().Error(); got != want {
			t.Errorf("%s: message %q, want %q", kind, got, want)
		}
	}
}

func TestEngineErrorUnwrap(t *testing.T) {
	t.Parallel()

	err := error(&alac.EngineError{Op: "encode", Kind: alac.KindOutOfMemory, Code: engine.StatusMemFullError})

	if !errors.Is(err, alac.ErrOutOfMemory) {
		t.Errorf("errors.Is(%v, ErrOutOfMemory) = false", err)
	}

	if errors.Is(err, alac.ErrInvalidParameter) {
		t.Errorf("errors.Is(%v, ErrInvalidParameter) = true", err)
	}

	if got, want := err.Error(), "encode: ALAC error: out of memory"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestUnrecognizedCodeNeverSucceeds(t *testing.T) {
	t.Parallel()

	for _, code := range []engine.Status{1, -1, -4, -43, 99} {
		fake := &fakeEncoderEngine{cookieSize: 24, encodeStatus: code, encodeBytes: 10}

		enc, err := alac.NewEncoderWithEngine(alac.EncoderConfig{SampleRate: 44100, Channels: 2, BitDepth: 16}, fake)
		if err != nil {
			t.Fatalf("NewEncoderWithEngine: %v", err)
		}

		n, err := enc.Encode(make([]byte, 16), make([]byte, 64))
		if !errors.Is(err, alac.ErrUnknown) {
			t.Errorf("code %d: err = %v, want ErrUnknown", code, err)
		}

		if n != 0 {
			t.Errorf("code %d: n = %d, want 0", code, n)
		}

		var engineErr *alac.EngineError
		if !errors.As(err, &engineErr) || engineErr.Code != code {
			t.Errorf("code %d: EngineError = %+v", code, engineErr)
		}
	}
}
