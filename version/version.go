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

// Package version reports the build version of the module's binaries.
package version

import (
	"runtime/debug"
	"strings"
)

// Product names the binaries built from this module.
const Product = "saprobe-alacbind"

// Version is overridden at link time with -ldflags "-X .../version.Version=v1.2.3".
//
//nolint:gochecknoglobals // set by the linker.
var Version = "dev"

// String returns "Product Version", falling back to the module version and VCS revision
// recorded in the build info when Version was not set at link time.
func String() string {
	return Product + " " + resolve()
}

func resolve() string {
	if Version != "dev" {
		return Version
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Version
	}

	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}

	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			return Version + "+" + strings.TrimSpace(setting.Value[:min(12, len(setting.Value))])
		}
	}

	return Version
}
