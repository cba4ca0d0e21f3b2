/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package version reports the netpoll build. Version and BuildID are set
// with -ldflags "-X github.com/carverauto/netpoll/pkg/version.version=...".
package version

import (
	"runtime"
	"runtime/debug"
)

//nolint:gochecknoglobals // set through ldflags
var (
	version = "dev"
	buildID = "dev"
)

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"`
	BuildID   string `json:"build_id"`
	GoVersion string `json:"go_version"`
	Revision  string `json:"revision,omitempty"`
}

func GetVersion() string {
	return version
}

// Get collects the ldflags values and the VCS revision stamped by the Go
// toolchain, when present.
func Get() Info {
	info := Info{
		Version:   version,
		BuildID:   buildID,
		GoVersion: runtime.Version(),
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				info.Revision = s.Value
			}
		}
	}

	return info
}

// String is the one line form printed by `netpoll version`.
func (i Info) String() string {
	s := i.Version + " (build: " + i.BuildID + ", " + i.GoVersion
	if i.Revision != "" {
		s += ", rev " + i.Revision
	}

	return s + ")"
}
