/* Copyright 2025 Biblios Authors
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

// Package dirs provides base directories following the XDG specification
package dirs

import (
	"os"
	"path/filepath"
)

var (
	// Home is the home directory of the current user
	Home string
	// DataHome is the base directory for user-specific data files
	DataHome string
	// ConfigHome is the base directory for user-specific configuration files
	ConfigHome string
)

func init() {
	Reload()
}

// Reload re-reads the environment and recomputes the directories.
// Used in tests that manipulate the environment.
func Reload() {
	Home = homeDir()
	DataHome = dataHome()
	ConfigHome = configHome()
}

func homeDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return h
	}

	return os.Getenv("HOME")
}

func dataHome() string {
	if env := os.Getenv("XDG_DATA_HOME"); env != "" {
		return env
	}

	return filepath.Join(homeDir(), ".local", "share")
}

func configHome() string {
	if env := os.Getenv("XDG_CONFIG_HOME"); env != "" {
		return env
	}

	return filepath.Join(homeDir(), ".config")
}
