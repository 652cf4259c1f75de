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

package config

import (
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/biblios/biblios/pkg/dirs"
	"github.com/pkg/errors"
)

const (
	// AppEnvProduction represents an app environment for production.
	AppEnvProduction string = "PRODUCTION"
	// DefaultDBDir is the default directory name for Biblios data
	DefaultDBDir = "biblios"
	// DefaultDBFilename is the default database filename
	DefaultDBFilename = "library.db"
)

var (
	// DefaultDBPath is the default path to the database file
	DefaultDBPath = filepath.Join(dirs.DataHome, DefaultDBDir, DefaultDBFilename)
)

var (
	// ErrDBMissingPath is an error for an incomplete configuration missing the database path
	ErrDBMissingPath = errors.New("DB Path is empty")
	// ErrWebURLInvalid is an error for an incomplete configuration with invalid web url
	ErrWebURLInvalid = errors.New("Invalid WebURL")
	// ErrPortInvalid is an error for an incomplete configuration with invalid port
	ErrPortInvalid = errors.New("Invalid Port")
)

func readBoolEnv(name string) bool {
	return os.Getenv(name) == "true"
}

// getOrEnv returns value if non-empty, otherwise env var, otherwise default
func getOrEnv(value, envKey, defaultVal string) string {
	if value != "" {
		return value
	}
	if env := os.Getenv(envKey); env != "" {
		return env
	}
	return defaultVal
}

func envInt(envKey string, defaultVal int) int {
	env := os.Getenv(envKey)
	if env == "" {
		return defaultVal
	}

	n, err := strconv.Atoi(env)
	if err != nil {
		return defaultVal
	}

	return n
}

// Rules are the circulation business rules. They were once hard-coded magic
// numbers; they are configuration so a deployment can tune them.
type Rules struct {
	// MaxOpenLoans is the number of open loans a member may hold
	MaxOpenLoans int
	// MaxRenewals is the number of times a loan may be renewed
	MaxRenewals int
	// LoanDays is the default loan duration in days
	LoanDays int
	// RenewDays is the default renewal extension in days
	RenewDays int
	// FinePerDay is the fine accrued per overdue day, in currency units
	FinePerDay int
	// DamagedFine is the flat fine for a damaged return
	DamagedFine int
	// LostFine is the flat fine for a lost copy
	LostFine int
	// QRStrictOwnership makes a QR return fail when a member ID is supplied
	// and none of the scanned loans belong to that member. When false the
	// return proceeds with a warning.
	QRStrictOwnership bool
}

// DefaultRules returns the default circulation rules
func DefaultRules() Rules {
	return Rules{
		MaxOpenLoans:      5,
		MaxRenewals:       2,
		LoanDays:          14,
		RenewDays:         7,
		FinePerDay:        5,
		DamagedFine:       100,
		LostFine:          500,
		QRStrictOwnership: false,
	}
}

// RulesFromEnv returns the circulation rules with environment overrides applied
func RulesFromEnv() Rules {
	r := DefaultRules()

	r.MaxOpenLoans = envInt("BIBLIOS_MAX_OPEN_LOANS", r.MaxOpenLoans)
	r.MaxRenewals = envInt("BIBLIOS_MAX_RENEWALS", r.MaxRenewals)
	r.LoanDays = envInt("BIBLIOS_LOAN_DAYS", r.LoanDays)
	r.RenewDays = envInt("BIBLIOS_RENEW_DAYS", r.RenewDays)
	r.FinePerDay = envInt("BIBLIOS_FINE_PER_DAY", r.FinePerDay)
	r.DamagedFine = envInt("BIBLIOS_DAMAGED_FINE", r.DamagedFine)
	r.LostFine = envInt("BIBLIOS_LOST_FINE", r.LostFine)
	r.QRStrictOwnership = readBoolEnv("BIBLIOS_QR_STRICT")

	return r
}

// Validate checks the rules for values that would break the engine
func (r Rules) Validate() error {
	if r.MaxOpenLoans <= 0 {
		return errors.New("MaxOpenLoans must be positive")
	}
	if r.MaxRenewals < 0 {
		return errors.New("MaxRenewals must not be negative")
	}
	if r.LoanDays <= 0 || r.RenewDays <= 0 {
		return errors.New("loan and renewal durations must be positive")
	}
	if r.FinePerDay < 0 || r.DamagedFine < 0 || r.LostFine < 0 {
		return errors.New("fines must not be negative")
	}

	return nil
}

// Config is an application configuration
type Config struct {
	AppEnv     string
	WebURL     string
	Port       string
	DBPath     string
	IPCSocket  string
	LogLevel   string
	Rules      Rules
}

// Params are the configuration parameters for creating a new Config
type Params struct {
	AppEnv    string
	Port      string
	WebURL    string
	DBPath    string
	IPCSocket string
	LogLevel  string
}

// New constructs and returns a new validated config.
// Empty string params will fall back to environment variables and defaults.
func New(p Params) (Config, error) {
	c := Config{
		AppEnv:    getOrEnv(p.AppEnv, "APP_ENV", AppEnvProduction),
		Port:      getOrEnv(p.Port, "PORT", "3001"),
		WebURL:    getOrEnv(p.WebURL, "WebURL", "http://localhost:3001"),
		DBPath:    getOrEnv(p.DBPath, "DBPath", DefaultDBPath),
		IPCSocket: getOrEnv(p.IPCSocket, "IPCSocket", ""),
		LogLevel:  getOrEnv(p.LogLevel, "LOG_LEVEL", "info"),
		Rules:     RulesFromEnv(),
	}

	if err := validate(c); err != nil {
		return Config{}, err
	}

	return c, nil
}

// IsProd checks if the app environment is configured to be production.
func (c Config) IsProd() bool {
	return c.AppEnv == AppEnvProduction
}

func validate(c Config) error {
	if _, err := url.ParseRequestURI(c.WebURL); err != nil {
		return errors.Wrapf(ErrWebURLInvalid, "'%s'", c.WebURL)
	}
	if c.Port == "" {
		return ErrPortInvalid
	}

	if c.DBPath == "" {
		return ErrDBMissingPath
	}

	return c.Rules.Validate()
}
