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

package cmd

import (
	"fmt"
	"io"

	"github.com/biblios/biblios/pkg/clock"
	"github.com/biblios/biblios/pkg/prompt"
	"github.com/biblios/biblios/pkg/server/app"
	"github.com/biblios/biblios/pkg/server/config"
	"github.com/biblios/biblios/pkg/server/database"
	"github.com/biblios/biblios/pkg/server/log"
	"github.com/biblios/biblios/pkg/server/mailer"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

func initDB(dbPath string) (*gorm.DB, error) {
	db := database.Open(dbPath)
	database.InitSchema(db)
	if err := database.Migrate(db); err != nil {
		return nil, errors.Wrap(err, "running migrations")
	}

	return db, nil
}

func getEmailBackend() mailer.Backend {
	defaultBackend, err := mailer.NewDefaultBackend()
	if err != nil {
		log.Debug("SMTP not configured, using StdoutBackend for emails")
		return mailer.NewStdoutBackend()
	}

	log.Debug("Email backend configured")
	return defaultBackend
}

func initApp(cfg config.Config) (app.App, error) {
	db, err := initDB(cfg.DBPath)
	if err != nil {
		return app.App{}, err
	}

	return app.App{
		DB:             db,
		Clock:          clock.New(),
		EmailTemplates: mailer.NewTemplates(),
		EmailBackend:   getEmailBackend(),
		Rules:          cfg.Rules,
		AppEnv:         cfg.AppEnv,
		WebURL:         cfg.WebURL,
		Port:           cfg.Port,
		DBPath:         cfg.DBPath,
	}, nil
}

// setupApp builds a config from the dbPath flag, initializes the app and
// returns it with a cleanup function closing the database.
func setupApp(dbPath string) (*app.App, func(), error) {
	cfg, err := config.New(config.Params{DBPath: dbPath})
	if err != nil {
		return nil, nil, errors.Wrap(err, "loading config")
	}

	a, err := initApp(cfg)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := database.Close(a.DB); err != nil {
			log.ErrorWrap(err, "closing database")
		}
	}

	return &a, cleanup, nil
}

// confirm prompts for user input to confirm a choice
func confirm(r io.Reader, question string, optimistic bool) (bool, error) {
	message := prompt.FormatQuestion(question, optimistic)
	fmt.Print(message + " ")

	confirmed, err := prompt.ReadYesNo(r, optimistic)
	if err != nil {
		return false, errors.Wrap(err, "reading stdin")
	}

	return confirmed, nil
}
