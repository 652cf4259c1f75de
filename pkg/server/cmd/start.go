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
	"context"
	"fmt"
	"net/http"

	"github.com/biblios/biblios/pkg/server/buildinfo"
	"github.com/biblios/biblios/pkg/server/config"
	"github.com/biblios/biblios/pkg/server/controllers"
	"github.com/biblios/biblios/pkg/server/database"
	"github.com/biblios/biblios/pkg/server/ipc"
	"github.com/biblios/biblios/pkg/server/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newStartCmd() *cobra.Command {
	var appEnv string
	var port string
	var webURL string
	var ipcSocket string
	var logLevel string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New(config.Params{
				AppEnv:    appEnv,
				Port:      port,
				WebURL:    webURL,
				DBPath:    dbPathFlag,
				IPCSocket: ipcSocket,
				LogLevel:  logLevel,
			})
			if err != nil {
				return errors.Wrap(err, "loading config")
			}

			log.SetLevel(cfg.LogLevel)

			return startServer(cfg)
		},
	}

	cmd.Flags().StringVar(&appEnv, "appEnv", "", "application environment (env: APP_ENV, default: PRODUCTION)")
	cmd.Flags().StringVar(&port, "port", "", "server port (env: PORT, default: 3001)")
	cmd.Flags().StringVar(&webURL, "webUrl", "", "full URL to server without trailing slash (env: WebURL)")
	cmd.Flags().StringVar(&ipcSocket, "ipcSocket", "", "path to the desktop IPC Unix socket (env: IPCSocket, disabled when empty)")
	cmd.Flags().StringVar(&logLevel, "logLevel", "", "log level: debug, info, warn, or error (env: LOG_LEVEL, default: info)")

	return cmd
}

func startServer(cfg config.Config) error {
	a, err := initApp(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(a.DB); err != nil {
			log.ErrorWrap(err, "closing database")
		}
	}()

	// WAL checkpointing and periodic VACUUM keep the single-file database
	// compact over long-running desk sessions.
	maintenance := database.StartMaintenance(a.DB)
	defer maintenance.Stop()

	ctl := controllers.New(&a)
	rc := controllers.RouteConfig{
		Controllers: ctl,
		APIRoutes:   controllers.NewAPIRoutes(&a, ctl),
	}

	r, err := controllers.NewRouter(&a, rc)
	if err != nil {
		return errors.Wrap(err, "initializing router")
	}

	if cfg.IPCSocket != "" {
		ipcServer := ipc.NewServer(&a)
		if err := ipcServer.Listen(cfg.IPCSocket); err != nil {
			return errors.Wrap(err, "opening IPC socket")
		}
		defer ipcServer.Close()

		go func() {
			if err := ipcServer.Serve(context.Background()); err != nil {
				log.ErrorWrap(err, "IPC server failed")
			}
		}()

		log.WithFields(log.Fields{
			"socket": cfg.IPCSocket,
		}).Info("IPC bridge listening")
	}

	log.WithFields(log.Fields{
		"version": buildinfo.Version,
		"port":    cfg.Port,
	}).Info("Biblios server starting")

	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		return errors.Wrap(err, "server failed")
	}

	return nil
}
