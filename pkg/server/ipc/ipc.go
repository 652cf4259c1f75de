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

// Package ipc is the desktop bridge: newline-delimited JSON requests over a
// Unix domain socket. Method names mirror the HTTP surface one to one and
// dispatch into the same engine operations, so a desktop shell gets the
// identical semantics without a TCP port.
package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"os"

	"github.com/biblios/biblios/pkg/server/app"
	"github.com/biblios/biblios/pkg/server/log"
	pkgErrors "github.com/pkg/errors"
)

// Request is one bridge call
type Request struct {
	ID     int             `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// Response is the reply to one bridge call
type Response struct {
	ID     int         `json:"id"`
	Result interface{} `json:"result,omitempty"`
	Error  *Error      `json:"error,omitempty"`
}

// Error carries a failed call's message
type Error struct {
	Message string `json:"message"`
}

// Handler executes one bridge method
type Handler func(params json.RawMessage) (interface{}, error)

// Server serves bridge calls over a Unix socket
type Server struct {
	app      *app.App
	handlers map[string]Handler
	listener net.Listener
}

// NewServer creates a bridge server with the full method table
func NewServer(a *app.App) *Server {
	s := &Server{
		app:      a,
		handlers: map[string]Handler{},
	}
	s.registerHandlers()

	return s
}

// Listen binds the Unix socket at the given path, removing a stale socket
// file left behind by an unclean shutdown.
func (s *Server) Listen(socketPath string) error {
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return pkgErrors.Wrap(err, "removing stale socket")
	}

	l, err := net.Listen("unix", socketPath)
	if err != nil {
		return pkgErrors.Wrap(err, "binding socket")
	}
	s.listener = l

	return nil
}

// Serve accepts connections until the context is canceled or the listener
// is closed
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		return pkgErrors.New("server is not listening")
	}

	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return pkgErrors.Wrap(err, "accepting connection")
			}
		}

		go s.handleConn(conn)
	}
}

// Close shuts the listener down
func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}

	return s.listener.Close()
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	encoder := json.NewEncoder(conn)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			encoder.Encode(Response{Error: &Error{Message: "malformed request"}})
			continue
		}

		resp := s.dispatch(req)
		if err := encoder.Encode(resp); err != nil {
			log.ErrorWrap(err, "writing bridge response")
			return
		}
	}

	if err := scanner.Err(); err != nil {
		log.ErrorWrap(err, "reading bridge connection")
	}
}

func (s *Server) dispatch(req Request) Response {
	handler, ok := s.handlers[req.Method]
	if !ok {
		return Response{ID: req.ID, Error: &Error{Message: "unknown method: " + req.Method}}
	}

	result, err := handler(req.Params)
	if err != nil {
		log.WithFields(log.Fields{
			"method": req.Method,
		}).Info(err.Error())
		return Response{ID: req.ID, Error: &Error{Message: err.Error()}}
	}

	return Response{ID: req.ID, Result: result}
}
