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

// Package sshtest runs an in-process SSH server for driver tests. It
// answers exec requests from a canned command table and serves SFTP from
// the local filesystem.
package sshtest

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"io"
	"net"
	"os"
	"strconv"
	"sync"
	"testing"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// Server is a minimal SSH endpoint bound to 127.0.0.1.
type Server struct {
	Host string
	Port int

	listener net.Listener
	config   *ssh.ServerConfig

	mu          sync.Mutex
	commands    map[string]string
	stalled     map[string]bool
	stalledRead map[string]bool
	executed    []string
	wg          sync.WaitGroup
	done        chan struct{}
	closeOnce   sync.Once
}

// NewServer starts a server accepting username/password and registers
// its shutdown with t.Cleanup.
func NewServer(t testing.TB, username, password string) *Server {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate host key: %v", err)
	}

	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("host key signer: %v", err)
	}

	config := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == username && string(pass) == password {
				return nil, nil
			}

			return nil, errors.New("access denied")
		},
	}
	config.AddHostKey(signer)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	host, portStr, _ := net.SplitHostPort(listener.Addr().String())
	port, _ := strconv.Atoi(portStr)

	s := &Server{
		Host:        host,
		Port:        port,
		listener:    listener,
		config:      config,
		commands:    make(map[string]string),
		stalled:     make(map[string]bool),
		stalledRead: make(map[string]bool),
		done:        make(chan struct{}),
	}

	s.wg.Add(1)

	go s.serve()

	t.Cleanup(s.Close)

	return s
}

// Handle sets the stdout returned for an exact command string.
func (s *Server) Handle(cmd, output string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.commands[cmd] = output
}

// Stall makes cmd accept the exec request and then never answer until the
// server is closed.
func (s *Server) Stall(cmd string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stalled[cmd] = true
}

// StallRead makes SFTP reads of path block until the server is closed.
func (s *Server) StallRead(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stalledRead[path] = true
}

// Executed lists the exec commands received so far.
func (s *Server) Executed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.executed...)
}

// Close stops accepting connections and releases stalled requests.
func (s *Server) Close() {
	s.closeOnce.Do(func() { close(s.done) })
	_ = s.listener.Close()
	s.wg.Wait()
}

func (s *Server) serve() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}

		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	_, chans, reqs, err := ssh.NewServerConn(conn, s.config)
	if err != nil {
		_ = conn.Close()
		return
	}

	go ssh.DiscardRequests(reqs)

	for newChannel := range chans {
		if newChannel.ChannelType() != "session" {
			_ = newChannel.Reject(ssh.UnknownChannelType, "unsupported channel type")
			continue
		}

		ch, requests, err := newChannel.Accept()
		if err != nil {
			continue
		}

		go s.handleSession(ch, requests)
	}
}

func (s *Server) handleSession(ch ssh.Channel, requests <-chan *ssh.Request) {
	defer func() { _ = ch.Close() }()

	for req := range requests {
		switch req.Type {
		case "exec":
			var payload struct{ Command string }
			if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
				_ = req.Reply(false, nil)
				continue
			}

			_ = req.Reply(true, nil)
			s.exec(ch, payload.Command)

			return
		case "subsystem":
			var payload struct{ Name string }
			if err := ssh.Unmarshal(req.Payload, &payload); err != nil || payload.Name != "sftp" {
				_ = req.Reply(false, nil)
				continue
			}

			_ = req.Reply(true, nil)
			s.serveSFTP(ch)

			return
		default:
			_ = req.Reply(req.Type == "env", nil)
		}
	}
}

func (s *Server) serveSFTP(ch ssh.Channel) {
	s.mu.Lock()
	stalls := len(s.stalledRead) > 0
	s.mu.Unlock()

	if stalls {
		handler := &fileHandler{server: s}
		server := sftp.NewRequestServer(ch, sftp.Handlers{
			FileGet:  handler,
			FilePut:  handler,
			FileCmd:  handler,
			FileList: handler,
		})

		if err := server.Serve(); err != nil && !errors.Is(err, io.EOF) {
			_ = server.Close()
		}

		return
	}

	server, err := sftp.NewServer(ch)
	if err != nil {
		return
	}

	if err := server.Serve(); err != nil && !errors.Is(err, io.EOF) {
		_ = server.Close()
	}
}

func (s *Server) exec(ch ssh.Channel, cmd string) {
	s.mu.Lock()
	s.executed = append(s.executed, cmd)
	output, ok := s.commands[cmd]
	stalled := s.stalled[cmd]
	s.mu.Unlock()

	if stalled {
		<-s.done
		return
	}

	status := uint32(0)

	if ok {
		_, _ = io.WriteString(ch, output)
	} else {
		status = 1
		_, _ = io.WriteString(ch.Stderr(), "% Invalid input detected at '^' marker.\n")
	}

	_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{status}))
}

// fileHandler serves reads from the local filesystem, blocking on stalled
// paths. Everything else is unsupported.
type fileHandler struct {
	server *Server
}

func (h *fileHandler) Fileread(r *sftp.Request) (io.ReaderAt, error) {
	h.server.mu.Lock()
	stalled := h.server.stalledRead[r.Filepath]
	h.server.mu.Unlock()

	if stalled {
		return stallReader{done: h.server.done}, nil
	}

	return os.Open(r.Filepath)
}

func (*fileHandler) Filewrite(*sftp.Request) (io.WriterAt, error) {
	return nil, sftp.ErrSSHFxOpUnsupported
}

func (*fileHandler) Filecmd(*sftp.Request) error {
	return sftp.ErrSSHFxOpUnsupported
}

func (*fileHandler) Filelist(*sftp.Request) (sftp.ListerAt, error) {
	return nil, sftp.ErrSSHFxOpUnsupported
}

type stallReader struct {
	done <-chan struct{}
}

func (r stallReader) ReadAt([]byte, int64) (int, error) {
	<-r.done
	return 0, io.EOF
}
