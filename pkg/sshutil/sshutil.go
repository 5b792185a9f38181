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

// Package sshutil dials authenticated SSH sessions to network devices and
// runs one-shot exec commands on them.
package sshutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

const defaultPort = 22

var (
	ErrNoAuthMethods = errors.New("no authentication method available (need password, key file or agent)")
	ErrCommandFailed = errors.New("remote command failed")
)

// Config describes how to reach and authenticate to one device.
type Config struct {
	Host          string
	Port          int
	Username      string
	Password      string
	KeyFile       string
	KeyPassphrase string
	KnownHosts    string
	Timeout       time.Duration
	// DisableAgent skips SSH_AUTH_SOCK even when it is set.
	DisableAgent bool
}

// Address returns host:port, defaulting the port to 22.
func (c *Config) Address() string {
	port := c.Port
	if port == 0 {
		port = defaultPort
	}

	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

// Client is an SSH client plus the agent connection it may hold open.
type Client struct {
	*ssh.Client
	agentConn net.Conn
}

// Close closes the SSH connection and any agent socket.
func (c *Client) Close() error {
	var err error

	if c.Client != nil {
		err = c.Client.Close()
	}

	if c.agentConn != nil {
		_ = c.agentConn.Close()
	}

	return err
}

// Dial opens an authenticated SSH connection. The context bounds the TCP
// connect; cfg.Timeout bounds the handshake.
func Dial(ctx context.Context, cfg *Config) (*Client, error) {
	auth, agentConn, err := authMethods(cfg)
	if err != nil {
		return nil, err
	}

	closeAgent := func() {
		if agentConn != nil {
			_ = agentConn.Close()
		}
	}

	hostKeyCallback, err := hostKeyCallback(cfg.KnownHosts)
	if err != nil {
		closeAgent()
		return nil, err
	}

	clientConfig := &ssh.ClientConfig{
		User:            cfg.Username,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         cfg.Timeout,
	}

	address := cfg.Address()
	dialer := net.Dialer{Timeout: cfg.Timeout}

	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		closeAgent()
		return nil, fmt.Errorf("failed to dial %s: %w", address, err)
	}

	if cfg.Timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(cfg.Timeout))
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, address, clientConfig)
	if err != nil {
		_ = conn.Close()
		closeAgent()

		return nil, fmt.Errorf("failed to establish SSH connection to %s: %w", address, err)
	}

	// handshake deadline only
	_ = conn.SetDeadline(time.Time{})

	return &Client{Client: ssh.NewClient(sshConn, chans, reqs), agentConn: agentConn}, nil
}

func authMethods(cfg *Config) ([]ssh.AuthMethod, net.Conn, error) {
	var methods []ssh.AuthMethod

	if cfg.KeyFile != "" {
		signer, err := loadPrivateKey(cfg.KeyFile, cfg.KeyPassphrase)
		if err != nil {
			return nil, nil, err
		}

		methods = append(methods, ssh.PublicKeys(signer))
	}

	var agentConn net.Conn

	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" && !cfg.DisableAgent {
		if conn, err := net.Dial("unix", sock); err == nil {
			agentConn = conn
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
		}
	}

	if cfg.Password != "" {
		password := cfg.Password
		methods = append(methods,
			ssh.Password(password),
			// many network OSes only offer keyboard-interactive
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}

				return answers, nil
			}),
		)
	}

	if len(methods) == 0 {
		return nil, nil, ErrNoAuthMethods
	}

	return methods, agentConn, nil
}

func loadPrivateKey(path, passphrase string) (ssh.Signer, error) {
	key, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read SSH key '%s': %w", path, err)
	}

	var signer ssh.Signer

	if passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(key, []byte(passphrase))
	} else {
		signer, err = ssh.ParsePrivateKey(key)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to parse SSH key '%s': %w", path, err)
	}

	return signer, nil
}

func hostKeyCallback(knownHostsPath string) (ssh.HostKeyCallback, error) {
	if knownHostsPath == "" {
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // opt-in verification via known_hosts
	}

	cb, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load known_hosts '%s': %w", knownHostsPath, err)
	}

	return cb, nil
}

// Run executes cmd in a fresh session and returns its stdout. The session
// is torn down if ctx is cancelled first.
func Run(ctx context.Context, client *ssh.Client, cmd string) (string, error) {
	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("failed to open session: %w", err)
	}
	defer func() { _ = session.Close() }()

	var stdout, stderr bytes.Buffer

	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)

	go func() {
		done <- session.Run(cmd)
	}()

	select {
	case <-ctx.Done():
		_ = session.Close()

		return "", fmt.Errorf("command %q: %w", cmd, ctx.Err())
	case err := <-done:
		if err != nil {
			msg := bytes.TrimSpace(stderr.Bytes())
			if len(msg) == 0 {
				msg = bytes.TrimSpace(stdout.Bytes())
			}

			return stdout.String(), fmt.Errorf("%w: %q: %s: %w", ErrCommandFailed, cmd, msg, err)
		}
	}

	return stdout.String(), nil
}
