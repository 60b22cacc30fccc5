// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"bufio"
	"crypto/subtle"
	"fmt"
	"net/http"
	"os"
	"strings"

	cnserrors "github.com/NVIDIA/kopia-exporter/pkg/errors"
)

// authRealm is advertised in the WWW-Authenticate challenge.
const authRealm = "kopia-exporter"

// Credentials is a basic-auth user name and password.
type Credentials struct {
	Username string
	Password string
}

// LoadCredentialsFile reads "username:password" from the first non-empty
// line of path. The password may itself contain ':'.
func LoadCredentialsFile(path string) (*Credentials, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open credentials file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		user, pass, ok := strings.Cut(line, ":")
		if !ok || user == "" {
			return nil, fmt.Errorf("credentials file %s: expected username:password", path)
		}
		return &Credentials{Username: user, Password: pass}, nil
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	return nil, fmt.Errorf("credentials file %s is empty", path)
}

// ResolveCredentials combines the flag and file forms. It returns nil when
// authentication is not configured.
func ResolveCredentials(username, password, file string) (*Credentials, error) {
	switch {
	case file != "" && (username != "" || password != ""):
		return nil, fmt.Errorf("use either a credentials file or a username and password, not both")
	case file != "":
		return LoadCredentialsFile(file)
	case username == "" && password == "":
		return nil, nil
	case username == "" || password == "":
		return nil, fmt.Errorf("basic auth needs both a username and a password")
	default:
		return &Credentials{Username: username, Password: password}, nil
	}
}

// Matches compares in constant time.
func (c *Credentials) Matches(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(c.Password)) == 1
	return userOK && passOK
}

// basicAuthMiddleware rejects requests without matching credentials. It is
// a no-op when auth is not configured.
func (s *Server) basicAuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	creds := s.config.Auth
	if creds == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || !creds.Matches(user, pass) {
			authFailures.Inc()
			w.Header().Set("WWW-Authenticate", fmt.Sprintf("Basic realm=%q, charset=\"UTF-8\"", authRealm))
			WriteError(w, r, cnserrors.ErrCodeUnauthorized, "Authentication required", false, nil)
			return
		}
		next.ServeHTTP(w, r)
	}
}
