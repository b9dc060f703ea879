// @license
// Copyright (C) 2023  Dinko Korunic
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package oauth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/dkorunic/mash-homework/logger"
	"github.com/google/renameio/v2/maybe"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/browser"
	"golang.org/x/oauth2"
)

const (
	AuthTimeout    = 90 * time.Second
	AuthListenAddr = "127.0.0.1:0"
	AuthScheme     = "http://"
	TokenPerm      = 0o600
)

var (
	ErrOAuthUUID        = errors.New("unable to generate UUID")
	ErrOAuthListen      = errors.New("unable to listen on a free local port")
	ErrOAuthHTTPServer  = errors.New("unable to start HTTP server")
	ErrOAuthBrowser     = errors.New("unable to open system browser")
	ErrOAuthTimeout     = errors.New("timeout while waiting for authentication to finish")
	ErrOAuthTokenFetch  = errors.New("unable to retrieve token from Google API")
	ErrOAuthTokenSave   = errors.New("unable to save token to file")
	ErrOAuthTokenEncode = errors.New("unable to encode OAuth token to JSON")

	// openURL opens the consent page, replaced in tests.
	openURL = browser.OpenURL
)

// GetClient returns an HTTP client authenticated with a token cached in tokenPath, running the browser consent
// flow and caching its token when there is no usable cached token.
func GetClient(ctx context.Context, config *oauth2.Config, tokenPath string) (*http.Client, error) {
	tok, err := tokenFromFile(tokenPath)
	if err != nil {
		logger.Debug().Msgf("No cached OAuth token in %v: %v", tokenPath, err)

		tok, err = getTokenFromWeb(ctx, config)
		if err != nil {
			return nil, err
		}

		if err = saveToken(tokenPath, tok); err != nil {
			return nil, err
		}
	}

	return config.Client(ctx, tok), nil
}

// getTokenFromWeb runs the authorization code flow: a local callback server on a random loopback port receives
// the code after the consent page opens in the system browser, and the code gets exchanged for a token.
func getTokenFromWeb(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	// random UUID as a state
	authReqState, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOAuthUUID, err)
	}

	state := authReqState.String()

	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", AuthListenAddr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOAuthListen, err)
	}

	// oauth config auth redirect uri
	config.RedirectURL = AuthScheme + ln.Addr().String()

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	s := http.Server{
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      5 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		Handler:           callbackHandler(state, codeChan),
	}
	defer s.Close()

	// oauth callback server
	go func() {
		if err := s.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("%w: %w", ErrOAuthHTTPServer, err)
		}
	}()

	authCodeURL := config.AuthCodeURL(state, oauth2.AccessTypeOffline)
	logger.Info().Msgf("Opening auth URL through system browser: %v", authCodeURL)

	// oauth dialog through system browser
	if err := openURL(authCodeURL); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOAuthBrowser, err)
	}

	timer := time.NewTimer(AuthTimeout)
	defer timer.Stop()

	var authCode string

	select {
	case authCode = <-codeChan:
	case err := <-errChan:
		return nil, err
	case <-timer.C:
		return nil, ErrOAuthTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	tok, err := config.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOAuthTokenFetch, err)
	}

	return tok, nil
}

// callbackHandler accepts a single authorization code carrying the expected state.
func callbackHandler(state string, codeChan chan<- string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "Invalid authentication state", http.StatusUnauthorized)

			return
		}

		select {
		case codeChan <- r.URL.Query().Get("code"):
		default:
		}

		_, _ = w.Write([]byte("Authentication complete, you can close this window."))
	})
}

// tokenFromFile reads a JSON encoded token from a file.
func tokenFromFile(tokenPath string) (*oauth2.Token, error) {
	b, err := os.ReadFile(tokenPath)
	if err != nil {
		return nil, err
	}

	tok := &oauth2.Token{}
	json := jsoniter.ConfigCompatibleWithStandardLibrary

	err = json.NewDecoder(bytes.NewReader(b)).Decode(tok)

	return tok, err
}

// saveToken atomically saves a JSON encoded token readable only by the owner.
func saveToken(tokenPath string, token *oauth2.Token) error {
	buf := new(bytes.Buffer)

	json := jsoniter.ConfigCompatibleWithStandardLibrary

	if err := json.NewEncoder(buf).Encode(token); err != nil {
		return fmt.Errorf("%w: %w", ErrOAuthTokenEncode, err)
	}

	if err := maybe.WriteFile(tokenPath, buf.Bytes(), TokenPerm); err != nil {
		return fmt.Errorf("%w: %w", ErrOAuthTokenSave, err)
	}

	logger.Info().Msgf("Saved OAuth token to %v", tokenPath)

	return nil
}
