// Package submit uploads a packaged bot to the competition site: log in,
// scrape the one-time form tokens, post the archive.
package submit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SuccessMarker is the literal the submit check page shows on acceptance.
const SuccessMarker = "Success!"

var (
	ErrLoginRejected = errors.New("submit: login rejected")
	ErrTokenMissing  = errors.New("submit: form token missing")
	ErrNotAccepted   = errors.New("submit: upload not accepted")
)

// Endpoints are absolute URLs of the pages the upload flow touches.
type Endpoints struct {
	Login       string
	Home        string
	SubmitForm  string
	SubmitCheck string
}

// DefaultEndpoints derives the page URLs from the site base URL.
func DefaultEndpoints(base string) Endpoints {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	return Endpoints{
		Login:       base + "/check_login.php",
		Home:        base + "/index.php",
		SubmitForm:  base + "/submit.php",
		SubmitCheck: base + "/check_submit.php",
	}
}

func (e Endpoints) validate() error {
	for name, raw := range map[string]string{
		"login": e.Login, "home": e.Home, "submit form": e.SubmitForm, "submit check": e.SubmitCheck,
	} {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("%s url: %w", name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
			return fmt.Errorf("%s url: invalid %q", name, raw)
		}
	}
	return nil
}

// Client is one logged-in session. It owns its cookie jar; nothing is
// shared with http.DefaultClient.
type Client struct {
	ep   Endpoints
	jar  http.CookieJar
	http *http.Client
	log  *log.Logger
}

// NewClient builds a client with a fresh cookie jar. A zero timeout leaves
// requests bounded only by ctx.
func NewClient(ep Endpoints, timeout time.Duration, logger *log.Logger) (*Client, error) {
	if err := ep.validate(); err != nil {
		return nil, err
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Client{
		ep:   ep,
		jar:  jar,
		http: &http.Client{Jar: jar, Timeout: timeout},
		log:  logger,
	}, nil
}

// Jar exposes the session cookies.
func (c *Client) Jar() http.CookieJar { return c.jar }

// Login posts the credentials. The site answers a good login with a
// redirect to the home page; any other final URL is a rejection.
func (c *Client) Login(ctx context.Context, username, password string) error {
	form := url.Values{"username": {username}, "password": {password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ep.Login, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if got := resp.Request.URL.String(); got != c.ep.Home {
		return fmt.Errorf("%w: landed on %s, want %s", ErrLoginRejected, got, c.ep.Home)
	}
	c.log.Printf("logged in as %s", username)
	return nil
}

// FetchTokens loads the submit form and scrapes its hidden fields.
func (c *Client) FetchTokens(ctx context.Context) (Tokens, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ep.SubmitForm, nil)
	if err != nil {
		return Tokens{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Tokens{}, fmt.Errorf("submit form: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Tokens{}, fmt.Errorf("submit form: status %d", resp.StatusCode)
	}
	return ScrapeTokens(io.LimitReader(resp.Body, 4<<20))
}

// Submit posts the archive with the scraped tokens.
func (c *Client) Submit(ctx context.Context, tok Tokens, fileName string, data []byte) error {
	var f Form
	f.AddField(FieldMaxFileSize, tok.MaxFileSize)
	f.AddField(FieldSubmitKey, tok.SubmitKey)
	f.AddFile(FieldUploadedFile, fileName, "application/zip", data)
	body, contentType, err := f.Encode("")
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ep.SubmitCheck, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	defer resp.Body.Close()
	page, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("submit: read response: %w", err)
	}

	if got := resp.Request.URL.String(); got != c.ep.SubmitCheck {
		return fmt.Errorf("%w: landed on %s, want %s", ErrNotAccepted, got, c.ep.SubmitCheck)
	}
	if !strings.Contains(string(page), SuccessMarker) {
		return fmt.Errorf("%w: response has no %q (status %d)", ErrNotAccepted, SuccessMarker, resp.StatusCode)
	}
	return nil
}

// Upload runs the whole flow for the archive at path. Nothing is retried.
func (c *Client) Upload(ctx context.Context, username, password, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := c.Login(ctx, username, password); err != nil {
		return err
	}
	tok, err := c.FetchTokens(ctx)
	if err != nil {
		return err
	}
	c.log.Printf("uploading %s (%d bytes, limit %s)", filepath.Base(path), len(data), tok.MaxFileSize)
	return c.Submit(ctx, tok, filepath.Base(path), data)
}
