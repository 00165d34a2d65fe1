// Package config loads harness.yaml, the single file that configures the
// tactic runner, its persistence sinks and the uploader.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"antsbot.ai/internal/playgame"
	"antsbot.ai/internal/submit"
)

type Config struct {
	Playgame playgame.Config `yaml:"playgame"`
	Upload   UploadConfig    `yaml:"upload"`
	Archive  ArchiveConfig   `yaml:"archive"`
	Index    IndexConfig     `yaml:"index"`
	RunLog   RunLogConfig    `yaml:"runlog"`
	Feed     FeedConfig      `yaml:"feed"`
}

type UploadConfig struct {
	BaseURL    string `yaml:"base_url"`
	LoginPath  string `yaml:"login_path"`
	HomePath   string `yaml:"home_path"`
	SubmitPath string `yaml:"submit_path"`
	CheckPath  string `yaml:"check_path"`
	// Timeout bounds each request; zero leaves requests bounded by ctx only.
	Timeout time.Duration `yaml:"timeout"`
}

type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

type IndexConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type RunLogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// FeedConfig enables the websocket results feed when Listen is set.
type FeedConfig struct {
	Listen string `yaml:"listen"`
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("harness.yaml: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("harness.yaml: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		Playgame: playgame.Defaults(),
		Upload: UploadConfig{
			BaseURL:    "http://aichallenge.org/",
			LoginPath:  "check_login.php",
			HomePath:   "index.php",
			SubmitPath: "submit.php",
			CheckPath:  "check_submit.php",
		},
		Archive: ArchiveConfig{Dir: "./data/replays"},
		Index:   IndexConfig{Path: "./data/runs.sqlite"},
		RunLog:  RunLogConfig{Dir: "./data/runlog"},
	}
}

func (c *Config) Normalize() {
	if c == nil {
		return
	}
	d := defaults()
	c.Playgame.Normalize()

	u := &c.Upload
	u.BaseURL = strings.TrimSpace(u.BaseURL)
	if u.BaseURL == "" {
		u.BaseURL = d.Upload.BaseURL
	}
	fill := func(v *string, def string) {
		*v = strings.Trim(strings.TrimSpace(*v), "/")
		if *v == "" {
			*v = def
		}
	}
	fill(&u.LoginPath, d.Upload.LoginPath)
	fill(&u.HomePath, d.Upload.HomePath)
	fill(&u.SubmitPath, d.Upload.SubmitPath)
	fill(&u.CheckPath, d.Upload.CheckPath)

	c.Archive.Dir = strings.TrimSpace(c.Archive.Dir)
	if c.Archive.Dir == "" {
		c.Archive.Dir = d.Archive.Dir
	}
	c.Index.Path = strings.TrimSpace(c.Index.Path)
	if c.Index.Path == "" {
		c.Index.Path = d.Index.Path
	}
	c.RunLog.Dir = strings.TrimSpace(c.RunLog.Dir)
	if c.RunLog.Dir == "" {
		c.RunLog.Dir = d.RunLog.Dir
	}
	c.Feed.Listen = strings.TrimSpace(c.Feed.Listen)
}

func (c Config) Validate() error {
	if err := c.Playgame.Validate(); err != nil {
		return err
	}
	base, err := url.Parse(c.Upload.BaseURL)
	if err != nil {
		return fmt.Errorf("upload.base_url: %w", err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return fmt.Errorf("upload.base_url: want an absolute http(s) url, got %q", c.Upload.BaseURL)
	}
	if c.Upload.Timeout < 0 {
		return fmt.Errorf("upload.timeout: negative %s", c.Upload.Timeout)
	}
	if c.Feed.Listen != "" {
		host, _, err := net.SplitHostPort(c.Feed.Listen)
		if err != nil {
			return fmt.Errorf("feed.listen: %w", err)
		}
		if host != "localhost" {
			if ip := net.ParseIP(host); ip == nil || !ip.IsLoopback() {
				return fmt.Errorf("feed.listen: %q is not a loopback address", c.Feed.Listen)
			}
		}
	}
	return nil
}

// Endpoints resolves the upload page URLs against BaseURL.
func (u UploadConfig) Endpoints() submit.Endpoints {
	base := strings.TrimRight(u.BaseURL, "/") + "/"
	return submit.Endpoints{
		Login:       base + u.LoginPath,
		Home:        base + u.HomePath,
		SubmitForm:  base + u.SubmitPath,
		SubmitCheck: base + u.CheckPath,
	}
}
