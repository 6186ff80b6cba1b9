package core

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"folio/seo"
)

// Configuration constants
const (
	DefaultPort       = 8080
	DefaultHostname   = "localhost"
	DefaultTitle      = "folio"
	DefaultFavicon    = "/assets/favicon.png"
	DefaultEnvFile    = ".env"
	MinPort           = 1
	MaxPort           = 65535
	MaxHostnameLength = 253
	MaxTitleLength    = 200
	MaxDescLength     = 500
)

// Run modes selected by the subcommand
const (
	ModeRun     = "run"
	ModeExport  = "export"
	ModeSitemap = "sitemap"
	ModeVersion = "version"
)

// Validation errors
var (
	ErrInvalidPort       = errors.New("port must be between 1 and 65535")
	ErrInvalidHostname   = errors.New("hostname is invalid")
	ErrInvalidBaseURL    = errors.New("base url is invalid")
	ErrEmptyDirectory    = errors.New("directory cannot be empty")
	ErrDirectoryNotExist = errors.New("directory does not exist")
	ErrInvalidPath       = errors.New("path contains invalid characters")
	ErrMissingOutput     = errors.New("output directory is required")
	ErrConfigNotFound    = errors.New("configuration file not found")
	ErrInvalidYAML       = errors.New("invalid YAML configuration")
)

var validate = validator.New()

type Server struct {
	Port        int    `yaml:"port"`
	Hostname    string `yaml:"hostname"`
	BaseURL     string `yaml:"base-url" validate:"omitempty,url"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

func (s *Server) Validate() error {
	if s.Port < MinPort || s.Port > MaxPort {
		return fmt.Errorf("%w: got %d", ErrInvalidPort, s.Port)
	}

	if s.Hostname != "" && net.ParseIP(s.Hostname) == nil && !isValidHostname(s.Hostname) {
		return fmt.Errorf("%w: %q", ErrInvalidHostname, s.Hostname)
	}

	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidBaseURL, s.BaseURL)
	}

	if len(s.Title) > MaxTitleLength {
		return fmt.Errorf("title too long: %d > %d", len(s.Title), MaxTitleLength)
	}

	if len(s.Description) > MaxDescLength {
		return fmt.Errorf("description too long: %d > %d", len(s.Description), MaxDescLength)
	}

	return nil
}

// SiteURL is the absolute origin used for canonical links and the sitemap.
// Falls back to http://hostname:port when no base url is configured.
func (s *Server) SiteURL() string {
	if s.BaseURL != "" {
		return strings.TrimSuffix(s.BaseURL, "/")
	}
	host := s.Hostname
	if host == "" {
		host = DefaultHostname
	}
	return fmt.Sprintf("http://%s:%d", host, s.Port)
}

func isValidHostname(hostname string) bool {
	if hostname == "" || len(hostname) > MaxHostnameLength {
		return false
	}

	if strings.HasPrefix(hostname, ".") || strings.HasSuffix(hostname, ".") {
		return false
	}

	for _, label := range strings.Split(hostname, ".") {
		if len(label) == 0 || len(label) > 63 {
			return false
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return false
		}
		for _, char := range label {
			if !((char >= 'a' && char <= 'z') ||
				(char >= 'A' && char <= 'Z') ||
				(char >= '0' && char <= '9') ||
				char == '-') {
				return false
			}
		}
	}

	return true
}

type Branding struct {
	Favicon string `yaml:"favicon"`
	CssFile string `yaml:"cssfile"`
}

func (b *Branding) Validate() error {
	if b.Favicon != "" && !isValidPath(b.Favicon) {
		return fmt.Errorf("%w: invalid favicon path", ErrInvalidPath)
	}

	if b.CssFile != "" && !isValidPath(b.CssFile) {
		return fmt.Errorf("%w: invalid CSS file path", ErrInvalidPath)
	}

	return nil
}

// Plugins holds free-form per-plugin settings, keyed by plugin name
type Plugins map[string]map[string]string

func (p Plugins) Validate() error {
	for pluginName, config := range p {
		if pluginName == "" {
			return errors.New("plugin name cannot be empty")
		}
		for key := range config {
			if key == "" {
				return fmt.Errorf("plugin %s has empty configuration key", pluginName)
			}
		}
	}
	return nil
}

// Get returns a plugin setting or def when unset
func (p Plugins) Get(plugin, key, def string) string {
	if v, ok := p[plugin][key]; ok && v != "" {
		return v
	}
	return def
}

type Config struct {
	FilePath      string
	SiteDirectory string
	Mode          string
	OutDirectory  string
	LogLevel      string
	Server        Server     `yaml:"server"`
	Branding      Branding   `yaml:"branding"`
	SEO           seo.Config `yaml:"seo"`
	Plugins       Plugins    `yaml:"plugins"`

	overrides overrides
}

// Values given explicitly on the command line, re-applied after site.yaml is read
type overrides struct {
	port     int
	hostname string
	baseURL  string
}

func (c *Config) applyOverrides() {
	if c.overrides.port != 0 {
		c.Server.Port = c.overrides.port
	}
	if c.overrides.hostname != "" {
		c.Server.Hostname = c.overrides.hostname
	}
	if c.overrides.baseURL != "" {
		c.Server.BaseURL = c.overrides.baseURL
	}
}

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server configuration error: %w", err)
	}

	if err := c.Branding.Validate(); err != nil {
		return fmt.Errorf("branding configuration error: %w", err)
	}

	if err := c.Plugins.Validate(); err != nil {
		return fmt.Errorf("plugins configuration error: %w", err)
	}

	return nil
}

// SEODefaults returns the site-wide SEO defaults, filled from the server section when unset
func (c *Config) SEODefaults() seo.Config {
	defaults := c.SEO
	if defaults.SiteName == "" {
		defaults.SiteName = c.Server.Title
	}
	if defaults.Description == "" {
		defaults.Description = c.Server.Description
	}
	if defaults.Favicon == "" && c.Branding.Favicon != "" {
		defaults.Favicon = c.Branding.Favicon
	}
	return defaults
}

func (c *Config) validateSiteDirectory() error {
	if c.SiteDirectory == "" {
		return fmt.Errorf("%w: site directory", ErrEmptyDirectory)
	}

	if !isValidPath(c.SiteDirectory) {
		return fmt.Errorf("%w: site directory", ErrInvalidPath)
	}

	if _, err := os.Stat(c.SiteDirectory); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrDirectoryNotExist, c.SiteDirectory)
	}

	return nil
}

func (c *Config) validateOutDirectory() error {
	if c.OutDirectory == "" {
		return ErrMissingOutput
	}

	if !isValidPath(c.OutDirectory) {
		return fmt.Errorf("%w: output directory", ErrInvalidPath)
	}

	return nil
}

// Validates file system paths
func isValidPath(path string) bool {
	if path == "" {
		return false
	}

	if strings.Contains(path, "../") || strings.Contains(path, "..\\") {
		return false
	}

	for _, char := range []string{"\x00", "<", ">", "|", "?", "*"} {
		if strings.Contains(path, char) {
			return false
		}
	}

	return true
}

// Options defines the command-line options structure
type Options struct {
	Port     int    `short:"p" long:"port" env:"FOLIO_PORT" description:"Port to run the HTTP server on" default:"8080"`
	Hostname string `short:"H" long:"hostname" env:"FOLIO_HOSTNAME" description:"Hostname of the HTTP server" default:"localhost"`
	BaseURL  string `short:"b" long:"base-url" env:"FOLIO_BASE_URL" description:"Public origin used for canonical links and the sitemap"`
	Out      string `short:"o" long:"out" env:"FOLIO_OUT" description:"Output directory"`
	LogLevel string `short:"l" long:"log-level" env:"FOLIO_LOG_LEVEL" description:"Log level (debug, info, warn, error)" default:"info"`
}

func (o *Options) Validate() error {
	if o.Port < MinPort || o.Port > MaxPort {
		return fmt.Errorf("%w: got %d", ErrInvalidPort, o.Port)
	}

	if o.Hostname != "" && !isValidHostname(o.Hostname) && net.ParseIP(o.Hostname) == nil {
		return fmt.Errorf("%w: %s", ErrInvalidHostname, o.Hostname)
	}

	if o.BaseURL != "" {
		if err := validate.Var(o.BaseURL, "url"); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidBaseURL, o.BaseURL)
		}
	}

	if o.Out != "" && !isValidPath(o.Out) {
		return fmt.Errorf("%w: output directory", ErrInvalidPath)
	}

	return nil
}

// Commands defines the available subcommands
type Commands struct {
	Run     SiteCommand
	Export  SiteCommand
	Sitemap SiteCommand
	Version VersionCommand
}

type SiteCommand struct {
	Args struct {
		Directory string `positional-arg-name:"directory" description:"Site directory"`
	} `positional-args:"yes" required:"yes"`
}

type VersionCommand struct{}

// Reads and validates a YAML configuration file
func ReadConfigYaml(config *Config, filePath string) error {
	if filePath == "" {
		return fmt.Errorf("%w: empty file path", ErrInvalidPath)
	}

	if !isValidPath(filePath) {
		return fmt.Errorf("%w: %s", ErrInvalidPath, filePath)
	}

	config.FilePath = filePath

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, filePath)
		}
		return fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidYAML, err.Error())
	}

	config.applyOverrides()

	if err := config.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	return nil
}

// Creates a new configuration with default values
func NewDefaultConfig() Config {
	return Config{
		LogLevel: DefaultLogLevel,
		Server: Server{
			Port:     DefaultPort,
			Hostname: DefaultHostname,
			Title:    DefaultTitle,
		},
		Branding: Branding{
			Favicon: DefaultFavicon,
		},
		Plugins: make(Plugins),
	}
}

// LoadEnvFile loads KEY=VALUE pairs into the environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Parses command line arguments and returns a validated configuration
func ParseCommandLineArguments() (Config, error) {
	return ParseArguments(os.Args[1:])
}

// ParseArguments parses args (without the program name)
func ParseArguments(args []string) (Config, error) {
	config := NewDefaultConfig()

	if err := LoadEnvFile(DefaultEnvFile); err != nil {
		return config, err
	}

	var opts Options
	var commands Commands

	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.AddCommand(ModeRun, "Run the server from a directory",
		"Serve the site in the specified directory and reload it on changes", &commands.Run)
	parser.AddCommand(ModeExport, "Export the site as static files",
		"Render every page of the specified directory, plus sitemap.xml and robots.txt, into --out", &commands.Export)
	parser.AddCommand(ModeSitemap, "Print the sitemap",
		"Load the specified directory and print its sitemap.xml to stdout", &commands.Sitemap)
	parser.AddCommand(ModeVersion, "Print the build version",
		"Print the build version", &commands.Version)

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, flagsErr.Message)
			os.Exit(0)
		}
		return config, fmt.Errorf("failed to parse command line arguments: %w", err)
	}

	if err := opts.Validate(); err != nil {
		return config, fmt.Errorf("invalid command line options: %w", err)
	}

	config.Server.Port = opts.Port
	config.Server.Hostname = opts.Hostname
	config.Server.BaseURL = opts.BaseURL
	config.OutDirectory = opts.Out
	config.LogLevel = opts.LogLevel

	if opts.Port != DefaultPort {
		config.overrides.port = opts.Port
	}
	if opts.Hostname != DefaultHostname {
		config.overrides.hostname = opts.Hostname
	}
	config.overrides.baseURL = opts.BaseURL

	if parser.Active == nil {
		return config, errors.New("no command specified")
	}

	config.Mode = parser.Active.Name
	switch config.Mode {
	case ModeRun:
		config.SiteDirectory = commands.Run.Args.Directory
	case ModeExport:
		config.SiteDirectory = commands.Export.Args.Directory
		if err := config.validateOutDirectory(); err != nil {
			return config, err
		}
	case ModeSitemap:
		config.SiteDirectory = commands.Sitemap.Args.Directory
	case ModeVersion:
		return config, nil
	default:
		return config, fmt.Errorf("unknown command: %s", config.Mode)
	}

	if err := config.validateSiteDirectory(); err != nil {
		return config, err
	}

	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
