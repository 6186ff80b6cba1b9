package seo

import (
	"github.com/go-playground/validator/v10"
)

// PageType selects the Open Graph type and the structured-data variant of a page.
type PageType string

const (
	TypeWebsite PageType = "website"
	TypeArticle PageType = "article"
	TypeProfile PageType = "profile"
)

// TwitterCard is the twitter:card value.
type TwitterCard string

const (
	CardSummary           TwitterCard = "summary"
	CardSummaryLargeImage TwitterCard = "summary_large_image"
	CardApp               TwitterCard = "app"
	CardPlayer            TwitterCard = "player"
)

// Fixed defaults applied when a page does not override them.
const (
	DefaultLocale         = "en_US"
	DefaultRobots         = "index, follow"
	DefaultViewport       = "width=device-width, initial-scale=1.0"
	DefaultThemeColor     = "#3B82F6"
	DefaultManifest       = "/manifest.json"
	DefaultFavicon        = "/favicon.ico"
	DefaultAppleTouchIcon = "/apple-touch-icon.png"
	DefaultJobTitle       = "Full Stack Developer"
)

// Config is the SEO description of one page. Only Title and Description are required;
// every other field falls back to a default or is omitted from the output.
type Config struct {
	Title       string   `yaml:"title" validate:"required"`
	Description string   `yaml:"description" validate:"required"`
	Keywords    []string `yaml:"keywords"`

	Image     string   `yaml:"image"`
	URL       string   `yaml:"url" validate:"omitempty,url"`
	Canonical string   `yaml:"canonical" validate:"omitempty,url"`
	Type      PageType `yaml:"type" validate:"omitempty,oneof=website article profile"`

	SiteName string `yaml:"site-name"`
	Author   string `yaml:"author"`
	Locale   string `yaml:"locale"`

	PublishedTime string   `yaml:"published-time"`
	ModifiedTime  string   `yaml:"modified-time"`
	Section       string   `yaml:"section"`
	Tags          []string `yaml:"tags"`

	TwitterCard    TwitterCard `yaml:"twitter-card" validate:"omitempty,oneof=summary summary_large_image app player"`
	TwitterSite    string      `yaml:"twitter-site"`
	TwitterCreator string      `yaml:"twitter-creator"`

	Robots         string `yaml:"robots"`
	ThemeColor     string `yaml:"theme-color"`
	Manifest       string `yaml:"manifest"`
	Favicon        string `yaml:"favicon"`
	AppleTouchIcon string `yaml:"apple-touch-icon"`
}

var validate = validator.New()

// Validate reports problems with the config. Resolution never depends on it: an invalid
// config still resolves, so callers typically only log the returned error.
func (c Config) Validate() error {
	return validate.Struct(c)
}

// builtinDefaults are the values every page starts from.
func builtinDefaults() Config {
	return Config{
		Type:           TypeWebsite,
		Locale:         DefaultLocale,
		TwitterCard:    CardSummaryLargeImage,
		Robots:         DefaultRobots,
		ThemeColor:     DefaultThemeColor,
		Manifest:       DefaultManifest,
		Favicon:        DefaultFavicon,
		AppleTouchIcon: DefaultAppleTouchIcon,
	}
}

// merge lays over on top of base. A field of over wins whenever it is non-empty.
func merge(base, over Config) Config {
	out := base
	str := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	str(&out.Title, over.Title)
	str(&out.Description, over.Description)
	if len(over.Keywords) > 0 {
		out.Keywords = over.Keywords
	}
	str(&out.Image, over.Image)
	str(&out.URL, over.URL)
	str(&out.Canonical, over.Canonical)
	if over.Type != "" {
		out.Type = over.Type
	}
	str(&out.SiteName, over.SiteName)
	str(&out.Author, over.Author)
	str(&out.Locale, over.Locale)
	str(&out.PublishedTime, over.PublishedTime)
	str(&out.ModifiedTime, over.ModifiedTime)
	str(&out.Section, over.Section)
	if len(over.Tags) > 0 {
		out.Tags = over.Tags
	}
	if over.TwitterCard != "" {
		out.TwitterCard = over.TwitterCard
	}
	str(&out.TwitterSite, over.TwitterSite)
	str(&out.TwitterCreator, over.TwitterCreator)
	str(&out.Robots, over.Robots)
	str(&out.ThemeColor, over.ThemeColor)
	str(&out.Manifest, over.Manifest)
	str(&out.Favicon, over.Favicon)
	str(&out.AppleTouchIcon, over.AppleTouchIcon)
	return out
}
