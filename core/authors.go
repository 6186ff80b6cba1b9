package core

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

type Authors struct {
	FilePath string
	Authors  []Author `yaml:"authors"`
}

type Author struct {
	Name     string `yaml:"name"`
	FullName string `yaml:"fullname"`
	JobTitle string `yaml:"job-title"`
	URL      string `yaml:"url"`
	Image    string `yaml:"image"`
	Twitter  string `yaml:"twitter"`
	WorksFor string `yaml:"works-for"`
}

// DisplayName is the full name, or the short name when no full name is set
func (a Author) DisplayName() string {
	if a.FullName != "" {
		return a.FullName
	}
	return a.Name
}

// Lookup finds an author by short name (case-insensitive)
func (a Authors) Lookup(name string) (Author, bool) {
	for _, author := range a.Authors {
		if strings.EqualFold(author.Name, name) {
			return author, true
		}
	}
	return Author{}, false
}

// Default returns the first listed author
func (a Authors) Default() (Author, bool) {
	if len(a.Authors) == 0 {
		return Author{}, false
	}
	return a.Authors[0], true
}

// Reads authors.yaml. A missing file yields an empty list.
func ReadAuthorsYaml(path string) (Authors, error) {
	authors := Authors{FilePath: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return authors, nil
		}
		return Authors{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &authors); err != nil {
		return Authors{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for i, author := range authors.Authors {
		if author.Name == "" {
			return Authors{}, NewValidationError(fmt.Sprintf("authors[%d].name", i), author.Name, "name is required")
		}
	}

	return authors, nil
}
