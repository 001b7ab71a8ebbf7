// Package docs holds the user documentation of the sandbox, one markdown
// file per topic.
package docs

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed *.md
var docs embed.FS

// GetTopic returns the content of a documentation topic.
func GetTopic(topic string) (string, error) {
	if topic == "*" {
		topics, err := GetAllTopics()
		if err != nil {
			return "", err
		}
		return GetTopics(topics...)
	}

	content, err := docs.ReadFile(topic + ".md")
	if err != nil {
		return "", fmt.Errorf("topic %q not found: %w", topic, err)
	}
	return string(content), nil
}

// GetTopics returns the content of several topics separated by a blank line.
// The topic "*" stands for all of them.
func GetTopics(topics ...string) (string, error) {
	var b bytes.Buffer
	for _, topic := range topics {
		content, err := GetTopic(topic)
		if err != nil {
			return "", err
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// GetAllTopics returns the sorted list of topics, except the readme.
func GetAllTopics() ([]string, error) {
	var topics []string
	err := fs.WalkDir(docs, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if base == "readme" {
			return nil
		}
		topics = append(topics, base)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(topics)
	return topics, nil
}

// Title returns the first level heading of a topic.
func Title(topic string) (string, error) {
	content, err := GetTopic(topic)
	if err != nil {
		return "", err
	}
	first, _, _ := strings.Cut(content, "\n")
	return strings.TrimSpace(strings.TrimPrefix(first, "# ")), nil
}

// Index returns a markdown list of all the topics with their title.
func Index() (string, error) {
	topics, err := GetAllTopics()
	if err != nil {
		return "", err
	}
	var b bytes.Buffer
	b.WriteString("# Topics\n\n")
	for _, topic := range topics {
		title, err := Title(topic)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "* `%s`: %s\n", topic, title)
	}
	return b.String(), nil
}
