package aggregator

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Request describes a creator analysis, as read from a YAML file:
//
//	name: Some Creator
//	urls:
//	  - https://www.youtube.com/watch?v=abc
//	manual:
//	  - platform: instagram
//	    title: Launch post
//	    text: |
//	      love this
//	      not for me
type Request struct {
	Name   string        `yaml:"name" json:"name"`
	URLs   []string      `yaml:"urls" json:"urls"`
	Manual []ManualEntry `yaml:"manual" json:"manual_data"`
}

// LoadRequestFile reads a creator analysis request.
func LoadRequestFile(path string) (*Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read request file: %w", err)
	}
	return ParseRequest(data)
}

// ParseRequest decodes a YAML request and checks it names at least one source.
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	if len(req.URLs) == 0 && len(req.Manual) == 0 {
		return nil, fmt.Errorf("request has no urls and no manual entries")
	}
	return &req, nil
}
