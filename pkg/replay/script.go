// Package replay drives a race from a scripted input sequence with synthetic
// frame timing. Used for regression runs and to verify tracks without a browser.
package replay

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mpapenbr/lapracer/pkg/model"
)

var ErrInvalidScript = errors.New("invalid script")

// Script describes a scripted race. Each step holds its keys for the given
// number of frames; keys not listed are released.
type Script struct {
	Track     string `yaml:"track"`
	FrameRate int    `yaml:"frameRate,omitempty"`
	// the race is started before the first step unless set to false
	AutoStart *bool  `yaml:"autoStart,omitempty"`
	Steps     []Step `yaml:"steps"`
}

type Step struct {
	Frames int `yaml:"frames"`
	// physical key codes, e.g. ArrowUp or KeyW
	Keys []string `yaml:"keys,omitempty"`
	// logical commands (turnLeft, turnRight, accelerate, brake)
	Commands []string `yaml:"commands,omitempty"`
	Camera   string   `yaml:"camera,omitempty"`
	Start    bool     `yaml:"start,omitempty"`
}

func (s *Script) autoStart() bool {
	return s.AutoStart == nil || *s.AutoStart
}

// LoadScript reads a YAML script file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScript(data)
}

func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Script) Validate() error {
	var errs []error
	if s.Track == "" {
		errs = append(errs, errors.New("track is required"))
	}
	if s.FrameRate < 0 {
		errs = append(errs, errors.New("frameRate must not be negative"))
	}
	for i, step := range s.Steps {
		if step.Frames < 0 {
			errs = append(errs, fmt.Errorf("step %d: frames must not be negative", i))
		}
		for _, c := range step.Commands {
			if _, err := model.ParseCommand(c); err != nil {
				errs = append(errs, fmt.Errorf("step %d: %w", i, err))
			}
		}
		if step.Camera != "" {
			if _, err := model.ParseCameraMode(step.Camera); err != nil {
				errs = append(errs, fmt.Errorf("step %d: %w", i, err))
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidScript, errors.Join(errs...))
}

// TotalFrames is the number of frames the script runs.
func (s *Script) TotalFrames() int {
	total := 0
	for _, step := range s.Steps {
		total += step.Frames
	}
	return total
}
