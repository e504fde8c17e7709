package planner

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/goalflow/goalflow/pkg/models"
)

// Manifest plans from a YAML plan file:
//
//	name: data-pipeline
//	tasks:
//	  - id: fetch
//	    action_type: api_call
//	    action_config:
//	      url: https://example.com
//	  - id: store
//	    action_type: file_operation
//	    dependencies: [fetch]
type Manifest struct {
	Path string
}

type manifestFile struct {
	Name  string                   `yaml:"name"`
	Tasks []models.TaskDeclaration `yaml:"tasks"`
}

func NewManifest(path string) *Manifest {
	return &Manifest{Path: path}
}

// Plan reads and parses the plan file. The goal is carried on the workflow
// context only; the manifest fully determines the tasks.
func (m *Manifest) Plan(_ context.Context, _ string, _ models.Config) ([]models.TaskDeclaration, error) {
	data, err := os.ReadFile(m.Path)
	if err != nil {
		return nil, fmt.Errorf("reading plan file %s: %w", m.Path, err)
	}

	var file manifestFile

	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing plan file %s: %w", m.Path, err)
	}

	if len(file.Tasks) == 0 {
		return nil, fmt.Errorf("plan file %s declares no tasks", m.Path)
	}

	return file.Tasks, nil
}
