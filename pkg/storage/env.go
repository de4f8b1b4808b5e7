package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/postboy/postboy/pkg/core"
)

// varPattern matches {{VAR_NAME}} or {{env:VAR_NAME}}
var varPattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// LoadEnvironment loads environment variables from a YAML file
func LoadEnvironment(filePath string) (map[string]string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read environment file: %w", err)
	}

	var env map[string]string
	if err := yaml.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse environment YAML: %w", err)
	}
	if env == nil {
		env = make(map[string]string)
	}

	// Resolve any {{env:VAR}} references to actual environment variables
	for key, value := range env {
		env[key] = resolveEnvRefs(value)
	}

	return env, nil
}

// LoadNamedEnvironment loads <baseDir>/environments/<name>.yaml.
func LoadNamedEnvironment(baseDir, name string) (map[string]string, error) {
	return LoadEnvironment(filepath.Join(EnvironmentsDir(baseDir), name+".yaml"))
}

// SaveEnvironment saves environment variables to a YAML file
func SaveEnvironment(env map[string]string, filePath string) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if !strings.HasSuffix(filePath, ".yaml") && !strings.HasSuffix(filePath, ".yml") {
		filePath = filePath + ".yaml"
	}

	data, err := yaml.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal environment: %w", err)
	}

	return os.WriteFile(filePath, data, 0644)
}

// SetEnvironmentVars merges vars into <baseDir>/environments/<name>.yaml,
// creating the file when needed. Stored {{env:VAR}} references are kept
// unresolved.
func SetEnvironmentVars(baseDir, name string, vars map[string]string) error {
	path := filepath.Join(EnvironmentsDir(baseDir), name+".yaml")

	env := make(map[string]string)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &env); err != nil {
			return fmt.Errorf("failed to parse environment YAML: %w", err)
		}
		if env == nil {
			env = make(map[string]string)
		}
	case !os.IsNotExist(err):
		return fmt.Errorf("failed to read environment file: %w", err)
	}

	for k, v := range vars {
		env[k] = v
	}
	return SaveEnvironment(env, path)
}

// ListEnvironments lists all environment files
func ListEnvironments(baseDir string) ([]string, error) {
	envDir := EnvironmentsDir(baseDir)

	if _, err := os.Stat(envDir); os.IsNotExist(err) {
		return []string{}, nil
	}

	var envs []string
	entries, err := os.ReadDir(envDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read environments directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() && (strings.HasSuffix(entry.Name(), ".yaml") || strings.HasSuffix(entry.Name(), ".yml")) {
			name := strings.TrimSuffix(strings.TrimSuffix(entry.Name(), ".yaml"), ".yml")
			envs = append(envs, name)
		}
	}

	return envs, nil
}

// EnvironmentsDir returns the environments directory path
func EnvironmentsDir(baseDir string) string {
	return filepath.Join(baseDir, "environments")
}

// SubstituteVariables replaces {{VAR}} placeholders with values from the environment
func SubstituteVariables(text string, env map[string]string) string {
	return varPattern.ReplaceAllStringFunc(text, func(match string) string {
		varName := strings.TrimSpace(strings.TrimPrefix(strings.TrimSuffix(match, "}}"), "{{"))

		// env: prefix refers to the process environment
		if strings.HasPrefix(varName, "env:") {
			if val := os.Getenv(strings.TrimPrefix(varName, "env:")); val != "" {
				return val
			}
			return match
		}

		if val, ok := env[varName]; ok {
			return val
		}

		return match
	})
}

// ApplyEnvironment returns a copy of req with placeholders resolved in the
// URL, header and query values, and the body.
func ApplyEnvironment(req core.ComposedRequest, env map[string]string) core.ComposedRequest {
	applied := core.ComposedRequest{
		Method:      req.Method,
		URL:         SubstituteVariables(req.URL, env),
		QueryParams: substitutePairs(req.QueryParams, env),
		Headers:     substitutePairs(req.Headers, env),
	}

	if req.Body != nil {
		applied.Body = &core.Body{
			Type: req.Body.Type,
			Raw:  SubstituteVariables(req.Body.Raw, env),
			Form: substitutePairs(req.Body.Form, env),
		}
	}

	return applied
}

func substitutePairs(pairs []core.KeyValuePair, env map[string]string) []core.KeyValuePair {
	if pairs == nil {
		return nil
	}
	out := make([]core.KeyValuePair, len(pairs))
	for i, p := range pairs {
		p.Value = SubstituteVariables(p.Value, env)
		out[i] = p
	}
	return out
}

// resolveEnvRefs resolves {{env:VAR}} references in a string
func resolveEnvRefs(text string) string {
	return varPattern.ReplaceAllStringFunc(text, func(match string) string {
		varName := strings.TrimSpace(strings.TrimPrefix(strings.TrimSuffix(match, "}}"), "{{"))

		if strings.HasPrefix(varName, "env:") {
			if val := os.Getenv(strings.TrimPrefix(varName, "env:")); val != "" {
				return val
			}
		}
		return match
	})
}
