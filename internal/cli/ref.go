package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/morrisclay/cds-console/internal/model"
)

// parseProjectKey validates a project key argument.
func parseProjectKey(ref string) (string, error) {
	key := strings.TrimSpace(ref)
	if key == "" || strings.ContainsAny(key, "/ ") {
		return "", fmt.Errorf("invalid project key %q", ref)
	}
	return key, nil
}

// parseChildRef parses a "KEY/name" reference to an application or pipeline.
func parseChildRef(ref string) (model.Reference, error) {
	parts := strings.SplitN(ref, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return model.Reference{}, fmt.Errorf("invalid reference: expected KEY/name, got %q", ref)
	}
	if strings.Contains(parts[1], "/") {
		return model.Reference{}, fmt.Errorf("invalid reference: name %q contains a slash", parts[1])
	}
	return model.Reference{Project: parts[0], Name: parts[1]}, nil
}

// formatChildRef formats a KEY/name reference.
func formatChildRef(project, name string) string {
	return project + "/" + name
}

// parseID parses a numeric identifier argument.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// parseVariable parses a "name=value" argument.
func parseVariable(s, typ string) (model.Variable, error) {
	name, value, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return model.Variable{}, fmt.Errorf("invalid variable: expected name=value, got %q", s)
	}
	if typ == "" {
		typ = "string"
	}
	return model.Variable{Name: name, Value: value, Type: typ}, nil
}

// parsePermission accepts a permission level by name or number.
func parsePermission(s string) (int, error) {
	switch strings.ToLower(s) {
	case "read", "r", "4":
		return model.PermissionRead, nil
	case "execute", "rx", "read-execute", "5":
		return model.PermissionReadExecute, nil
	case "write", "rwx", "read-write", "7":
		return model.PermissionReadWrite, nil
	}
	return 0, fmt.Errorf("invalid permission %q (want read, execute or write)", s)
}

// permissionName is the inverse of parsePermission.
func permissionName(p int) string {
	switch p {
	case model.PermissionRead:
		return "read"
	case model.PermissionReadExecute:
		return "execute"
	case model.PermissionReadWrite:
		return "write"
	}
	return strconv.Itoa(p)
}

// decodeFile reads a YAML or JSON definition from path ("-" is stdin) into
// v. Field names are the API's JSON names in both formats.
func decodeFile(path string, v any) error {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return decodeDefinition(data, v)
}

func decodeDefinition(data []byte, v any) error {
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("invalid definition: %w", err)
	}
	if generic == nil {
		return fmt.Errorf("empty definition")
	}
	raw, err := json.Marshal(generic)
	if err != nil {
		return fmt.Errorf("invalid definition: %w", err)
	}
	return json.Unmarshal(raw, v)
}
