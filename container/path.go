package container

import (
	"fmt"
	"strings"
)

// ParseAttrPath parses an attribute path into object path and attribute name.
// Path format: /group/subgroup/object@attribute_name
//
// Examples:
//   - "/@dialect" -> objectPath="/", attrName="dialect"
//   - "/data/uniform/cells/Vm@unit" -> objectPath="/data/uniform/cells/Vm", attrName="unit"
func ParseAttrPath(path string) (objectPath, attrName string, err error) {
	if path == "" {
		return "", "", fmt.Errorf("%w: empty attribute path", ErrInvalidPath)
	}

	atIdx := strings.LastIndex(path, "@")
	if atIdx == -1 {
		return "", "", fmt.Errorf("%w: attribute path must contain '@': %s", ErrInvalidPath, path)
	}

	objectPath = CleanPath(path[:atIdx])
	attrName = path[atIdx+1:]
	if attrName == "" {
		return "", "", fmt.Errorf("%w: attribute name cannot be empty: %s", ErrInvalidPath, path)
	}

	return objectPath, attrName, nil
}

// JoinAttrPath creates an attribute path from object path and attribute name.
func JoinAttrPath(objectPath, attrName string) string {
	if objectPath == "/" {
		return "/@" + attrName
	}
	return objectPath + "@" + attrName
}

// SplitPath splits a path into its components.
// Leading and trailing slashes are handled, empty components are removed.
//
// Examples:
//   - "/" -> []string{}
//   - "/map/uniform" -> []string{"map", "uniform"}
//   - "map//uniform/" -> []string{"map", "uniform"}
func SplitPath(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// CleanPath normalizes a path, ensuring it starts with "/" and has no
// trailing or repeated slashes.
func CleanPath(path string) string {
	return "/" + strings.Join(SplitPath(path), "/")
}

// JoinPath appends name to a group path.
func JoinPath(parent, name string) string {
	if parent == "/" || parent == "" {
		return "/" + name
	}
	return parent + "/" + name
}

// validName checks a single path component.
func validName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidPath)
	case name == "." || name == "..":
		return fmt.Errorf("%w: reserved name %q", ErrInvalidPath, name)
	case strings.Contains(name, "/"):
		return fmt.Errorf("%w: name %q contains '/'", ErrInvalidPath, name)
	}
	return nil
}
