package nav

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	herrors "git.home.luguber.info/inful/handbook/internal/errors"
)

// Load reads a navigation descriptor file.
func Load(path string) (Sidebars, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, herrors.New(herrors.CategoryNavigation, herrors.SeverityFatal, "sidebar file not found").
				WithContext("path", path)
		}
		return nil, herrors.Wrap(err, herrors.CategoryNavigation, herrors.SeverityFatal, "read sidebar file").
			WithContext("path", path)
	}
	sidebars, err := Parse(data)
	if err != nil {
		if he, ok := herrors.As(err); ok {
			return nil, he.WithContext("path", path)
		}
		return nil, err
	}
	return sidebars, nil
}

// Parse decodes a descriptor: a mapping from sidebar name to either a list
// of items or a mapping of category labels to lists.
func Parse(data []byte) (Sidebars, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, invalid(err)
	}
	if len(doc.Content) == 0 {
		return Sidebars{}, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, invalid(fmt.Errorf("line %d: sidebar file must map sidebar names to items", root.Line))
	}

	var out Sidebars
	seen := map[string]bool{}
	for i := 0; i < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if seen[key.Value] {
			return nil, invalid(fmt.Errorf("line %d: duplicate sidebar %q", key.Line, key.Value))
		}
		seen[key.Value] = true

		sb := &Sidebar{Name: key.Value}
		switch value.Kind {
		case yaml.SequenceNode:
			if err := value.Decode(&sb.Items); err != nil {
				return nil, invalid(err)
			}
		case yaml.MappingNode:
			// {Label: [items]} shorthand: every key becomes a category.
			for j := 0; j < len(value.Content); j += 2 {
				cat := &Node{Type: KindCategory, Label: value.Content[j].Value, Line: value.Content[j].Line}
				if err := value.Content[j+1].Decode(&cat.Items); err != nil {
					return nil, invalid(err)
				}
				sb.Items = append(sb.Items, cat)
			}
		default:
			return nil, invalid(fmt.Errorf("line %d: sidebar %q must be a list or a mapping", value.Line, key.Value))
		}
		out = append(out, sb)
	}
	return out, nil
}

func invalid(err error) error {
	return herrors.Wrap(err, herrors.CategoryNavigation, herrors.SeverityFatal, "invalid sidebar file")
}
