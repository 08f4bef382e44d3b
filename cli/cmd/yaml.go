package cmd

import (
	"fmt"

	"gopkg.in/yaml.v3"

	hocon "github.com/mikai233/hocon-go"
	"github.com/mikai233/hocon-go/hoconparser"
)

// valueToYAMLNode builds a yaml.Node tree by hand; marshalling through a Go
// map would lose the insertion order of object keys.
func valueToYAMLNode(v hocon.Value) (*yaml.Node, error) {
	switch v := v.(type) {
	case hoconparser.Null:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case hoconparser.Bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: v.Render()}, nil
	case hoconparser.Number:
		tag := "!!float"
		if v.IsInt() {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v.String()}, nil
	case hoconparser.String:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(v)}, nil
	case hoconparser.Array:
		node := &yaml.Node{Kind: yaml.SequenceNode}
		for _, e := range v {
			en, err := valueToYAMLNode(e)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, en)
		}
		return node, nil
	case *hoconparser.Object:
		node := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range v.Keys() {
			e, _ := v.Get(k)
			en, err := valueToYAMLNode(e)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, en)
		}
		return node, nil
	default:
		return nil, fmt.Errorf("unhandled value type %T", v)
	}
}
