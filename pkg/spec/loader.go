package spec

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Load reads and parses the specification file at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading spec: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing spec %s: %w", path, err)
	}
	return doc, nil
}

// Parse parses a YAML specification document. Operation-level security
// overrides the document-level default; an explicit empty security list
// makes the operation public. Every referenced scheme must be declared.
func Parse(data []byte) (*Document, error) {
	var root specRoot
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	schemes := root.Components.SecuritySchemes
	if schemes == nil {
		// swagger-2 spelling
		schemes = root.SecurityDefinitions
	}
	if schemes == nil {
		schemes = make(map[string]*SecurityScheme)
	}

	doc := &Document{
		Raw:             data,
		SecuritySchemes: schemes,
	}

	// Iterate paths in stable order so route registration order (and with
	// it log and error output) is deterministic.
	paths := make([]string, 0, len(root.Paths))
	for p := range root.Paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		item := root.Paths[path]
		if item == nil {
			continue
		}
		for _, mo := range item.operations() {
			op, err := buildOperation(mo.method, path, mo.op, root.Security, schemes)
			if err != nil {
				return nil, err
			}
			doc.Operations = append(doc.Operations, op)
		}
	}

	return doc, nil
}

// JSON renders the raw document as JSON for the openapi.json endpoint.
func (d *Document) JSON() ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(d.Raw, &v); err != nil {
		return nil, fmt.Errorf("re-parsing raw spec: %w", err)
	}
	return json.Marshal(v)
}

func buildOperation(method, path string, op *operation, global []requirement, schemes map[string]*SecurityScheme) (*Operation, error) {
	sec := op.Security
	if sec == nil {
		sec = global
	}

	out := &Operation{
		ID:     op.OperationID,
		Method: method,
		Path:   path,
	}

	for _, req := range sec {
		// Each scheme becomes its own alternative, in the document's key
		// order. Combined-scheme requirements are not enforced jointly.
		for _, name := range req.keys() {
			if _, ok := schemes[name]; !ok {
				return nil, fmt.Errorf("%s %s references undeclared security scheme %q", method, path, name)
			}
			out.Security = append(out.Security, Requirement{
				Scheme: name,
				Scopes: req.scopes[name],
			})
		}
	}
	out.Secured = len(out.Security) > 0

	return out, nil
}

type specRoot struct {
	Security   []requirement        `yaml:"security"`
	Paths      map[string]*pathItem `yaml:"paths"`
	Components struct {
		SecuritySchemes map[string]*SecurityScheme `yaml:"securitySchemes"`
	} `yaml:"components"`
	SecurityDefinitions map[string]*SecurityScheme `yaml:"securityDefinitions"`
}

type pathItem struct {
	Get     *operation `yaml:"get"`
	Post    *operation `yaml:"post"`
	Put     *operation `yaml:"put"`
	Delete  *operation `yaml:"delete"`
	Patch   *operation `yaml:"patch"`
	Options *operation `yaml:"options"`
	Head    *operation `yaml:"head"`
}

type methodOp struct {
	method string
	op     *operation
}

// operations returns the item's operations in a fixed method order.
func (p *pathItem) operations() []methodOp {
	all := []methodOp{
		{"GET", p.Get},
		{"POST", p.Post},
		{"PUT", p.Put},
		{"DELETE", p.Delete},
		{"PATCH", p.Patch},
		{"OPTIONS", p.Options},
		{"HEAD", p.Head},
	}
	var out []methodOp
	for _, mo := range all {
		if mo.op != nil {
			out = append(out, mo)
		}
	}
	return out
}

type operation struct {
	OperationID string        `yaml:"operationId"`
	Security    []requirement `yaml:"security"`
}

// requirement preserves the key order of a YAML security requirement
// object, which a plain map would lose.
type requirement struct {
	order  []string
	scopes map[string][]string
}

func (r *requirement) keys() []string { return r.order }

// UnmarshalYAML decodes a mapping of scheme name to scope list.
func (r *requirement) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("security requirement must be a mapping, got %v", node.Kind)
	}
	r.scopes = make(map[string][]string)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		var scopes []string
		if err := node.Content[i+1].Decode(&scopes); err != nil {
			return fmt.Errorf("scopes for scheme %q: %w", key, err)
		}
		r.order = append(r.order, key)
		r.scopes[key] = scopes
	}
	return nil
}
