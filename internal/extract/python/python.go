// Package python extracts discoveries from Python source via tree-sitter,
// plus service metadata from pyproject.toml and requirements.txt.
package python

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/forgekit-dev/forge/internal/apperrors"
	"github.com/forgekit-dev/forge/internal/discovery"
)

type Extractor struct{}

func New() *Extractor { return &Extractor{} }

func (e *Extractor) Supports(path string) bool {
	base := filepath.Base(path)
	if base == "pyproject.toml" || base == "requirements.txt" {
		return true
	}
	ext := filepath.Ext(path)
	return ext == ".py" || ext == ".pyi" || ext == ".pyw"
}

// Source identifies this extractor's discoveries for graph provenance.
func (e *Extractor) Source() discovery.Source { return discovery.SourcePythonParser }

func (e *Extractor) ParseFile(path string, content []byte) ([]discovery.Discovery, error) {
	switch filepath.Base(path) {
	case "pyproject.toml":
		return parsePyproject(path, content)
	case "requirements.txt":
		return parseRequirements(path, content)
	}
	return parseSource(path, content)
}

type pyprojectFile struct {
	Project struct {
		Name         string            `toml:"name"`
		Dependencies []string          `toml:"dependencies"`
	} `toml:"project"`
}

var frameworkMarkers = []string{"fastapi", "flask", "django"}

func parsePyproject(path string, content []byte) ([]discovery.Discovery, error) {
	var doc pyprojectFile
	if err := toml.Unmarshal(content, &doc); err != nil {
		return nil, apperrors.ExtractorParseFailure(err, path)
	}
	name := doc.Project.Name
	if name == "" {
		name = filepath.Base(filepath.Dir(path))
	}
	return []discovery.Discovery{discovery.NewService(discovery.Service{
		Name:       name,
		Language:   "python",
		Framework:  detectFramework(doc.Project.Dependencies),
		EntryPoint: filepath.Dir(path),
		SourceFile: path,
		SourceLine: 1,
	})}, nil
}

func parseRequirements(path string, content []byte) ([]discovery.Discovery, error) {
	lines := strings.Split(string(content), "\n")
	deps := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		deps = append(deps, l)
	}
	return []discovery.Discovery{discovery.NewService(discovery.Service{
		Name:       filepath.Base(filepath.Dir(path)),
		Language:   "python",
		Framework:  detectFramework(deps),
		EntryPoint: filepath.Dir(path),
		SourceFile: path,
		SourceLine: 1,
	})}, nil
}

func detectFramework(deps []string) string {
	for _, dep := range deps {
		lower := strings.ToLower(dep)
		for _, marker := range frameworkMarkers {
			if strings.Contains(lower, marker) {
				return marker
			}
		}
	}
	return ""
}

func newParser() (*sitter.Parser, error) {
	parser := sitter.NewParser()
	if parser == nil {
		return nil, fmt.Errorf("python: failed to create tree-sitter parser")
	}
	language := sitter.NewLanguage(tree_sitter_python.Language())
	if err := parser.SetLanguage(language); err != nil {
		parser.Close()
		return nil, err
	}
	return parser, nil
}

func parseSource(path string, content []byte) ([]discovery.Discovery, error) {
	parser, err := newParser()
	if err != nil {
		return nil, apperrors.ExtractorParseFailure(err, path)
	}
	defer parser.Close()

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, apperrors.ExtractorParseFailure(fmt.Errorf("nil parse tree"), path)
	}
	defer tree.Close()

	var events []discovery.Discovery
	// boto3Aliases maps a local variable name (from `x = boto3.client("svc")`
	// or `boto3.resource("svc")`) to the AWS service it was constructed for,
	// so a later `x.get_item(...)` call resolves to the right resource kind.
	boto3Aliases := make(map[string]string)
	dynamoTables := make(map[string]string)
	walk(tree.RootNode(), content, path, &events, boto3Aliases, dynamoTables)
	return events, nil
}

func nodeText(node *sitter.Node, code []byte) string {
	if node == nil {
		return ""
	}
	return string(code[node.StartByte():node.EndByte()])
}

func nodeLine(node *sitter.Node) int { return int(node.StartPosition().Row) + 1 }

func walk(node *sitter.Node, code []byte, path string, events *[]discovery.Discovery, boto3Aliases, dynamoTables map[string]string) {
	if node == nil {
		return
	}
	switch node.Kind() {
	case "import_statement", "import_from_statement":
		if ev, ok := extractImport(node, code, path); ok {
			*events = append(*events, ev)
		}
	case "assignment":
		handleAssignment(node, code, path, boto3Aliases, dynamoTables)
	case "call":
		extractCall(node, code, path, events, boto3Aliases, dynamoTables)
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		walk(node.Child(i), code, path, events, boto3Aliases, dynamoTables)
	}
}

func extractImport(node *sitter.Node, code []byte, path string) (discovery.Discovery, bool) {
	text := nodeText(node, code)
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return discovery.Discovery{}, false
	}
	module := strings.TrimSuffix(fields[1], ",")
	return discovery.NewImport(discovery.Import{
		Module:     module,
		IsRelative: strings.HasPrefix(module, "."),
		SourceFile: path,
		SourceLine: nodeLine(node),
	}), true
}

// boto3ResourceKinds maps a boto3 client/resource service name to the
// Discovery variant family it belongs to.
var boto3ResourceKinds = map[string]string{
	"dynamodb": "database",
	"s3":       "cloud_resource",
	"sqs":      "queue",
	"sns":      "queue",
}

func handleAssignment(node *sitter.Node, code []byte, path string, boto3Aliases, dynamoTables map[string]string) {
	leftNode := node.ChildByFieldName("left")
	rightNode := node.ChildByFieldName("right")
	if leftNode == nil || rightNode == nil || rightNode.Kind() != "call" {
		return
	}
	varName := nodeText(leftNode, code)
	callee := nodeText(rightNode.ChildByFieldName("function"), code)

	switch callee {
	case "boto3.client", "boto3.resource":
		svc := firstStringArg(rightNode, code)
		svc = strings.Trim(svc, `"'`)
		if kind, ok := boto3ResourceKinds[svc]; ok {
			boto3Aliases[varName] = kind + ":" + svc
		}
	default:
		// dynamodb.Table('name') binds a table alias so later
		// table.get_item/put_item/... calls resolve to that table name.
		if strings.HasSuffix(callee, ".Table") {
			name := strings.Trim(firstStringArg(rightNode, code), `"'`)
			if name != "" {
				dynamoTables[varName] = name
			}
		}
	}
}

func firstStringArg(call *sitter.Node, code []byte) string {
	argsNode := call.ChildByFieldName("arguments")
	if argsNode == nil || argsNode.NamedChildCount() == 0 {
		return ""
	}
	first := argsNode.NamedChild(0)
	if first.Kind() == "string" {
		return strings.Trim(stripStringPrefix(nodeText(first, code)), `"'`)
	}
	return ""
}

func stripStringPrefix(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return r == 'f' || r == 'r' || r == 'b'
	})
}

var dynamoOpMap = map[string]discovery.DatabaseOp{
	"get_item":    discovery.DBRead,
	"query":       discovery.DBRead,
	"scan":        discovery.DBRead,
	"put_item":    discovery.DBWrite,
	"update_item": discovery.DBWrite,
	"delete_item": discovery.DBWrite,
}

func extractCall(node *sitter.Node, code []byte, path string, events *[]discovery.Discovery, boto3Aliases, dynamoTables map[string]string) {
	fnNode := node.ChildByFieldName("function")
	if fnNode == nil {
		return
	}
	callee := nodeText(fnNode, code)

	if fnNode.Kind() == "attribute" {
		objNode := fnNode.ChildByFieldName("object")
		attrNode := fnNode.ChildByFieldName("attribute")
		if objNode != nil && attrNode != nil {
			obj := nodeText(objNode, code)
			method := nodeText(attrNode, code)

			if table, ok := dynamoTables[obj]; ok {
				if op, ok := dynamoOpMap[method]; ok {
					*events = append(*events, discovery.NewDatabaseAccess(discovery.DatabaseAccess{
						DBType:          "dynamodb",
						TableName:       table,
						Op:              op,
						DetectionMethod: obj + "." + method,
						SourceFile:      path,
						SourceLine:      nodeLine(node),
					}))
					return
				}
			}

			if resource, ok := boto3Aliases[obj]; ok {
				parts := strings.SplitN(resource, ":", 2)
				kind, svc := parts[0], parts[1]
				emitBoto3Call(kind, svc, method, path, nodeLine(node), events)
				return
			}
		}
	}

	if callee == "requests.get" || callee == "requests.post" || callee == "requests.put" ||
		callee == "requests.delete" || strings.HasPrefix(callee, "httpx.") {
		method := "GET"
		if i := strings.LastIndex(callee, "."); i >= 0 {
			method = strings.ToUpper(callee[i+1:])
		}
		url := firstStringArg(node, code)
		*events = append(*events, discovery.NewApiCall(discovery.ApiCall{
			Target:          url,
			Method:          method,
			DetectionMethod: callee,
			SourceFile:      path,
			SourceLine:      nodeLine(node),
		}))
	}
}

func emitBoto3Call(kind, svc, method, path string, line int, events *[]discovery.Discovery) {
	switch kind {
	case "database":
		op, ok := dynamoOpMap[method]
		if !ok {
			op = discovery.DBUnknown
		}
		*events = append(*events, discovery.NewDatabaseAccess(discovery.DatabaseAccess{
			DBType:          svc,
			Op:              op,
			DetectionMethod: method,
			SourceFile:      path,
			SourceLine:      line,
		}))
	case "queue":
		op := discovery.QueueUnknown
		switch method {
		case "send_message", "publish":
			op = discovery.QueuePublish
		case "receive_message":
			op = discovery.QueueSubscribe
		}
		*events = append(*events, discovery.NewQueueOperation(discovery.QueueOperation{
			QueueType:  svc,
			Op:         op,
			SourceFile: path,
			SourceLine: line,
		}))
	case "cloud_resource":
		*events = append(*events, discovery.NewCloudResourceUsage(discovery.CloudResourceUsage{
			ResourceType: svc,
			SourceFile:   path,
			SourceLine:   line,
		}))
	}
}
