// Package jsts extracts discoveries from JavaScript and TypeScript source
// using tree-sitter, grounded on the parser wiring pattern used elsewhere
// in the ecosystem for this exact grammar trio (NewLanguage + grammar
// binding + SetLanguage, LanguageParser wrapper requiring Close for CGO
// memory safety, recursive node.Kind() dispatch).
package jsts

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/forgekit-dev/forge/internal/apperrors"
	"github.com/forgekit-dev/forge/internal/discovery"
)

var extensions = map[string]string{
	".js":  "javascript",
	".jsx": "javascript",
	".mjs": "javascript",
	".cjs": "javascript",
	".ts":  "typescript",
	".tsx": "typescript",
	".mts": "typescript",
	".cts": "typescript",
}

// Extractor implements walk.Extractor for JS/TS source and package.json
// manifests.
type Extractor struct{}

func New() *Extractor { return &Extractor{} }

func (e *Extractor) Supports(path string) bool {
	if filepath.Base(path) == "package.json" {
		return true
	}
	_, ok := extensions[filepath.Ext(path)]
	return ok
}

// Source identifies this extractor's discoveries for graph provenance.
func (e *Extractor) Source() discovery.Source { return discovery.SourceJavaScriptParser }

func (e *Extractor) ParseFile(path string, content []byte) ([]discovery.Discovery, error) {
	if filepath.Base(path) == "package.json" {
		return parsePackageJSON(path, content)
	}
	lang, ok := extensions[filepath.Ext(path)]
	if !ok {
		return nil, apperrors.ExtractorUnsupported(path)
	}
	return parseSource(path, content, lang)
}

type packageJSON struct {
	Name            string            `json:"name"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

var frameworkDeps = []string{"express", "fastify", "nestjs", "next", "koa", "hapi"}

func parsePackageJSON(path string, content []byte) ([]discovery.Discovery, error) {
	var pkg packageJSON
	if err := json.Unmarshal(content, &pkg); err != nil {
		return nil, apperrors.ExtractorParseFailure(err, path)
	}
	name := pkg.Name
	if name == "" {
		name = filepath.Base(filepath.Dir(path))
	}

	lang := "javascript"
	for dep := range mergedDeps(pkg) {
		if dep == "typescript" || strings.HasPrefix(dep, "@types/") {
			lang = "typescript"
			break
		}
	}

	framework := ""
	deps := mergedDeps(pkg)
	for _, fw := range frameworkDeps {
		if _, ok := deps[fw]; ok {
			framework = fw
			break
		}
	}

	return []discovery.Discovery{discovery.NewService(discovery.Service{
		Name:       name,
		Language:   lang,
		Framework:  framework,
		EntryPoint: filepath.Dir(path),
		SourceFile: path,
		SourceLine: 1,
	})}, nil
}

func mergedDeps(pkg packageJSON) map[string]string {
	out := make(map[string]string, len(pkg.Dependencies)+len(pkg.DevDependencies))
	for k, v := range pkg.Dependencies {
		out[k] = v
	}
	for k, v := range pkg.DevDependencies {
		out[k] = v
	}
	return out
}

func newParser(lang string) (*sitter.Parser, error) {
	parser := sitter.NewParser()
	if parser == nil {
		return nil, fmt.Errorf("jsts: failed to create tree-sitter parser")
	}
	var language *sitter.Language
	switch lang {
	case "javascript":
		language = sitter.NewLanguage(tree_sitter_javascript.Language())
	case "typescript":
		language = sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	default:
		parser.Close()
		return nil, fmt.Errorf("jsts: unsupported language %s", lang)
	}
	if err := parser.SetLanguage(language); err != nil {
		parser.Close()
		return nil, err
	}
	return parser, nil
}

func parseSource(path string, content []byte, lang string) ([]discovery.Discovery, error) {
	parser, err := newParser(lang)
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
	walk(tree.RootNode(), content, path, &events)
	return events, nil
}

func walk(node *sitter.Node, code []byte, path string, events *[]discovery.Discovery) {
	if node == nil {
		return
	}
	switch node.Kind() {
	case "import_statement":
		if ev, ok := extractImport(node, code, path); ok {
			*events = append(*events, ev)
		}
	case "call_expression":
		extractCallExpression(node, code, path, events)
	case "new_expression":
		extractNewExpression(node, code, path, events)
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		walk(node.Child(i), code, path, events)
	}
}

func nodeText(node *sitter.Node, code []byte) string {
	if node == nil {
		return ""
	}
	return string(code[node.StartByte():node.EndByte()])
}

func nodeLine(node *sitter.Node) int { return int(node.StartPosition().Row) + 1 }

func extractImport(node *sitter.Node, code []byte, path string) (discovery.Discovery, bool) {
	sourceNode := node.ChildByFieldName("source")
	if sourceNode == nil {
		return discovery.Discovery{}, false
	}
	module := strings.Trim(nodeText(sourceNode, code), `"'`+"`")
	return discovery.NewImport(discovery.Import{
		Module:     module,
		IsRelative: strings.HasPrefix(module, "."),
		SourceFile: path,
		SourceLine: nodeLine(node),
	}), true
}

// extractCallExpression dispatches on the callee text: require(...) is
// another Import; axios/fetch calls are ApiCalls. AWS SDK v3 command
// construction (new PutCommand/GetCommand/...) is handled separately by
// extractNewExpression. The dispatch key is always the callee's static text, never a bare method
// name, so a generic axios.get never collides with a database "get".
func extractCallExpression(node *sitter.Node, code []byte, path string, events *[]discovery.Discovery) {
	fnNode := node.ChildByFieldName("function")
	if fnNode == nil {
		return
	}
	callee := nodeText(fnNode, code)
	argsNode := node.ChildByFieldName("arguments")

	switch {
	case callee == "require":
		if argsNode != nil && argsNode.ChildCount() > 0 {
			arg := nodeText(argsNode.Child(1), code) // child 0 is '('
			module := strings.Trim(arg, `"'`+"`")
			if module != "" {
				*events = append(*events, discovery.NewImport(discovery.Import{
					Module:     module,
					IsRelative: strings.HasPrefix(module, "."),
					SourceFile: path,
					SourceLine: nodeLine(node),
				}))
			}
		}
	case strings.HasPrefix(callee, "axios."), callee == "axios":
		method, url := firstStringArgAndMethod(callee, argsNode, code)
		*events = append(*events, discovery.NewApiCall(discovery.ApiCall{
			Target:          url,
			Method:          method,
			DetectionMethod: "axios." + methodSuffix(callee),
			SourceFile:      path,
			SourceLine:      nodeLine(node),
		}))
	case callee == "fetch":
		url := ""
		if argsNode != nil && argsNode.NamedChildCount() > 0 {
			url = strings.Trim(nodeText(argsNode.NamedChild(0), code), `"'`+"`")
		}
		*events = append(*events, discovery.NewApiCall(discovery.ApiCall{
			Target:          url,
			DetectionMethod: "fetch",
			SourceFile:      path,
			SourceLine:      nodeLine(node),
		}))
	}
}

func methodSuffix(callee string) string {
	if i := strings.LastIndex(callee, "."); i >= 0 {
		return callee[i+1:]
	}
	return "request"
}

func firstStringArgAndMethod(callee string, argsNode *sitter.Node, code []byte) (method, url string) {
	method = strings.ToUpper(methodSuffix(callee))
	if argsNode == nil || argsNode.NamedChildCount() == 0 {
		return method, ""
	}
	first := argsNode.NamedChild(0)
	if first.Kind() == "string" || first.Kind() == "template_string" {
		url = strings.Trim(nodeText(first, code), `"'`+"`")
	}
	return method, url
}

// dynamoCommandOps maps AWS SDK v3 DynamoDB command names to the database
// op they represent.
var dynamoCommandOps = map[string]discovery.DatabaseOp{
	"GetCommand":    discovery.DBRead,
	"QueryCommand":  discovery.DBRead,
	"ScanCommand":   discovery.DBRead,
	"PutCommand":    discovery.DBWrite,
	"UpdateCommand": discovery.DBWrite,
	"DeleteCommand": discovery.DBWrite,
}

var sqsCommandOps = map[string]discovery.QueueOp{
	"SendMessageCommand":    discovery.QueuePublish,
	"SendMessageBatchCommand": discovery.QueuePublish,
	"ReceiveMessageCommand": discovery.QueueSubscribe,
}

// extractNewExpression recognizes `new <Command>({...})` construction from
// AWS SDK v3 clients and emits the matching resource-access discovery, with
// the sibling TableName/QueueUrl/Bucket literal (if present in the same
// object argument) as the resolved resource name.
func extractNewExpression(node *sitter.Node, code []byte, path string, events *[]discovery.Discovery) {
	ctorNode := node.ChildByFieldName("constructor")
	if ctorNode == nil {
		return
	}
	ctor := nodeText(ctorNode, code)
	argsNode := node.ChildByFieldName("arguments")
	var objArg *sitter.Node
	if argsNode != nil && argsNode.NamedChildCount() > 0 {
		objArg = argsNode.NamedChild(0)
	}

	if op, ok := dynamoCommandOps[ctor]; ok {
		name := objectLiteralField(objArg, code, "TableName")
		*events = append(*events, discovery.NewDatabaseAccess(discovery.DatabaseAccess{
			DBType:          "dynamodb",
			TableName:       name,
			Op:              op,
			DetectionMethod: ctor,
			SourceFile:      path,
			SourceLine:      nodeLine(node),
		}))
		return
	}
	if op, ok := sqsCommandOps[ctor]; ok {
		name := objectLiteralField(objArg, code, "QueueUrl")
		*events = append(*events, discovery.NewQueueOperation(discovery.QueueOperation{
			QueueType:  "sqs",
			QueueName:  name,
			Op:         op,
			SourceFile: path,
			SourceLine: nodeLine(node),
		}))
		return
	}
	if ctor == "PutObjectCommand" || ctor == "GetObjectCommand" {
		name := objectLiteralField(objArg, code, "Bucket")
		*events = append(*events, discovery.NewCloudResourceUsage(discovery.CloudResourceUsage{
			ResourceType: "s3",
			ResourceName: name,
			SourceFile:   path,
			SourceLine:   nodeLine(node),
		}))
	}
}

// objectLiteralField finds `<key>: "<literal>"` inside an object argument,
// returning "" if the field is absent or not a string literal (a dynamic
// expression there yields no resolved name; the builder falls back to a
// synthetic per-site id).
func objectLiteralField(obj *sitter.Node, code []byte, key string) string {
	if obj == nil || obj.Kind() != "object" {
		return ""
	}
	for i := uint(0); i < obj.NamedChildCount(); i++ {
		prop := obj.NamedChild(i)
		if prop.Kind() != "pair" {
			continue
		}
		keyNode := prop.ChildByFieldName("key")
		valNode := prop.ChildByFieldName("value")
		if keyNode == nil || valNode == nil {
			continue
		}
		if strings.Trim(nodeText(keyNode, code), `"'`) != key {
			continue
		}
		if valNode.Kind() == "string" || valNode.Kind() == "template_string" {
			return strings.Trim(nodeText(valNode, code), `"'`+"`")
		}
	}
	return ""
}
