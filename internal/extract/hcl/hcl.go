// Package hcl extracts cloud-resource discoveries from Terraform
// configuration using hashicorp/hcl.
package hcl

import (
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl"
	"github.com/hashicorp/hcl/hcl/ast"

	"github.com/forgekit-dev/forge/internal/apperrors"
	"github.com/forgekit-dev/forge/internal/discovery"
)

type Extractor struct{}

func New() *Extractor { return &Extractor{} }

func (e *Extractor) Supports(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".tf" || ext == ".tf.json"
}

// Source identifies this extractor's discoveries for graph provenance.
func (e *Extractor) Source() discovery.Source { return discovery.SourceTerraformParser }

// resourceRule (keyed by Terraform resource type in resourceRules) gives the discovery
// variant and the preferred name attribute to read, with fallback to the
// block's local name when the attribute is absent.
type resourceRule struct {
	nameAttr string
	emit     func(localName, resolvedName, file string, line int) discovery.Discovery
}

var resourceRules = map[string]resourceRule{
	"aws_dynamodb_table": {
		nameAttr: "name",
		emit: func(local, name, file string, line int) discovery.Discovery {
			return discovery.NewDatabaseAccess(discovery.DatabaseAccess{
				DBType:          "dynamodb",
				TableName:       name,
				Op:              discovery.DBUnknown,
				DetectionMethod: "terraform:aws_dynamodb_table",
				SourceFile:      file,
				SourceLine:      line,
			})
		},
	},
	"aws_sqs_queue": {
		nameAttr: "name",
		emit: func(local, name, file string, line int) discovery.Discovery {
			return discovery.NewQueueOperation(discovery.QueueOperation{
				QueueType:  "sqs",
				QueueName:  name,
				Op:         discovery.QueueUnknown,
				SourceFile: file,
				SourceLine: line,
			})
		},
	},
	"aws_sns_topic": {
		nameAttr: "name",
		emit: func(local, name, file string, line int) discovery.Discovery {
			return discovery.NewQueueOperation(discovery.QueueOperation{
				QueueType:  "sns",
				QueueName:  name,
				Op:         discovery.QueueUnknown,
				SourceFile: file,
				SourceLine: line,
			})
		},
	},
	"aws_s3_bucket": {
		nameAttr: "bucket",
		emit: func(local, name, file string, line int) discovery.Discovery {
			return discovery.NewCloudResourceUsage(discovery.CloudResourceUsage{
				ResourceType: "s3",
				ResourceName: name,
				SourceFile:   file,
				SourceLine:   line,
			})
		},
	},
	"aws_lambda_function": {
		nameAttr: "function_name",
		emit: func(local, name, file string, line int) discovery.Discovery {
			return discovery.NewService(discovery.Service{
				Name:       name,
				Language:   "",
				EntryPoint: local,
				SourceFile: file,
				SourceLine: line,
			})
		},
	},
}

func (e *Extractor) ParseFile(path string, content []byte) ([]discovery.Discovery, error) {
	file, err := hcl.ParseBytes(content)
	if err != nil {
		return nil, apperrors.ExtractorParseFailure(err, path)
	}
	root, ok := file.Node.(*ast.ObjectList)
	if !ok {
		return nil, nil
	}

	var events []discovery.Discovery
	for _, item := range root.Items {
		if len(item.Keys) == 0 || item.Keys[0].Token.Value() != "resource" {
			continue
		}
		if len(item.Keys) < 3 {
			continue
		}
		resourceType := keyString(item.Keys[1])
		localName := keyString(item.Keys[2])
		rule, known := resourceRules[resourceType]
		if !known {
			continue
		}

		obj, ok := item.Val.(*ast.ObjectType)
		if !ok {
			continue
		}
		name := stringAttr(obj, rule.nameAttr)
		if name == "" {
			name = localName
		}
		if resourceType == "aws_lambda_function" {
			runtime := stringAttr(obj, "runtime")
			ev := rule.emit(localName, name, path, item.Pos().Line)
			ev.Service.Language = languageFromRuntime(runtime)
			events = append(events, ev)
			continue
		}
		events = append(events, rule.emit(localName, name, path, item.Pos().Line))
	}
	return events, nil
}

func keyString(k *ast.ObjectKey) string {
	return strings.Trim(k.Token.Text, `"`)
}

func stringAttr(obj *ast.ObjectType, key string) string {
	for _, item := range obj.List.Items {
		if len(item.Keys) == 0 || keyString(item.Keys[0]) != key {
			continue
		}
		if lit, ok := item.Val.(*ast.LiteralType); ok {
			return strings.Trim(lit.Token.Text, `"`)
		}
	}
	return ""
}

func languageFromRuntime(runtime string) string {
	switch {
	case strings.HasPrefix(runtime, "nodejs"):
		return "javascript"
	case strings.HasPrefix(runtime, "python"):
		return "python"
	case strings.HasPrefix(runtime, "go"):
		return "go"
	default:
		return ""
	}
}
