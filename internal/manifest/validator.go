package manifest

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/manifest.schema.json
var schemaBytes []byte

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
	printer        = message.NewPrinter(language.English)
)

// Keywords whose failures only group other failures.
var wrapperKeywords = map[string]bool{
	"":      true,
	"$ref":  true,
	"allOf": true,
}

// ValidationResult contains the outcome of a schema validation.
type ValidationResult struct {
	Valid  bool
	Issues []ValidationIssue
}

// ValidationIssue is one schema violation.
type ValidationIssue struct {
	Key     string // extension key the issue belongs to, "" for the document
	Path    string // JSON pointer, e.g. "/news/hash"
	Keyword string // failing schema keyword
	Message string
}

// Keys returns the distinct extension keys with issues, sorted.
func (r *ValidationResult) Keys() []string {
	seen := map[string]bool{}
	var keys []string
	for _, issue := range r.Issues {
		if issue.Key != "" && !seen[issue.Key] {
			seen[issue.Key] = true
			keys = append(keys, issue.Key)
		}
	}
	sort.Strings(keys)
	return keys
}

func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshaling manifest schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("manifest.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("adding manifest schema: %w", err)
			return
		}
		if compiledSchema, err = c.Compile("manifest.schema.json"); err != nil {
			compileErr = fmt.Errorf("compiling manifest schema: %w", err)
		}
	})
	return compiledSchema, compileErr
}

// Validate checks raw manifest JSON against the manifest schema. Violations
// are reported in the result; the error is reserved for input that is not
// JSON at all.
func Validate(data []byte) (*ValidationResult, error) {
	schema, err := getSchema()
	if err != nil {
		return nil, err
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	err = schema.Validate(doc)
	if err == nil {
		return &ValidationResult{Valid: true}, nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, fmt.Errorf("validating manifest: %w", err)
	}

	issues := leafIssues(ve)
	if len(issues) == 0 {
		issues = []ValidationIssue{{Message: ve.Error()}}
	}
	return &ValidationResult{Issues: issues}, nil
}

// ValidateFile reads path and validates its contents.
func ValidateFile(path string) (*ValidationResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return Validate(data)
}

// leafIssues flattens the cause tree into distinct leaf violations ordered
// by path, then keyword.
func leafIssues(root *jsonschema.ValidationError) []ValidationIssue {
	type seenKey struct{ path, keyword, message string }
	seen := map[seenKey]bool{}
	var issues []ValidationIssue

	stack := []*jsonschema.ValidationError{root}
	for len(stack) > 0 {
		ve := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if len(ve.Causes) > 0 {
			stack = append(stack, ve.Causes...)
			continue
		}

		issue := toIssue(ve)
		if wrapperKeywords[issue.Keyword] {
			continue
		}
		k := seenKey{issue.Path, issue.Keyword, issue.Message}
		if !seen[k] {
			seen[k] = true
			issues = append(issues, issue)
		}
	}

	sort.Slice(issues, func(i, j int) bool {
		if issues[i].Path != issues[j].Path {
			return issues[i].Path < issues[j].Path
		}
		return issues[i].Keyword < issues[j].Keyword
	})
	return issues
}

func toIssue(ve *jsonschema.ValidationError) ValidationIssue {
	var issue ValidationIssue
	if loc := ve.InstanceLocation; len(loc) > 0 {
		issue.Key = loc[0]
		issue.Path = "/" + strings.Join(loc, "/")
	}
	if ve.ErrorKind != nil {
		if kw := ve.ErrorKind.KeywordPath(); len(kw) > 0 {
			issue.Keyword = kw[len(kw)-1]
		}
		issue.Message = ve.ErrorKind.LocalizedString(printer)
	}
	return issue
}
