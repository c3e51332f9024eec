package transport

import (
	"encoding/json"
	"errors"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/fastygo/todo/domain"
)

const createTodoSchemaJSON = `{
	"type": "object",
	"required": ["task"],
	"properties": {
		"task": {
			"type": "string",
			"minLength": 1,
			"pattern": "\\S"
		}
	}
}`

const updateTodoSchemaJSON = `{
	"type": "object",
	"required": ["completed"],
	"properties": {
		"completed": {"type": "boolean"}
	}
}`

var (
	createTodoSchema = mustCompile("todo-create.json", createTodoSchemaJSON)
	updateTodoSchema = mustCompile("todo-update.json", updateTodoSchemaJSON)
)

func mustCompile(url, schema string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, strings.NewReader(schema)); err != nil {
		panic(err)
	}
	return compiler.MustCompile(url)
}

// DecodeCreate parses and validates a POST /todos body.
func DecodeCreate(body []byte) (CreateTodoRequest, error) {
	var req CreateTodoRequest
	if err := decode(body, createTodoSchema, &req); err != nil {
		return req, err
	}
	return req, nil
}

// DecodeUpdate parses and validates a PUT /todos/{id} body.
func DecodeUpdate(body []byte) (UpdateTodoRequest, error) {
	var req UpdateTodoRequest
	if err := decode(body, updateTodoSchema, &req); err != nil {
		return req, err
	}
	return req, nil
}

func decode(body []byte, schema *jsonschema.Schema, dst interface{}) error {
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return domain.WrapError(domain.ErrCodeInvalid, "invalid JSON body", err)
	}
	if err := schema.Validate(doc); err != nil {
		return domain.NewFieldError(domain.ErrCodeInvalid, "validation failed", schemaFieldErrors(err)...)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return domain.WrapError(domain.ErrCodeInvalid, "invalid JSON body", err)
	}
	return nil
}

func schemaFieldErrors(err error) []domain.FieldError {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []domain.FieldError{{Message: err.Error()}}
	}
	var out []domain.FieldError
	collectSchemaErrors(ve, &out)
	return out
}

func collectSchemaErrors(err *jsonschema.ValidationError, out *[]domain.FieldError) {
	if err == nil {
		return
	}
	if len(err.Causes) == 0 {
		field := jsonPointerToField(err.InstanceLocation)
		// required is reported on the parent object
		if strings.HasSuffix(err.KeywordLocation, "/required") {
			for _, name := range missingProperties(err.Message) {
				*out = append(*out, domain.FieldError{
					Field:   joinField(field, name),
					Message: name + " is required",
				})
			}
			return
		}
		*out = append(*out, domain.FieldError{Field: field, Message: err.Message})
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(cause, out)
	}
}

func jsonPointerToField(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	return strings.ReplaceAll(ptr, "/", ".")
}

// missingProperties extracts names from "missing properties: 'a', 'b'".
func missingProperties(message string) []string {
	_, list, ok := strings.Cut(message, ":")
	if !ok {
		return nil
	}
	var names []string
	for _, part := range strings.Split(list, ",") {
		if name := strings.Trim(strings.TrimSpace(part), "'"); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func joinField(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}
