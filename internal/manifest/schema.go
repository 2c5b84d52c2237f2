package manifest

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed job.schema.json
var schemaJSON []byte

// Static errors for schema handling.
var (
	// ErrSchemaUnreadable indicates the schema file could not be read.
	ErrSchemaUnreadable = errors.New("schema unreadable")
	// ErrSchemaInvalid indicates the schema content does not compile.
	ErrSchemaInvalid = errors.New("schema invalid")
)

// ValidationError describes a single schema violation in a manifest document.
type ValidationError struct {
	// Field is the JSON path of the offending property.
	Field string
	// Description is the human-readable violation message.
	Description string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Description)
}

// ValidateBytes checks a manifest document against the embedded schema and
// returns every violation found. A nil error with an empty slice means the
// document is valid.
func ValidateBytes(document []byte) ([]ValidationError, error) {
	return validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(document),
	)
}

// ValidateFile checks the manifest at documentPath against the schema at
// schemaPath, or against the embedded schema when schemaPath is empty.
func ValidateFile(documentPath, schemaPath string) ([]ValidationError, error) {
	document, readErr := os.ReadFile(documentPath)
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, documentPath)
		}

		return nil, fmt.Errorf("failed to read manifest %s: %w", documentPath, readErr)
	}

	schemaLoader := gojsonschema.NewBytesLoader(schemaJSON)

	if schemaPath != "" {
		schema, schemaReadErr := os.ReadFile(schemaPath)
		if schemaReadErr != nil {
			return nil, fmt.Errorf(
				"%w: %s: %w",
				ErrSchemaUnreadable,
				schemaPath,
				schemaReadErr,
			)
		}

		schemaLoader = gojsonschema.NewBytesLoader(schema)
	}

	return validate(schemaLoader, gojsonschema.NewBytesLoader(document))
}

// validate runs gojsonschema and converts its results into ValidationErrors.
func validate(
	schemaLoader, documentLoader gojsonschema.JSONLoader,
) ([]ValidationError, error) {
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaInvalid, err)
	}

	if result.Valid() {
		return nil, nil
	}

	violations := make([]ValidationError, 0, len(result.Errors()))

	for _, resultErr := range result.Errors() {
		violations = append(violations, ValidationError{
			Field:       resultErr.Field(),
			Description: resultErr.Description(),
		})
	}

	return violations, nil
}
