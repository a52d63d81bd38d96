package parquetread

import (
	"fmt"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// requiredColumns must be present for a file to be importable.
var requiredColumns = []string{"member_id", "loc", "allowed_amount"}

// ValidateSchema checks that the Parquet schema carries the key columns of a
// reimbursement export. Missing optional columns load as empty values.
func ValidateSchema(schema *parquet.Schema) error {
	columns := make(map[string]bool)
	for _, field := range schema.Fields() {
		columns[strings.ToLower(field.Name())] = true
	}

	var missing []string
	for _, col := range requiredColumns {
		if !columns[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required column(s): %s", strings.Join(missing, ", "))
	}
	return nil
}

// HasColumn reports whether the file schema carries col.
func HasColumn(schema *parquet.Schema, col string) bool {
	for _, field := range schema.Fields() {
		if strings.EqualFold(field.Name(), col) {
			return true
		}
	}
	return false
}
