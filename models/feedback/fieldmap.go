package feedback

import (
	"fmt"
	"os"
	"strings"

	"github.com/NomadCrew/customer-feedback-portal/types"
	"gopkg.in/yaml.v3"
)

// LogicalField is a form value that has to land in some list column.
type LogicalField string

const (
	FieldCustomerName LogicalField = "CustomerName"
	FieldEmail        LogicalField = "Email"
	FieldRating       LogicalField = "Rating"
	FieldComments     LogicalField = "Comments"
	FieldService      LogicalField = "Service"
)

// TitleField is the identity column most lists require. It always receives
// the submitter name when the list exposes it.
const TitleField = "Title"

// LogicalFields is every form value the mapper tries to place, in record order.
var LogicalFields = []LogicalField{FieldCustomerName, FieldEmail, FieldRating, FieldComments, FieldService}

var knownFields = map[LogicalField]bool{
	FieldCustomerName: true,
	FieldEmail:        true,
	FieldRating:       true,
	FieldComments:     true,
	FieldService:      true,
}

// CandidateEntry lists, in priority order, the internal names a logical
// field may have in the target list.
type CandidateEntry struct {
	Field      LogicalField `yaml:"field"`
	Candidates []string     `yaml:"candidates"`
}

// CandidateTable is the declarative logicalField -> candidates table.
type CandidateTable []CandidateEntry

// DefaultCandidates returns the built-in table.
func DefaultCandidates() CandidateTable {
	return CandidateTable{
		{Field: FieldCustomerName, Candidates: []string{"CustomerName", "Customer_x0020_Name", "Customer_name", "Customer"}},
		{Field: FieldEmail, Candidates: []string{"Email", "email", "CustomerEmail", "Customer_x0020_Email"}},
		{Field: FieldRating, Candidates: []string{"Rate", "rate", "Rating", "rating"}},
		{Field: FieldComments, Candidates: []string{"Comments", "comments", "CustomerComments"}},
		{Field: FieldService, Candidates: []string{"Service", "service", "Service_x0020_Type"}},
	}
}

type candidateFile struct {
	Fields CandidateTable `yaml:"fields"`
}

// LoadCandidates reads a candidate table from a YAML file of the form
//
//	fields:
//	  - field: Email
//	    candidates: [Email, CustomerEmail]
func LoadCandidates(path string) (CandidateTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read candidate file: %w", err)
	}
	return ParseCandidates(data)
}

// ParseCandidates decodes and validates a YAML candidate table.
func ParseCandidates(data []byte) (CandidateTable, error) {
	var file candidateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse candidate file: %w", err)
	}
	if len(file.Fields) == 0 {
		return nil, fmt.Errorf("candidate file defines no fields")
	}

	seen := make(map[LogicalField]bool, len(file.Fields))
	for _, entry := range file.Fields {
		if !knownFields[entry.Field] {
			return nil, fmt.Errorf("unknown logical field %q", entry.Field)
		}
		if seen[entry.Field] {
			return nil, fmt.Errorf("logical field %q listed twice", entry.Field)
		}
		seen[entry.Field] = true
		if len(entry.Candidates) == 0 {
			return nil, fmt.Errorf("logical field %q has no candidates", entry.Field)
		}
		for _, c := range entry.Candidates {
			if strings.TrimSpace(c) == "" {
				return nil, fmt.Errorf("logical field %q has a blank candidate", entry.Field)
			}
		}
	}
	return file.Fields, nil
}

// Mapping is the result of resolving a candidate table against a schema.
// Logical fields without a matching column are absent.
type Mapping map[LogicalField]string

// ResolveFieldNames picks, for each logical field, the first candidate that
// exists in the schema. Matching is exact and case-sensitive.
func ResolveFieldNames(schema []types.FieldDescriptor, table CandidateTable) Mapping {
	present := schemaSet(schema)
	mapping := make(Mapping, len(table))
	for _, entry := range table {
		for _, candidate := range entry.Candidates {
			if present[candidate] {
				mapping[entry.Field] = candidate
				break
			}
		}
	}
	return mapping
}

// BuildRecord turns a draft into the outgoing record using a resolved
// mapping. It also returns the logical fields that could not be placed.
func BuildRecord(draft types.FeedbackSubmission, mapping Mapping, schema []types.FieldDescriptor) (types.Record, []LogicalField) {
	record := make(types.Record, len(mapping)+1)

	if schemaSet(schema)[TitleField] {
		record[TitleField] = draft.Name
	}

	var dropped []LogicalField
	for _, field := range LogicalFields {
		column, ok := mapping[field]
		if !ok {
			dropped = append(dropped, field)
			continue
		}
		record[column] = fieldValue(field, draft)
	}

	// Nothing matched at all: still send the name so the item is identifiable.
	if len(record) == 0 {
		record[TitleField] = draft.Name
	}

	return record, dropped
}

func fieldValue(field LogicalField, draft types.FeedbackSubmission) interface{} {
	switch field {
	case FieldCustomerName:
		return draft.Name
	case FieldEmail:
		return strings.TrimSpace(draft.Email)
	case FieldRating:
		return draft.Rating
	case FieldComments:
		return draft.Comments
	case FieldService:
		return draft.ServiceCategory
	default:
		return nil
	}
}

func schemaSet(schema []types.FieldDescriptor) map[string]bool {
	set := make(map[string]bool, len(schema))
	for _, f := range schema {
		set[f.InternalName] = true
	}
	return set
}
