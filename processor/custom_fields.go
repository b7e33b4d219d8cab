package processor

import (
	"sort"

	"kassette.ai/sensedata-sync/sources/sensedata"
)

const customFieldPrefix = "custom_fields_"

// FlattenCustomFields adds one custom_fields_<name> entry per custom field, holding its value.
// A nil or empty fields map leaves data untouched.
func FlattenCustomFields(data map[string]interface{}, fields map[string]sensedata.CustomFieldT) error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := fields[name].Value
		if value == nil {
			return &MissingFieldError{Field: "custom_fields." + name + ".value"}
		}
		data[customFieldPrefix+name] = value
	}
	return nil
}
