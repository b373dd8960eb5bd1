package ghl

import "strings"

// The API returns the same concept under different key names depending
// on endpoint and account age. Each concept has an explicit ordered list
// of candidate keys, tried in sequence at the deserialization boundary.
var (
	customFieldListKeys = []string{"customFields", "customField"}
	userListKeys        = []string{"users", "user"}
	fieldKeyKeys        = []string{"key", "name", "id", "fieldKey"}
	fieldLabelKeys      = []string{"label", "displayName", "title", "name"}
	optionListKeys      = []string{"options", "dropdownOptions", "values", "choices"}
)

// Pipeline is a normalized opportunity pipeline.
type Pipeline struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Stages []Stage `json:"stages"`
}

// Stage is one stage within a pipeline.
type Stage struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CustomField is a normalized location custom field.
type CustomField struct {
	ID      string   `json:"id"`
	Key     string   `json:"key,omitempty"`
	Name    string   `json:"name"`
	Options []string `json:"options,omitempty"`
}

// MappingKey returns the identifier used in feed mappings: the field key
// when present (so merge tags match), else the ID.
func (f CustomField) MappingKey() string {
	if f.Key != "" {
		return f.Key
	}
	return f.ID
}

// ContactField is one field of the contact object schema.
type ContactField struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

// User is a normalized location user.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func stringAt(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func listAt(m map[string]interface{}, keys ...string) []interface{} {
	for _, k := range keys {
		if l, ok := m[k].([]interface{}); ok {
			return l
		}
	}
	return nil
}

func mapAt(m map[string]interface{}, path ...string) map[string]interface{} {
	cur := m
	for _, k := range path {
		next, ok := cur[k].(map[string]interface{})
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

// ContactIDFromSearch extracts the contact ID from a duplicate-search
// response, or "" when no contact matched.
func ContactIDFromSearch(result map[string]interface{}) string {
	if contact := mapAt(result, "contact"); contact != nil {
		return stringAt(contact, "id", "_id")
	}
	return ""
}

// ContactIDFromResponse extracts the contact ID from a create/update
// response.
func ContactIDFromResponse(result map[string]interface{}) string {
	if contact := mapAt(result, "contact"); contact != nil {
		return stringAt(contact, "id", "_id")
	}
	return stringAt(result, "id", "_id")
}

// OpportunityIDFromResponse extracts the opportunity ID from a create
// response.
func OpportunityIDFromResponse(result map[string]interface{}) string {
	if opp := mapAt(result, "opportunity"); opp != nil {
		return stringAt(opp, "id", "_id")
	}
	return stringAt(result, "id", "_id")
}

func pipelinesFromResponse(result map[string]interface{}) []Pipeline {
	raw := listAt(result, "pipelines")
	pipelines := make([]Pipeline, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		id := stringAt(m, "id", "_id")
		if id == "" {
			continue
		}
		p := Pipeline{ID: id, Name: stringAt(m, "name")}
		if p.Name == "" {
			p.Name = id
		}
		for _, rawStage := range listAt(m, "stages") {
			sm, ok := rawStage.(map[string]interface{})
			if !ok {
				continue
			}
			sid := stringAt(sm, "id", "_id")
			if sid == "" {
				continue
			}
			name := stringAt(sm, "name")
			if name == "" {
				name = sid
			}
			p.Stages = append(p.Stages, Stage{ID: sid, Name: name})
		}
		pipelines = append(pipelines, p)
	}
	return pipelines
}

func customFieldsFromResponse(result map[string]interface{}) []CustomField {
	raw := listAt(result, customFieldListKeys...)
	fields := make([]CustomField, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		f := CustomField{
			ID:   stringAt(m, "id", "_id"),
			Key:  stringAt(m, "key"),
			Name: stringAt(m, "name", "label", "fieldName"),
		}
		if f.ID == "" && f.Key == "" {
			continue
		}
		if f.Name == "" {
			f.Name = f.MappingKey()
		}
		for _, rawOpt := range listAt(m, optionListKeys...) {
			switch opt := rawOpt.(type) {
			case string:
				f.Options = append(f.Options, opt)
			case map[string]interface{}:
				if v := stringAt(opt, "value", "id", "label"); v != "" {
					f.Options = append(f.Options, v)
				}
			}
		}
		fields = append(fields, f)
	}
	return fields
}

// contactFieldsFromSchema parses the contact object schema. Fields may
// arrive as a list (schema.fields, object.fields, fields) or as a
// properties object keyed by field name.
func contactFieldsFromSchema(result map[string]interface{}) []ContactField {
	var raw []interface{}
	for _, path := range [][]string{{"schema"}, {"object"}, nil} {
		container := result
		if path != nil {
			container = mapAt(result, path...)
		}
		if container == nil {
			continue
		}
		if l := listAt(container, "fields"); l != nil {
			raw = l
			break
		}
		if props := mapAt(container, "properties"); props != nil {
			for key, def := range props {
				entry := map[string]interface{}{"key": key}
				if dm, ok := def.(map[string]interface{}); ok {
					for k, v := range dm {
						if _, exists := entry[k]; !exists {
							entry[k] = v
						}
					}
				}
				raw = append(raw, entry)
			}
			break
		}
	}

	fields := make([]ContactField, 0, len(raw))
	seen := make(map[string]bool)
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		key := stringAt(m, fieldKeyKeys...)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		label := stringAt(m, fieldLabelKeys...)
		if label == "" {
			label = key
		}
		fields = append(fields, ContactField{
			Key:      key,
			Label:    label,
			Required: strings.EqualFold(key, "email"),
		})
	}
	return fields
}

func usersFromResponse(result map[string]interface{}) []User {
	raw := listAt(result, userListKeys...)
	users := make([]User, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		id := stringAt(m, "id", "_id")
		if id == "" {
			continue
		}
		name := stringAt(m, "name")
		if name == "" {
			name = strings.TrimSpace(stringAt(m, "firstName") + " " + stringAt(m, "lastName"))
		}
		if name == "" {
			name = stringAt(m, "email")
		}
		if name == "" {
			name = id
		}
		users = append(users, User{ID: id, Name: name})
	}
	return users
}

// DefaultContactFields is the fallback contact field map used when the
// schema fetch fails or the API is not configured.
func DefaultContactFields() []ContactField {
	return []ContactField{
		{Key: "firstName", Label: "First Name"},
		{Key: "lastName", Label: "Last Name"},
		{Key: "name", Label: "Full Name"},
		{Key: "email", Label: "Email", Required: true},
		{Key: "phone", Label: "Phone"},
		{Key: "address1", Label: "Address (Street)"},
		{Key: "city", Label: "City"},
		{Key: "state", Label: "State"},
		{Key: "postalCode", Label: "Postal / ZIP Code"},
		{Key: "country", Label: "Country"},
		{Key: "companyName", Label: "Company Name"},
		{Key: "website", Label: "Website"},
		{Key: "dateOfBirth", Label: "Date of Birth"},
		{Key: "source", Label: "Lead Source"},
	}
}
