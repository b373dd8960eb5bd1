package ghl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactIDFromSearch(t *testing.T) {
	assert.Equal(t, "c-1", ContactIDFromSearch(map[string]interface{}{
		"contact": map[string]interface{}{"id": "c-1"},
	}))
	assert.Equal(t, "c-2", ContactIDFromSearch(map[string]interface{}{
		"contact": map[string]interface{}{"_id": "c-2"},
	}))
	assert.Empty(t, ContactIDFromSearch(map[string]interface{}{}))
	assert.Empty(t, ContactIDFromSearch(map[string]interface{}{"contact": "bogus"}))
}

func TestContactIDFromResponse_TopLevelFallback(t *testing.T) {
	assert.Equal(t, "c-3", ContactIDFromResponse(map[string]interface{}{"id": "c-3"}))
	assert.Equal(t, "c-4", ContactIDFromResponse(map[string]interface{}{
		"contact": map[string]interface{}{"id": "c-4"},
	}))
}

func TestPipelinesFromResponse(t *testing.T) {
	result := map[string]interface{}{
		"pipelines": []interface{}{
			map[string]interface{}{
				"id": "p-1",
				"stages": []interface{}{
					map[string]interface{}{"id": "s-1", "name": "New"},
					map[string]interface{}{"id": ""},
				},
			},
			map[string]interface{}{"name": "no id, dropped"},
			"bogus",
		},
	}

	pipelines := pipelinesFromResponse(result)
	require.Len(t, pipelines, 1)
	// Name falls back to the ID when absent.
	assert.Equal(t, "p-1", pipelines[0].Name)
	require.Len(t, pipelines[0].Stages, 1)
	assert.Equal(t, "New", pipelines[0].Stages[0].Name)
}

func TestCustomFieldsFromResponse(t *testing.T) {
	result := map[string]interface{}{
		"customFields": []interface{}{
			map[string]interface{}{
				"id":   "cf-1",
				"key":  "contact.budget",
				"name": "Budget",
				"options": []interface{}{
					"Low",
					map[string]interface{}{"value": "High"},
				},
			},
			map[string]interface{}{"id": "cf-2"},
			map[string]interface{}{"name": "no identifiers, dropped"},
		},
	}

	fields := customFieldsFromResponse(result)
	require.Len(t, fields, 2)

	assert.Equal(t, "contact.budget", fields[0].MappingKey())
	assert.Equal(t, []string{"Low", "High"}, fields[0].Options)

	// Falls back to ID for both mapping key and display name.
	assert.Equal(t, "cf-2", fields[1].MappingKey())
	assert.Equal(t, "cf-2", fields[1].Name)
}

func TestCustomFieldsFromResponse_SingularKey(t *testing.T) {
	result := map[string]interface{}{
		"customField": []interface{}{
			map[string]interface{}{"id": "cf-1", "name": "Budget"},
		},
	}
	assert.Len(t, customFieldsFromResponse(result), 1)
}

func TestContactFieldsFromSchema_FieldsList(t *testing.T) {
	result := map[string]interface{}{
		"schema": map[string]interface{}{
			"fields": []interface{}{
				map[string]interface{}{"key": "email", "label": "Email"},
				map[string]interface{}{"key": "email", "label": "duplicate, dropped"},
				map[string]interface{}{"key": "phone"},
			},
		},
	}

	fields := contactFieldsFromSchema(result)
	require.Len(t, fields, 2)
	assert.True(t, fields[0].Required)
	assert.Equal(t, "phone", fields[1].Key)
	// Label falls back to the key.
	assert.Equal(t, "phone", fields[1].Label)
}

func TestContactFieldsFromSchema_PropertiesObject(t *testing.T) {
	result := map[string]interface{}{
		"properties": map[string]interface{}{
			"email": map[string]interface{}{"label": "Email"},
		},
	}

	fields := contactFieldsFromSchema(result)
	require.Len(t, fields, 1)
	assert.Equal(t, "email", fields[0].Key)
	assert.Equal(t, "Email", fields[0].Label)
	assert.True(t, fields[0].Required)
}

func TestUsersFromResponse_NameFallbacks(t *testing.T) {
	result := map[string]interface{}{
		"users": []interface{}{
			map[string]interface{}{"id": "u-1", "name": "Ada Lovelace"},
			map[string]interface{}{"id": "u-2", "firstName": "Grace", "lastName": "Hopper"},
			map[string]interface{}{"id": "u-3", "email": "u3@example.com"},
			map[string]interface{}{"id": "u-4"},
			map[string]interface{}{"name": "no id, dropped"},
		},
	}

	users := usersFromResponse(result)
	require.Len(t, users, 4)
	assert.Equal(t, "Ada Lovelace", users[0].Name)
	assert.Equal(t, "Grace Hopper", users[1].Name)
	assert.Equal(t, "u3@example.com", users[2].Name)
	assert.Equal(t, "u-4", users[3].Name)
}

func TestDefaultContactFields(t *testing.T) {
	fields := DefaultContactFields()
	require.NotEmpty(t, fields)

	var email *ContactField
	for i := range fields {
		if fields[i].Key == "email" {
			email = &fields[i]
		}
	}
	require.NotNil(t, email)
	assert.True(t, email.Required)
}
