package mapper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"ghlsync/internal/model"
)

// fieldRefPrefix marks a mapping entry as a form-field reference rather
// than a literal template.
const fieldRefPrefix = "field:"

// mergeTagPattern matches merge tags like {Email:3} or {3}. The part
// after the last colon is the field ID; the label before it is ignored.
var mergeTagPattern = regexp.MustCompile(`\{([^{}]*?):?([A-Za-z0-9_.-]+)\}`)

// contactLabelToAPIKey is the canonical label → API property name table.
// The LeadConnector API expects camelCase; mappings may store keys as
// human-readable labels.
var contactLabelToAPIKey = map[string]string{
	"First Name":        "firstName",
	"Last Name":         "lastName",
	"Full Name":         "name",
	"Email":             "email",
	"Phone":             "phone",
	"Address (Street)":  "address1",
	"City":              "city",
	"State":             "state",
	"Postal / ZIP Code": "postalCode",
	"Country":           "country",
	"Company Name":      "companyName",
	"Website":           "website",
	"Date of Birth":     "dateOfBirth",
	"Lead Source":       "source",
}

// APIKeyForContactField normalizes a mapping key to the CRM's property
// name: known labels map to their camelCase key, everything else passes
// through unchanged.
func APIKeyForContactField(key string) string {
	if apiKey, ok := contactLabelToAPIKey[key]; ok {
		return apiKey
	}
	return key
}

// SanitizeField trims a resolved value and strips control characters.
func SanitizeField(value string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, value)
	return strings.TrimSpace(cleaned)
}

// ResolveMapping resolves one mapping entry against a submission: a
// field reference reads the submission value for that field ID; anything
// else is treated as a literal template with merge tags substituted.
// The result is sanitized.
func ResolveMapping(entry string, sub *model.Submission, form *model.Form) string {
	if fieldID, ok := strings.CutPrefix(entry, fieldRefPrefix); ok {
		return SanitizeField(sub.Values[fieldID])
	}
	return SanitizeField(ResolveTemplate(entry, sub, form))
}

// ResolveTemplate substitutes merge tags in a literal template. Unknown
// field IDs resolve to the empty string. {submission_id} and
// {form_title} are supported as special tags.
func ResolveTemplate(tpl string, sub *model.Submission, form *model.Form) string {
	return mergeTagPattern.ReplaceAllStringFunc(tpl, func(tag string) string {
		groups := mergeTagPattern.FindStringSubmatch(tag)
		fieldID := groups[2]
		switch fieldID {
		case "submission_id":
			return strconv.FormatInt(sub.ID, 10)
		case "form_title":
			if form != nil {
				return form.Title
			}
			return ""
		}
		return sub.Values[fieldID]
	})
}

// ResolveContactField resolves the mapped value for one contact field
// key (e.g. "email"), checking the raw key and its label spelling.
func ResolveContactField(feed *model.Feed, sub *model.Submission, form *model.Form, apiKey string) string {
	for mapKey, entry := range feed.Meta.ContactFieldMap {
		if mapKey == apiKey || APIKeyForContactField(mapKey) == apiKey {
			return ResolveMapping(entry, sub, form)
		}
	}
	return ""
}

// BuildContactData builds the contact request body from a feed's
// mappings. Empty-after-resolution values are omitted; contact field
// keys are normalized to API property names; the default lead source is
// injected only when no mapping supplied a source.
func BuildContactData(feed *model.Feed, sub *model.Submission, form *model.Form, defaultLeadSource string) map[string]interface{} {
	data := make(map[string]interface{})

	for mapKey, entry := range feed.Meta.ContactFieldMap {
		value := ResolveMapping(entry, sub, form)
		if value == "" {
			continue
		}
		data[APIKeyForContactField(mapKey)] = value
	}

	if customFields := buildCustomFields(feed, sub, form); len(customFields) > 0 {
		data["customFields"] = customFields
	}

	if tags := BuildTags(feed.Meta.ContactTags, sub, form); len(tags) > 0 {
		data["tags"] = tags
	}

	if _, mapped := data["source"]; !mapped && defaultLeadSource != "" {
		data["source"] = defaultLeadSource
	}

	return data
}

// buildCustomFields resolves the custom field map to {id, value} pairs,
// keeping only non-empty values.
func buildCustomFields(feed *model.Feed, sub *model.Submission, form *model.Form) []map[string]interface{} {
	var out []map[string]interface{}
	for id, entry := range feed.Meta.CustomFieldMap {
		value := ResolveMapping(entry, sub, form)
		if value == "" {
			continue
		}
		out = append(out, map[string]interface{}{"id": id, "value": value})
	}
	return out
}

// BuildTags resolves the comma-separated tag template, splits it, trims
// entries, and drops empties. Order is preserved; duplicates are kept.
func BuildTags(template string, sub *model.Submission, form *model.Form) []string {
	resolved := SanitizeField(ResolveTemplate(template, sub, form))
	if resolved == "" {
		return nil
	}
	var tags []string
	for _, raw := range strings.Split(resolved, ",") {
		if tag := strings.TrimSpace(raw); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// nonMonetaryChars strips everything but digits and the decimal point.
var nonMonetaryChars = regexp.MustCompile(`[^0-9.]`)

// ParseMonetaryValue strips currency symbols and separators from a
// resolved value template and parses the remainder. Returns nil unless
// the parsed value is strictly greater than zero.
func ParseMonetaryValue(resolved string) *float64 {
	numeric := nonMonetaryChars.ReplaceAllString(resolved, "")
	if numeric == "" {
		return nil
	}
	value, err := strconv.ParseFloat(numeric, 64)
	if err != nil || value <= 0 {
		return nil
	}
	return &value
}

// BuildOpportunityData builds the opportunity payload from the feed's
// opportunity settings. The name template falls back to
// "Form Submission #<id>" when empty; status defaults to open.
func BuildOpportunityData(feed *model.Feed, sub *model.Submission, form *model.Form, contactID, defaultLeadSource string) model.OpportunityPayload {
	meta := feed.Meta

	payload := model.OpportunityPayload{
		ContactID:       contactID,
		PipelineID:      SanitizeField(meta.OpportunityPipeline),
		PipelineStageID: SanitizeField(meta.OpportunityStage),
		Status:          SanitizeField(meta.OpportunityStatus),
		Source:          defaultLeadSource,
	}
	if payload.Status == "" {
		payload.Status = string(model.OpportunityStatusOpen)
	}

	if name := SanitizeField(ResolveTemplate(meta.OpportunityName, sub, form)); name != "" {
		payload.Name = name
	} else {
		payload.Name = fmt.Sprintf("Form Submission #%d", sub.ID)
	}

	if meta.OpportunityValue != "" {
		resolved := SanitizeField(ResolveTemplate(meta.OpportunityValue, sub, form))
		payload.MonetaryValue = ParseMonetaryValue(resolved)
	}

	if assignTo := SanitizeField(meta.OpportunityAssignTo); assignTo != "" {
		payload.AssignedTo = assignTo
	}

	return payload
}
