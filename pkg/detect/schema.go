package detect

import (
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/venueflow/venueflow/pkg/llm"
)

// unifiedSchemaJSON constrains the unified detection object returned by the
// provider. Anything outside it counts as a malformed response and triggers
// the gateway retry.
const unifiedSchemaJSON = `{
  "type": "object",
  "required": ["intent", "confidence"],
  "properties": {
    "language": {"type": "string"},
    "intent": {
      "type": "string",
      "enum": ["event_request", "question", "acceptance", "rejection",
               "confirmation", "change_request", "manager_request",
               "nonsense", "other"]
    },
    "is_question": {"type": "boolean"},
    "is_acceptance": {"type": "boolean"},
    "is_rejection": {"type": "boolean"},
    "is_confirmation": {"type": "boolean"},
    "is_change_request": {"type": "boolean"},
    "is_manager_request": {"type": "boolean"},
    "is_ambiguous": {"type": "boolean"},
    "has_injection_attempt": {"type": "boolean"},
    "qna_types": {"type": "array", "items": {"type": "string"}},
    "entities": {
      "type": "object",
      "properties": {
        "date": {"type": "string"},
        "start_time": {"type": "string"},
        "end_time": {"type": "string"},
        "room_preference": {"type": "string"},
        "participants": {"type": "integer"},
        "event_type": {"type": "string"},
        "contact_name": {"type": "string"},
        "contact_email": {"type": "string"},
        "contact_phone": {"type": "string"},
        "site_visit_date": {"type": "string"},
        "site_visit_time": {"type": "string"},
        "room_type_hint": {"type": "string"},
        "budget": {"type": "string"}
      }
    },
    "confidence": {"type": "number", "minimum": 0, "maximum": 1}
  }
}`

var unifiedSchema *jsonschema.Schema = llm.MustCompileSchema("unified_detection.json", unifiedSchemaJSON)

// intentSchemaJSON is the legacy-mode intent-only schema.
const intentSchemaJSON = `{
  "type": "object",
  "required": ["intent", "confidence"],
  "properties": {
    "intent": {"type": "string"},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1},
    "is_question": {"type": "boolean"},
    "is_acceptance": {"type": "boolean"},
    "is_rejection": {"type": "boolean"},
    "is_confirmation": {"type": "boolean"},
    "is_change_request": {"type": "boolean"}
  }
}`

var intentSchema *jsonschema.Schema = llm.MustCompileSchema("intent_detection.json", intentSchemaJSON)

// entitySchemaJSON is the legacy-mode entity-only schema.
const entitySchemaJSON = `{
  "type": "object",
  "properties": {
    "entities": {"type": "object"}
  }
}`

var entitySchema *jsonschema.Schema = llm.MustCompileSchema("entity_detection.json", entitySchemaJSON)
