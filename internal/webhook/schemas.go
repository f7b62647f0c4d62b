// internal/webhook/schemas.go
package webhook

import "matrix-core/internal/common/validation"

const umnicoSchema = `{
  "type": "object",
  "required": ["message"],
  "properties": {
    "session_id": {"type": "string"},
    "user_id": {"type": "string"},
    "user_type": {"type": "string", "enum": ["customer", "contractor", "producer"]},
    "message": {"type": "string", "minLength": 1, "maxLength": 4000},
    "contact": {
      "type": "object",
      "properties": {
        "name": {"type": "string"},
        "phone": {"type": "string"},
        "email": {"type": "string"}
      }
    },
    "context": {"type": "object"}
  }
}`

const tildaSchema = `{
  "type": "object",
  "required": ["message"],
  "properties": {
    "formid": {"type": "string"},
    "tranid": {"type": "string"},
    "name": {"type": "string"},
    "phone": {"type": "string"},
    "email": {"type": "string"},
    "message": {"type": "string", "minLength": 1, "maxLength": 4000},
    "region": {"type": "string"},
    "budget": {"type": "string"},
    "timeline": {"type": "string"}
  }
}`

const flexbeSchema = `{
  "type": "object",
  "required": ["event", "data"],
  "properties": {
    "event": {"type": "string"},
    "data": {
      "type": "object",
      "required": ["fields"],
      "properties": {
        "id": {"type": ["string", "integer"]},
        "form_name": {"type": "string"},
        "fields": {
          "type": "object",
          "required": ["message"],
          "properties": {
            "message": {"type": "string", "minLength": 1, "maxLength": 4000},
            "name": {"type": "string"},
            "phone": {"type": "string"},
            "email": {"type": "string"},
            "region": {"type": "string"},
            "specialization": {"type": "string"}
          }
        }
      }
    }
  }
}`

var schemas = map[Platform]*validation.Schema{
	PlatformUmnico: validation.MustCompile("webhook-umnico", umnicoSchema),
	PlatformTilda:  validation.MustCompile("webhook-tilda", tildaSchema),
	PlatformFlexbe: validation.MustCompile("webhook-flexbe", flexbeSchema),
}
