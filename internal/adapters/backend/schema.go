package backend

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const albumSchema = `{
  "type": "object",
  "required": ["id", "name", "artist_name", "elo_score"],
  "properties": {
    "id": {"type": "integer"},
    "name": {"type": "string"},
    "artist_name": {"type": "string"},
    "image_url": {"type": ["string", "null"]},
    "elo_score": {"type": "number"},
    "playcount": {"type": ["integer", "null"]},
    "ignored": {"type": ["boolean", "null"]}
  }
}`

var (
	matchupSchema = mustSchema(`{
  "type": "array",
  "maxItems": 2,
  "items": ` + albumSchema + `
}`)

	albumListSchema = mustSchema(`{
  "type": "array",
  "items": ` + albumSchema + `
}`)

	voteSchema = mustSchema(`{
  "type": "object",
  "required": ["new_scores"],
  "properties": {
    "success": {"type": "boolean"},
    "new_scores": {
      "type": "object",
      "required": ["album1", "album2"],
      "properties": {
        "album1": {"type": "number"},
        "album2": {"type": "number"}
      }
    }
  }
}`)

	ackSchema = mustSchema(`{
  "type": "object",
  "properties": {
    "success": {"type": "boolean"}
  }
}`)

	messageSchema = mustSchema(`{
  "type": "object",
  "required": ["message"],
  "properties": {
    "message": {"type": "string"}
  }
}`)

	resetSchema = mustSchema(`{
  "type": "object",
  "required": ["deleted_count"],
  "properties": {
    "message": {"type": "string"},
    "deleted_count": {"type": "integer", "minimum": 0},
    "legacy_file_deleted": {"type": "boolean"}
  }
}`)

	settingsSchema = mustSchema(`{
  "type": "object",
  "required": ["scrobble_threshold"],
  "properties": {
    "username": {"type": "string"},
    "source": {"type": "string"},
    "scrobble_threshold": {"type": "integer", "minimum": 0}
  }
}`)
)

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("backend: invalid schema: %v", err))
	}
	return schema
}

// validateBody checks body against schema and reports every field error.
func validateBody(schema *gojsonschema.Schema, body []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		msgs = append(msgs, field+": "+desc.Description())
	}
	return fmt.Errorf("%w: %s", ErrMalformedResponse, strings.Join(msgs, "; "))
}
