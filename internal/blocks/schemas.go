package blocks

const textSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["content", "style"],
  "properties": {
    "content": {"type": "string"},
    "style": {"enum": ["normal", "heading", "subheading", "quote", "note", "warning"]}
  }
}`

const imageSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["url", "caption", "transform"],
  "properties": {
    "url": {"type": "string"},
    "caption": {"type": "string"},
    "transform": {
      "type": "object",
      "additionalProperties": false,
      "required": ["x", "y", "scale", "rotation"],
      "properties": {
        "x": {"type": "number"},
        "y": {"type": "number"},
        "scale": {"type": "number", "minimum": 0},
        "rotation": {"type": "number"}
      }
    }
  }
}`

const videoSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["url", "provider", "start_seconds", "end_seconds"],
  "properties": {
    "url": {"type": "string"},
    "provider": {"enum": ["youtube", "vimeo", "upload"]},
    "start_seconds": {"type": "integer", "minimum": 0},
    "end_seconds": {"type": ["integer", "null"], "minimum": 0}
  }
}`

const multipleChoiceSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["question", "options", "multiple_correct", "shuffle"],
  "properties": {
    "question": {"type": "string"},
    "options": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["id", "text", "correct"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "text": {"type": "string"},
          "correct": {"type": "boolean"}
        }
      }
    },
    "multiple_correct": {"type": "boolean"},
    "shuffle": {"type": "boolean"}
  }
}`

const openQuestionSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["question", "ai_grading", "grading_criteria", "max_score"],
  "properties": {
    "question": {"type": "string"},
    "ai_grading": {"type": "boolean"},
    "grading_criteria": {"type": "string"},
    "max_score": {"type": "number", "minimum": 0}
  }
}`

const fillInBlankSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["text", "answers", "case_sensitive"],
  "properties": {
    "text": {"type": "string"},
    "answers": {"type": "array", "items": {"type": "string"}},
    "case_sensitive": {"type": "boolean"}
  }
}`

const dragDropSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["prompt", "pairs"],
  "properties": {
    "prompt": {"type": "string"},
    "pairs": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["left", "right"],
        "properties": {
          "left": {"type": "string"},
          "right": {"type": "string"}
        }
      }
    }
  }
}`

const orderingSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["prompt", "items", "correct_order"],
  "properties": {
    "prompt": {"type": "string"},
    "items": {"type": "array", "items": {"type": "string"}},
    "correct_order": {"type": "array", "items": {"type": "integer", "minimum": 0}}
  }
}`

const mediaEmbedSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["embed_url", "description"],
  "properties": {
    "embed_url": {"type": "string"},
    "description": {"type": "string"}
  }
}`

const dividerSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["style"],
  "properties": {
    "style": {"enum": ["line", "space", "page_break"]}
  }
}`
