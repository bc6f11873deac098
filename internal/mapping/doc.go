// Package mapping defines the persisted shape of a pipeline and its
// transformation rules, with JSON/YAML encodings and validation.
//
// # Pipeline document
//
// A pipeline is stored as a JSON document:
//
//	{
//	  "id": "pipeline_6f1c...",
//	  "name": "user profile",
//	  "inputSample":  {"format": "json", "data": {"firstName": "Jane", "lastName": "Doe"}},
//	  "outputSample": {"format": "json", "data": {"fullName": "Jane Doe"}},
//	  "transformationRules": [
//	    {
//	      "id": "rule_0d4e...",
//	      "type": "concat",
//	      "sourceField": "firstName",
//	      "targetField": "fullName",
//	      "logic": "data.firstName + \" \" + data.lastName",
//	      "confidence": 0.85,
//	      "parts": [{"field": "firstName"}, {"literal": " "}, {"field": "lastName"}]
//	    }
//	  ],
//	  "accuracy": 0.85,
//	  "version": "1.0.0"
//	}
//
// Documents are checked against an embedded JSON Schema on load
// (ValidateDocument) and against the structural invariants of a config
// (Validate): one rule per target field, accuracy in [0,1], semantic version.
//
// # Rule kinds
//
//   - map: copy the source value
//   - concat: join source strings and literals following Parts
//   - comparison: compare a number with Threshold using Operator
//   - typecast: convert the source value to TargetKind
//   - custom: copy the source value; relationship not recognised
//
// # Review export
//
// MarshalRulesYAML renders the rules of a pipeline as YAML so they can be
// reviewed or diffed outside the engine.
package mapping
