package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Project identifies the Jira project that owns an issue.
type Project struct {
	ID   int64  `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// IssueFields carries the subset of Jira issue fields the relay reads.
type IssueFields struct {
	Summary     string  `json:"summary"`
	Description string  `json:"description"`
	Project     Project `json:"project"`
}

// Issue is the issue section of a webhook payload.
type Issue struct {
	ID     int64       `json:"id"`
	Fields IssueFields `json:"fields"`
}

// IssueData is the full webhook request body.
type IssueData struct {
	Issue Issue `json:"issue"`
}

// IssueKey returns the issue id in the string form Jira's REST paths expect.
func (d IssueData) IssueKey() string {
	return strconv.FormatInt(d.Issue.ID, 10)
}

// TrackedIssue is an issue as returned by the tracker.
type TrackedIssue struct {
	ID          string
	Key         string
	Summary     string
	Description string
}

// FieldError describes one shape violation in a request body.
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// FieldErrors collects shape violations.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fmt.Sprintf("%s: %s", strings.Join(fe.Loc, "."), fe.Msg))
	}
	return strings.Join(msgs, "; ")
}

const (
	typeMissing   = "value_error.missing"
	typeJSON      = "value_error.jsondecode"
	typeDict      = "type_error.dict"
	typeInteger   = "type_error.integer"
	typeString    = "type_error.str"
	typeNoneValue = "type_error.none.not_allowed"
)

// DecodeIssueData parses and shape-checks a webhook body.
// Integer fields accept JSON integers and strings holding an integer. String
// fields accept JSON numbers in their literal form. Summary and description may
// be absent or null. Anything after the first JSON document is rejected.
func DecodeIssueData(body []byte) (IssueData, FieldErrors) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return IssueData{}, FieldErrors{{Loc: []string{"body"}, Msg: err.Error(), Type: typeJSON}}
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); err != io.EOF {
		return IssueData{}, FieldErrors{{Loc: []string{"body"}, Msg: "unexpected data after JSON document", Type: typeJSON}}
	}

	p := &payloadParser{}
	root := p.object(raw, "body")
	if root == nil {
		return IssueData{}, p.errs
	}

	var data IssueData
	if issue := p.object(p.field(root, true, "body", "issue"), "body", "issue"); issue != nil {
		data.Issue.ID = p.integer(p.field(issue, true, "body", "issue", "id"), "body", "issue", "id")

		fields := p.object(p.field(issue, true, "body", "issue", "fields"), "body", "issue", "fields")
		if fields != nil {
			data.Issue.Fields.Summary = p.optionalString(fields, "body", "issue", "fields", "summary")
			data.Issue.Fields.Description = p.optionalString(fields, "body", "issue", "fields", "description")

			project := p.object(p.field(fields, true, "body", "issue", "fields", "project"),
				"body", "issue", "fields", "project")
			if project != nil {
				base := []string{"body", "issue", "fields", "project"}
				data.Issue.Fields.Project.ID = p.integer(p.field(project, true, append(base, "id")...), append(base, "id")...)
				data.Issue.Fields.Project.Key = p.requiredString(project, append(base, "key")...)
				data.Issue.Fields.Project.Name = p.requiredString(project, append(base, "name")...)
			}
		}
	}

	if len(p.errs) > 0 {
		return IssueData{}, p.errs
	}
	return data, nil
}

// missing marks an absent key so it can be told apart from an explicit null.
type missing struct{}

type payloadParser struct {
	errs FieldErrors
}

func (p *payloadParser) fail(msg, typ string, loc ...string) {
	p.errs = append(p.errs, FieldError{Loc: append([]string(nil), loc...), Msg: msg, Type: typ})
}

func (p *payloadParser) field(obj map[string]interface{}, required bool, loc ...string) interface{} {
	v, ok := obj[loc[len(loc)-1]]
	if !ok {
		if required {
			p.fail("field required", typeMissing, loc...)
		}
		return missing{}
	}
	return v
}

func (p *payloadParser) object(v interface{}, loc ...string) map[string]interface{} {
	switch val := v.(type) {
	case missing:
		return nil
	case map[string]interface{}:
		return val
	case nil:
		p.fail("none is not an allowed value", typeNoneValue, loc...)
	default:
		p.fail("value is not a valid dict", typeDict, loc...)
	}
	return nil
}

func (p *payloadParser) integer(v interface{}, loc ...string) int64 {
	switch val := v.(type) {
	case missing:
		return 0
	case nil:
		p.fail("none is not an allowed value", typeNoneValue, loc...)
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		if f, err := val.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) < math.MaxInt64 {
			return int64(f)
		}
		p.fail("value is not a valid integer", typeInteger, loc...)
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64); err == nil {
			return n
		}
		p.fail("value is not a valid integer", typeInteger, loc...)
	default:
		p.fail("value is not a valid integer", typeInteger, loc...)
	}
	return 0
}

func (p *payloadParser) requiredString(obj map[string]interface{}, loc ...string) string {
	switch val := p.field(obj, true, loc...).(type) {
	case missing:
	case string:
		return val
	case json.Number:
		return val.String()
	case nil:
		p.fail("none is not an allowed value", typeNoneValue, loc...)
	default:
		p.fail("str type expected", typeString, loc...)
	}
	return ""
}

func (p *payloadParser) optionalString(obj map[string]interface{}, loc ...string) string {
	switch val := p.field(obj, false, loc...).(type) {
	case missing, nil:
	case string:
		return val
	case json.Number:
		return val.String()
	default:
		p.fail("str type expected", typeString, loc...)
	}
	return ""
}
