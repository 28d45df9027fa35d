package directive

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoDirective reports that a reply carries no PLAN_UPDATE line where
// one was required.
var ErrNoDirective = errors.New("reply contains no PLAN_UPDATE directive")

var directiveRe = regexp.MustCompile(`(?m)^\s*PLAN_UPDATE:\s*([A-Z_]+)[ \t]*`)

// Parse scans assistant free text for one PLAN_UPDATE command. It
// returns (nil, nil) when no directive is present; a malformed
// directive returns an error and no Directive.
//
// Arguments may be a strict JSON object (which may span lines) or a
// tolerant quoted key=value form with literal lists, e.g.
//
//	PLAN_UPDATE: UPDATE_TASK {"by_id": "ab12", "status": "completed"}
//	PLAN_UPDATE: ADD_TASKS tasks=[{"description": "search X"}, "write report"]
func Parse(text string) (*Directive, error) {
	loc := directiveRe.FindStringSubmatchIndex(text)
	if loc == nil {
		return nil, nil
	}

	kind := Kind(text[loc[2]:loc[3]])
	if _, ok := knownKinds[kind]; !ok {
		return nil, fmt.Errorf("unknown plan command: %s", kind)
	}

	rest := text[loc[1]:]
	argsJSON, err := extractArgs(rest)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}
	return decode(kind, argsJSON)
}

// ParseCreatePlan is the reduced parser used by the planner: it accepts
// only a CREATE_PLAN directive and treats anything else as an error.
func ParseCreatePlan(text string) (*Directive, error) {
	d, err := Parse(text)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrNoDirective
	}
	if d.Kind != KindCreatePlan {
		return nil, fmt.Errorf("expected CREATE_PLAN, got %s", d.Kind)
	}
	return d, nil
}

// extractArgs normalizes the argument text following the command to a
// JSON object. Empty arguments yield "{}".
func extractArgs(rest string) ([]byte, error) {
	trimmed := strings.TrimLeft(rest, " \t")
	if strings.HasPrefix(trimmed, "{") {
		obj, err := balanced(trimmed, '{', '}')
		if err != nil {
			return nil, err
		}
		if !json.Valid([]byte(obj)) {
			return nil, fmt.Errorf("malformed JSON arguments: %s", truncate(obj, 120))
		}
		return []byte(obj), nil
	}

	// Tolerant form: key=value pairs confined to the directive line.
	line := trimmed
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return []byte("{}"), nil
	}
	return pairsToJSON(line)
}

// pairsToJSON converts `key="value" tasks=[...]` pairs into a JSON
// object so both wire forms share one decode path.
func pairsToJSON(line string) ([]byte, error) {
	fields := map[string]json.RawMessage{}
	s := line
	for {
		s = strings.TrimLeft(s, " \t,")
		if s == "" {
			break
		}
		eq := strings.IndexByte(s, '=')
		if eq <= 0 {
			return nil, fmt.Errorf("malformed key=value arguments near %q", truncate(s, 40))
		}
		key := strings.TrimSpace(s[:eq])
		if !identRe.MatchString(key) {
			return nil, fmt.Errorf("invalid argument key %q", key)
		}
		s = s[eq+1:]

		var raw string
		var consumed int
		var err error
		switch {
		case strings.HasPrefix(s, `"`):
			raw, err = quoted(s)
			consumed = len(raw)
		case strings.HasPrefix(s, "["):
			raw, err = balanced(s, '[', ']')
			consumed = len(raw)
		case strings.HasPrefix(s, "{"):
			raw, err = balanced(s, '{', '}')
			consumed = len(raw)
		default:
			end := strings.IndexAny(s, " \t")
			if end < 0 {
				end = len(s)
			}
			raw = s[:end]
			consumed = end
			if !json.Valid([]byte(raw)) {
				b, _ := json.Marshal(raw)
				raw = string(b)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", key, err)
		}
		if !json.Valid([]byte(raw)) {
			return nil, fmt.Errorf("argument %q has malformed value: %s", key, truncate(raw, 80))
		}
		fields[key] = json.RawMessage(raw)
		s = s[consumed:]
	}

	out, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return out, nil
}

var identRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// balanced returns the prefix of s spanning one balanced open..close
// region, honoring double-quoted strings and escapes.
func balanced(s string, open, shut byte) (string, error) {
	depth := 0
	inStr := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inStr {
			switch c {
			case '\\':
				i++
			case '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case open:
			depth++
		case shut:
			depth--
			if depth == 0 {
				return s[:i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced %c...%c", open, shut)
}

// quoted returns the leading double-quoted JSON string of s.
func quoted(s string) (string, error) {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return s[:i+1], nil
		}
	}
	return "", fmt.Errorf("unterminated string")
}

func decode(kind Kind, argsJSON []byte) (*Directive, error) {
	d := &Directive{Kind: kind}
	switch kind {
	case KindCreatePlan:
		var args struct {
			Title       string     `json:"title"`
			Description string     `json:"description"`
			Tasks       []taskSpec `json:"tasks"`
		}
		if err := json.Unmarshal(argsJSON, &args); err != nil {
			return nil, fmt.Errorf("CREATE_PLAN arguments: %w", err)
		}
		if strings.TrimSpace(args.Title) == "" {
			return nil, fmt.Errorf("CREATE_PLAN requires a title")
		}
		d.Title = args.Title
		d.Description = args.Description
		d.Tasks = toSpecs(args.Tasks)

	case KindAddTasks:
		var args struct {
			Tasks []taskSpec `json:"tasks"`
		}
		if err := json.Unmarshal(argsJSON, &args); err != nil {
			return nil, fmt.Errorf("ADD_TASKS arguments: %w", err)
		}
		if len(args.Tasks) == 0 {
			return nil, fmt.Errorf("ADD_TASKS requires a tasks list")
		}
		d.Tasks = toSpecs(args.Tasks)

	case KindUpdateTask:
		var args UpdateArgs
		if err := json.Unmarshal(argsJSON, &args); err != nil {
			return nil, fmt.Errorf("UPDATE_TASK arguments: %w", err)
		}
		if strings.TrimSpace(args.ByID) == "" {
			return nil, fmt.Errorf("UPDATE_TASK requires by_id")
		}
		if args.Status != nil && !ValidTaskStatus(*args.Status) {
			return nil, fmt.Errorf("UPDATE_TASK has unknown status %q", *args.Status)
		}
		d.Update = args

	case KindSetCurrent:
		var args struct {
			TaskID string `json:"task_id"`
		}
		if err := json.Unmarshal(argsJSON, &args); err != nil {
			return nil, fmt.Errorf("SET_CURRENT arguments: %w", err)
		}
		d.TaskID = strings.TrimSpace(args.TaskID)

	case KindFinishPlan:
		// No arguments.
	}
	return d, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
