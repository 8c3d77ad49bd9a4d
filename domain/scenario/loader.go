package scenario

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"

	"github.com/streamvalidate/scenario/domain/action"
	"github.com/streamvalidate/scenario/internal/config"
	"github.com/streamvalidate/scenario/internal/errorsx"
)

// structure is one parsed line of the scenario DSL: a head token plus
// named fields (spec §4.5).
type structure struct {
	head   string
	fields map[string]string
	line   int
}

var validate = validator.New()

// Loader parses scenario scripts into a Scenario, resolving `include`
// against the search path and routing actions to the right queue.
type Loader struct {
	Actions *action.Registry
	Config  *config.Config
}

func NewLoader(actions *action.Registry, cfg *config.Config) *Loader {
	return &Loader{Actions: actions, Config: cfg}
}

// Load parses the file at path into sc. Only one action scenario may ever
// be loaded per Scenario (spec §4.5); subsequent Load calls on the same
// Scenario must all be config scenarios.
func (l *Loader) Load(sc *Scenario, path string) error {
	structures, err := l.parseFile(path, map[string]bool{})
	if err != nil {
		return err
	}

	alreadyActionScenario := sc.IsActionScenario()
	introducedAction := false
	for _, st := range structures {
		if err := l.apply(sc, st, &introducedAction); err != nil {
			return err
		}
	}
	if alreadyActionScenario && introducedAction {
		return errorsx.MultipleActionScenarios(sc.Name, path)
	}
	return nil
}

func (l *Loader) apply(sc *Scenario, st structure, introducedAction *bool) error {
	switch st.head {
	case "description":
		applyDescription(sc, st)
		return nil
	case "include":
		return nil // includes are expanded during parseFile, never reach here
	}

	t, ok := l.Actions.Lookup(st.head)
	if !ok {
		if optional, _ := st.fields["optional-action-type"]; optional == "true" {
			return nil
		}
		return errorsx.UnknownActionType(st.head).WithDetail("line", st.line)
	}

	if err := validateMandatory(t, st); err != nil {
		return err
	}

	params := action.Params(st.fields)
	a := action.NewAction(st.head, t, params)

	if subRaw, ok := st.fields["sub-action"]; ok {
		subs, err := l.parseSubActionChain(subRaw, st.line)
		if err != nil {
			return err
		}
		a.SubActions = subs
	}

	if d, ok := params.Duration("playback-time"); ok {
		a.PlaybackTime, a.PlaybackTimeSet = d, true
	}
	if to, ok := params.Duration("timeout"); ok {
		a.Timeout = to
	}
	if rep, ok := params.Int("repeat"); ok {
		a.Repeat = rep
	} else {
		a.Repeat = 1
	}

	if t.IsConfig() {
		// Config-phase actions run immediately at load time, never queued
		// (§4.5).
		if t.Prepare != nil {
			if err := t.Prepare(context.Background(), sc, a); err != nil {
				return errorsx.ActionExecution(t.Name, err).WithDetail("line", st.line)
			}
		}
		if _, err := t.Execute(context.Background(), sc, a); err != nil {
			return errorsx.ActionExecution(t.Name, err).WithDetail("line", st.line)
		}
		return nil
	}

	if t.Flags.Has(action.FlagCanExecuteOnAddition) && !a.PlaybackTimeSet {
		if !mainQueueHasPlaybackTime(sc.MainQueue) {
			a.Number = len(sc.OnAdditionQueue)
			sc.OnAdditionQueue = append(sc.OnAdditionQueue, a)
			*introducedAction = true
			return nil
		}
	}

	a.Number = len(sc.MainQueue)
	sc.MainQueue = append(sc.MainQueue, a)
	*introducedAction = true
	return nil
}

// parseSubActionChain unrolls a `sub-action` field's nested structure
// string into a flat chain of actions (spec §4.6 step 8). The original
// engine re-parses one `sub-action` field at a time, recursing into
// whatever it nests; we flatten that recursion into Action.SubActions up
// front so the tick loop only ever pops from the front of a plain slice.
func (l *Loader) parseSubActionChain(raw string, line int) ([]*action.Action, error) {
	var chain []*action.Action
	current := raw
	for current != "" {
		st, err := parseOneStructure(current, line)
		if err != nil {
			return nil, err
		}
		if st.head == "" {
			break
		}

		next, hasNext := st.fields["sub-action"]
		delete(st.fields, "sub-action")

		t, ok := l.Actions.Lookup(st.head)
		if !ok {
			return nil, errorsx.UnknownActionType(st.head).WithDetail("line", line)
		}
		if err := validateMandatory(t, st); err != nil {
			return nil, err
		}

		params := action.Params(st.fields)
		sub := action.NewAction(st.head, t, params)
		if rep, ok := params.Int("repeat"); ok {
			sub.Repeat = rep
		} else {
			sub.Repeat = 1
		}
		chain = append(chain, sub)

		if !hasNext {
			break
		}
		current = next
	}
	return chain, nil
}

func mainQueueHasPlaybackTime(queue []*action.Action) bool {
	for _, a := range queue {
		if a.PlaybackTimeSet {
			return true
		}
	}
	return false
}

func validateMandatory(t *action.Type, st structure) error {
	for _, name := range t.Mandatory {
		v, ok := st.fields[name]
		if !ok {
			return errorsx.MissingParameter(t.Name, name).WithDetail("line", st.line)
		}
		if err := validate.Var(v, "required"); err != nil {
			return errorsx.MissingParameter(t.Name, name).WithDetail("line", st.line)
		}
	}
	return nil
}

func applyDescription(sc *Scenario, st structure) {
	d := Description{}
	if v, ok := st.fields["is-config"]; ok {
		d.IsConfig = v == "true"
	}
	if v, ok := st.fields["handles-states"]; ok {
		d.HandlesStates = v == "true"
	}
	if v, ok := st.fields["pipeline-name"]; ok {
		d.PipelineName = v
	}
	if v, ok := st.fields["max-latency"]; ok {
		if dur, ok := (action.Params{"v": v}).Duration("v"); ok {
			d.MaxLatency = dur
		}
	}
	if v, ok := st.fields["max-dropped"]; ok {
		if n, ok := (action.Params{"v": v}).Int("v"); ok {
			d.MaxDropped = n
		}
	}
	sc.Description = d
}

// parseFile reads path, expanding `include` structures inline, and
// returns the flattened structure list. seen guards against include
// cycles.
func (l *Loader) parseFile(path string, seen map[string]bool) ([]structure, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if seen[abs] {
		return nil, fmt.Errorf("scenario: include cycle at %s", path)
	}
	seen[abs] = true

	f, err := os.Open(path)
	if err != nil {
		return nil, errorsx.MalformedFile(path, err)
	}
	defer f.Close()

	raw, err := parseStructures(f)
	if err != nil {
		return nil, errorsx.MalformedFile(path, err)
	}

	dir := filepath.Dir(path)
	var out []structure
	for _, st := range raw {
		if st.head != "include" {
			out = append(out, st)
			continue
		}
		loc, ok := st.fields["location"]
		if !ok {
			return nil, errorsx.MissingParameter("include", "location").WithDetail("line", st.line)
		}
		resolved, found := l.Config.ResolveInclude(loc, dir)
		if !found {
			return nil, errorsx.IncludeNotFound(loc).WithDetail("line", st.line)
		}
		included, err := l.parseFile(resolved, seen)
		if err != nil {
			return nil, err
		}
		out = append(out, included...)
	}
	return out, nil
}

// parseStructures tokenizes the line-oriented DSL: a head token, then
// comma-separated `key=value` fields; `\` at end-of-line continues the
// structure, `#` begins a line comment.
func parseStructures(r io.Reader) ([]structure, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var structures []structure
	var buf strings.Builder
	lineNo := 0
	startLine := 0

	flush := func() error {
		if buf.Len() == 0 {
			return nil
		}
		st, err := parseOneStructure(buf.String(), startLine)
		buf.Reset()
		if err != nil {
			return err
		}
		if st.head != "" {
			structures = append(structures, st)
		}
		return nil
	}

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if buf.Len() == 0 {
			startLine = lineNo
		}
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			if buf.Len() == 0 {
				continue
			}
		}
		if strings.HasSuffix(trimmed, "\\") {
			buf.WriteString(strings.TrimSuffix(trimmed, "\\"))
			buf.WriteString(" ")
			continue
		}
		buf.WriteString(trimmed)
		if err := flush(); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return structures, nil
}

func parseOneStructure(s string, line int) (structure, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "#") {
		return structure{}, nil
	}

	parts := splitTopLevel(s, ',')
	if len(parts) == 0 {
		return structure{}, nil
	}

	st := structure{head: strings.TrimSpace(parts[0]), fields: make(map[string]string), line: line}
	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		eq := strings.IndexByte(part, '=')
		if eq < 0 {
			return structure{}, fmt.Errorf("scenario: malformed field %q at line %d", part, line)
		}
		key := strings.TrimSpace(part[:eq])
		val := strings.TrimSpace(part[eq+1:])
		val = strings.Trim(val, `"`)
		st.fields[key] = resolveEmbeddedJSON(val)
	}
	return st, nil
}

// splitTopLevel splits on sep, but not inside parentheses or quotes —
// scenario field values may themselves contain commas (e.g. seek flags
// or nested structures).
func splitTopLevel(s string, sep byte) []string {
	var out []string
	depth := 0
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuote = !inQuote
		case inQuote:
			// inside a quoted value, ignore structural characters
		case c == '(' || c == '{' || c == '[':
			depth++
		case c == ')' || c == '}' || c == ']':
			depth--
		case c == sep && depth == 0:
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

// resolveEmbeddedJSON handles field values that are themselves a JSON
// fragment (e.g. `caps={"mime":"video/x-raw","width":1920}`): rather than
// keep the raw JSON text, flatten single-level JSON objects into a
// compact structure string so the rest of the pipeline sees one
// consistent param-value shape. Plain values pass through untouched.
func resolveEmbeddedJSON(val string) string {
	if !strings.HasPrefix(val, "{") || !gjson.Valid(val) {
		return val
	}
	var parts []string
	gjson.Parse(val).ForEach(func(key, value gjson.Result) bool {
		parts = append(parts, key.String()+"="+value.String())
		return true
	})
	return strings.Join(parts, ";")
}
