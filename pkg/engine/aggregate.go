package engine

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/mcptestbench/mcptestbench/pkg/plugin"
)

// Entry is one plugin's finalized result keyed by its name.
type Entry struct {
	Name   string
	Result plugin.Result
}

// Aggregate is the run's terminal output: one entry per plugin, insertion
// order equal to registry order. Built incrementally by the engine and
// finalized once every plugin has run or failed.
type Aggregate struct {
	// RunID identifies this run in reports and logs.
	RunID string

	// GeneratedAt is when the run started, recorded in the report.
	GeneratedAt time.Time

	entries []Entry
	index   map[string]int
}

// NewAggregate creates an empty aggregate stamped with the current time.
func NewAggregate(runID string) *Aggregate {
	return &Aggregate{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		index:       make(map[string]int),
	}
}

// add inserts or replaces a plugin's result, preserving first-insertion order.
func (a *Aggregate) add(name string, res plugin.Result) {
	if i, ok := a.index[name]; ok {
		a.entries[i].Result = res
		return
	}
	a.index[name] = len(a.entries)
	a.entries = append(a.entries, Entry{Name: name, Result: res})
}

// Entries returns the per-plugin results in insertion order.
func (a *Aggregate) Entries() []Entry {
	out := make([]Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

// Names returns the plugin names in insertion order.
func (a *Aggregate) Names() []string {
	names := make([]string, len(a.entries))
	for i, e := range a.entries {
		names[i] = e.Name
	}
	return names
}

// Get returns one plugin's result by name.
func (a *Aggregate) Get(name string) (plugin.Result, bool) {
	i, ok := a.index[name]
	if !ok {
		return plugin.Result{}, false
	}
	return a.entries[i].Result, true
}

// Len returns the number of collected results.
func (a *Aggregate) Len() int { return len(a.entries) }

// MarshalJSON emits {"run_id": ..., "plugins": {name: result, ...}} with the
// plugins mapping serialized in insertion order. encoding/json would sort a
// plain map, so the object is assembled by hand.
func (a *Aggregate) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if a.RunID != "" {
		buf.WriteString(`"run_id":`)
		id, err := json.Marshal(a.RunID)
		if err != nil {
			return nil, err
		}
		buf.Write(id)
		buf.WriteByte(',')
	}
	if !a.GeneratedAt.IsZero() {
		buf.WriteString(`"generated_at":`)
		ts, err := json.Marshal(a.GeneratedAt)
		if err != nil {
			return nil, err
		}
		buf.Write(ts)
		buf.WriteByte(',')
	}
	buf.WriteString(`"plugins":{`)
	for i, e := range a.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		res, err := json.Marshal(e.Result)
		if err != nil {
			return nil, err
		}
		buf.Write(res)
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

// UnmarshalJSON restores an aggregate from its wire form. Insertion order
// of the plugins mapping follows the document order of the JSON object.
func (a *Aggregate) UnmarshalJSON(data []byte) error {
	*a = Aggregate{index: make(map[string]int)}

	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil { // opening {
		return err
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		switch key {
		case "run_id":
			if err := dec.Decode(&a.RunID); err != nil {
				return err
			}
		case "generated_at":
			if err := dec.Decode(&a.GeneratedAt); err != nil {
				return err
			}
		case "plugins":
			if err := a.decodePlugins(dec); err != nil {
				return err
			}
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *Aggregate) decodePlugins(dec *json.Decoder) error {
	if _, err := dec.Token(); err != nil { // opening {
		return err
	}
	for dec.More() {
		nameTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := nameTok.(string)
		var res plugin.Result
		if err := dec.Decode(&res); err != nil {
			return err
		}
		a.add(name, res)
	}
	_, err := dec.Token() // closing }
	return err
}
