package flowedit

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Status is the lifecycle state of a DAG document.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// DAG is the top-level workflow document as persisted by the workflow API.
// Steps are keyed by step id; key order carries no meaning.
type DAG struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Steps       map[string]*Step `json:"nodes"`
	InputSchema map[string]any   `json:"inputSchema,omitempty"`
	Adapters    []Adapter        `json:"adapters,omitempty"`
	Version     int              `json:"version"`
	Subversion  int              `json:"subversion"`
	Status      Status           `json:"status"`
}

// Step is a single workflow operation node.
// Dependencies and Dependents are the two directions of the same relation:
// for every edge A→B, A.Dependents contains B and B.Dependencies contains A.
type Step struct {
	ID           string   `json:"id"`
	Name         string   `json:"name,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
	Dependents   []string `json:"dependents,omitempty"`
	Data         StepData `json:"data"`
}

// Clone returns a deep copy of the step's identity and relation fields.
// The kind-specific meta is shared; callers that mutate meta must replace it.
func (s *Step) Clone() *Step {
	c := *s
	c.Dependencies = append([]string(nil), s.Dependencies...)
	c.Dependents = append([]string(nil), s.Dependents...)
	return &c
}

// StepKind discriminates the step configuration variants.
type StepKind string

const (
	StepQuery     StepKind = "query"
	StepInsert    StepKind = "insert"
	StepUpdate    StepKind = "update"
	StepDelete    StepKind = "delete"
	StepJoin      StepKind = "join"
	StepFilter    StepKind = "filter"
	StepMap       StepKind = "map"
	StepCondition StepKind = "condition"
	StepHTTP      StepKind = "http"
)

// StepData is a tagged union over step kinds. Exactly one meta field is
// non-nil, matching Type. It marshals to {"type": ..., "input": ...,
// "meta": ...} on the wire.
type StepData struct {
	Type  StepKind
	Input map[string]any

	Query     *QueryMeta
	Insert    *InsertMeta
	Update    *UpdateMeta
	Delete    *DeleteMeta
	Join      *JoinMeta
	Filter    *FilterMeta
	Map       *MapMeta
	Condition *ConditionMeta
	HTTP      *HTTPMeta
}

// QueryMeta configures a table read.
type QueryMeta struct {
	Table  string         `json:"table"`
	Where  map[string]any `json:"where,omitempty"`
	Select []string       `json:"select,omitempty"`
}

// InsertMeta configures a table insert; Map maps input fields to columns.
type InsertMeta struct {
	Table string         `json:"table"`
	Where map[string]any `json:"where,omitempty"`
	Map   map[string]any `json:"map"`
}

// UpdateMeta configures a table update.
type UpdateMeta struct {
	Table string         `json:"table"`
	Where map[string]any `json:"where,omitempty"`
	Set   map[string]any `json:"set"`
}

// DeleteMeta configures a table delete.
type DeleteMeta struct {
	Table string         `json:"table"`
	Where map[string]any `json:"where,omitempty"`
}

// JoinType is the join strategy for a join step.
type JoinType string

const (
	JoinInner JoinType = "inner"
	JoinLeft  JoinType = "left"
	JoinRight JoinType = "right"
)

// JoinMeta configures a join of two upstream results.
type JoinMeta struct {
	On       map[string]any `json:"on"`
	JoinType JoinType       `json:"joinType"`
	Left     string         `json:"left"`
	Right    string         `json:"right"`
}

// FilterMeta configures a predicate filter over upstream rows.
type FilterMeta struct {
	Filter map[string]any `json:"filter"`
}

// MapMeta configures a row transformation.
type MapMeta struct {
	Function string `json:"function"`
}

// Operator is a comparison operator in a branch condition.
type Operator string

const (
	OpEq    Operator = "eq"
	OpNe    Operator = "ne"
	OpGt    Operator = "gt"
	OpGte   Operator = "gte"
	OpLt    Operator = "lt"
	OpLte   Operator = "lte"
	OpIn    Operator = "in"
	OpNotIn Operator = "notin"
	OpAnd   Operator = "and"
	OpOr    Operator = "or"
)

// Condition is the predicate of a condition step.
type Condition struct {
	Left     string   `json:"left"`
	Operator Operator `json:"operator"`
	Right    string   `json:"right"`
}

// ConditionMeta configures a branch step. Then and Else name downstream
// step ids; Else is a secondary dependency channel that participates in
// cycle checks and layout like Dependents but is stored here, not in the
// step's Dependents array.
type ConditionMeta struct {
	If   Condition `json:"if"`
	Then []string  `json:"then,omitempty"`
	Else []string  `json:"else,omitempty"`
}

// HTTPMethod is a lowercase HTTP verb as carried on the wire.
type HTTPMethod string

const (
	MethodGet    HTTPMethod = "get"
	MethodPost   HTTPMethod = "post"
	MethodPut    HTTPMethod = "put"
	MethodDelete HTTPMethod = "delete"
	MethodPatch  HTTPMethod = "patch"
)

// HTTPMeta configures an outbound HTTP call step.
type HTTPMeta struct {
	Method  HTTPMethod     `json:"method"`
	URL     string         `json:"url"`
	Headers map[string]any `json:"headers,omitempty"`
	Body    map[string]any `json:"body,omitempty"`
	Query   map[string]any `json:"query,omitempty"`
}

type stepDataEnvelope struct {
	Type  StepKind        `json:"type"`
	Input map[string]any  `json:"input,omitempty"`
	Meta  json.RawMessage `json:"meta"`
}

// MarshalJSON encodes the active variant under the "meta" key.
func (d StepData) MarshalJSON() ([]byte, error) {
	var meta any
	switch d.Type {
	case StepQuery:
		meta = d.Query
	case StepInsert:
		meta = d.Insert
	case StepUpdate:
		meta = d.Update
	case StepDelete:
		meta = d.Delete
	case StepJoin:
		meta = d.Join
	case StepFilter:
		meta = d.Filter
	case StepMap:
		meta = d.Map
	case StepCondition:
		meta = d.Condition
	case StepHTTP:
		meta = d.HTTP
	default:
		return nil, fmt.Errorf("flowedit: unknown step kind %q", d.Type)
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	return json.Marshal(stepDataEnvelope{Type: d.Type, Input: d.Input, Meta: raw})
}

// UnmarshalJSON decodes the "meta" key into the variant named by "type".
func (d *StepData) UnmarshalJSON(b []byte) error {
	var env stepDataEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	*d = StepData{Type: env.Type, Input: env.Input}

	var meta any
	switch env.Type {
	case StepQuery:
		d.Query = &QueryMeta{}
		meta = d.Query
	case StepInsert:
		d.Insert = &InsertMeta{}
		meta = d.Insert
	case StepUpdate:
		d.Update = &UpdateMeta{}
		meta = d.Update
	case StepDelete:
		d.Delete = &DeleteMeta{}
		meta = d.Delete
	case StepJoin:
		d.Join = &JoinMeta{}
		meta = d.Join
	case StepFilter:
		d.Filter = &FilterMeta{}
		meta = d.Filter
	case StepMap:
		d.Map = &MapMeta{}
		meta = d.Map
	case StepCondition:
		d.Condition = &ConditionMeta{}
		meta = d.Condition
	case StepHTTP:
		d.HTTP = &HTTPMeta{}
		meta = d.HTTP
	default:
		return fmt.Errorf("flowedit: unknown step kind %q", env.Type)
	}
	if len(env.Meta) == 0 {
		return nil
	}
	return json.Unmarshal(env.Meta, meta)
}

// Else returns the condition branch targets, or nil for non-condition steps.
func (d StepData) Else() []string {
	if d.Type == StepCondition && d.Condition != nil {
		return d.Condition.Else
	}
	return nil
}

// AdapterType discriminates the adapter variants.
type AdapterType string

const (
	AdapterHTTP AdapterType = "http_adapter"
	AdapterCron AdapterType = "schedular_adapter"
)

// AuthType is the authentication scheme of an HTTP adapter.
type AuthType string

const (
	AuthNone   AuthType = "none"
	AuthBasic  AuthType = "basic"
	AuthBearer AuthType = "bearer"
	AuthAPIKey AuthType = "apiKey"
)

// Adapter is an externally-triggered integration node. Adapters render as
// graph nodes but carry no dependency edges and are excluded from cycle
// checks and dependency reconciliation.
type Adapter struct {
	ID      string            `json:"id"`
	GraphID string            `json:"graphId"`
	Name    string            `json:"name"`
	Input   map[string]string `json:"input,omitempty"`
	Type    AdapterType       `json:"type"`

	HTTP *HTTPAdapterMeta
	Cron *CronAdapterMeta
}

// HTTPAdapterMeta configures an inbound HTTP trigger.
type HTTPAdapterMeta struct {
	Method   HTTPMethod     `json:"method"`
	Path     string         `json:"path"`
	Headers  map[string]any `json:"headers,omitempty"`
	Body     map[string]any `json:"body,omitempty"`
	Query    map[string]any `json:"query,omitempty"`
	Response string         `json:"response,omitempty"`
	AuthType AuthType       `json:"authType"`
	Auth     map[string]any `json:"auth,omitempty"`
}

// CronAdapterMeta configures a scheduled trigger.
type CronAdapterMeta struct {
	Schedule string `json:"schedule"`
}

type adapterEnvelope struct {
	ID      string            `json:"id"`
	GraphID string            `json:"graphId"`
	Name    string            `json:"name"`
	Input   map[string]string `json:"input,omitempty"`
	Type    AdapterType       `json:"type"`
	Meta    json.RawMessage   `json:"meta"`
}

// MarshalJSON encodes the active variant under the "meta" key.
func (a Adapter) MarshalJSON() ([]byte, error) {
	var meta any
	switch a.Type {
	case AdapterHTTP:
		meta = a.HTTP
	case AdapterCron:
		meta = a.Cron
	default:
		return nil, fmt.Errorf("flowedit: unknown adapter type %q", a.Type)
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	return json.Marshal(adapterEnvelope{
		ID:      a.ID,
		GraphID: a.GraphID,
		Name:    a.Name,
		Input:   a.Input,
		Type:    a.Type,
		Meta:    raw,
	})
}

// UnmarshalJSON decodes the "meta" key into the variant named by "type".
func (a *Adapter) UnmarshalJSON(b []byte) error {
	var env adapterEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	*a = Adapter{
		ID:      env.ID,
		GraphID: env.GraphID,
		Name:    env.Name,
		Input:   env.Input,
		Type:    env.Type,
	}

	var meta any
	switch env.Type {
	case AdapterHTTP:
		a.HTTP = &HTTPAdapterMeta{}
		meta = a.HTTP
	case AdapterCron:
		a.Cron = &CronAdapterMeta{}
		meta = a.Cron
	default:
		return fmt.Errorf("flowedit: unknown adapter type %q", env.Type)
	}
	if len(env.Meta) == 0 {
		return nil
	}
	return json.Unmarshal(env.Meta, meta)
}

// DAGVersion is one row of a document's version history.
type DAGVersion struct {
	Version    int       `json:"version"`
	Subversion int       `json:"subversion"`
	Status     Status    `json:"status,omitempty"`
	CreatedAt  time.Time `json:"createdAt,omitzero"`
	UpdatedAt  time.Time `json:"updatedAt,omitzero"`
}

// SortVersions orders versions newest-first: by version, then subversion.
func SortVersions(versions []DAGVersion) {
	sort.SliceStable(versions, func(i, j int) bool {
		if versions[i].Version != versions[j].Version {
			return versions[i].Version > versions[j].Version
		}
		return versions[i].Subversion > versions[j].Subversion
	})
}
