// Package schemagen reflects the ACP method registries into a single JSON
// Schema document.
package schemagen

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"

	"github.com/ggoodman/acp-go/acp"
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// BaseID is the $id of the generated document.
const BaseID = "https://agentclientprotocol.com/schema/schema.json"

const defsPrefix = "#/$defs/"

// Extension keywords attached to method payload definitions.
const (
	KeywordMethod = "x-method"
	KeywordSide   = "x-side"
	KeywordRole   = "x-payload"
)

type variant struct {
	tag string
	typ reflect.Type // nil for a variant that carries only its tag
}

// union describes a Go type encoded as one of several JSON shapes. An empty
// tag marks the variant that is recognised by its fields alone.
type union struct {
	key      string
	variants []variant
}

var unions = map[reflect.Type]union{
	reflect.TypeFor[acp.ContentBlock](): {key: "type", variants: []variant{
		{acp.ContentTypeText, reflect.TypeFor[acp.TextContent]()},
		{acp.ContentTypeImage, reflect.TypeFor[acp.ImageContent]()},
		{acp.ContentTypeAudio, reflect.TypeFor[acp.AudioContent]()},
		{acp.ContentTypeResourceLink, reflect.TypeFor[acp.ResourceLink]()},
		{acp.ContentTypeResource, reflect.TypeFor[acp.EmbeddedResource]()},
	}},
	reflect.TypeFor[acp.EmbeddedResourceResource](): {variants: []variant{
		{"", reflect.TypeFor[acp.TextResourceContents]()},
		{"", reflect.TypeFor[acp.BlobResourceContents]()},
	}},
	reflect.TypeFor[acp.ToolCallContent](): {key: "type", variants: []variant{
		{"content", reflect.TypeFor[acp.ContentChunk]()},
		{"diff", reflect.TypeFor[acp.Diff]()},
		{"terminal", reflect.TypeFor[acp.TerminalRef]()},
	}},
	reflect.TypeFor[acp.McpServer](): {key: "type", variants: []variant{
		{"", reflect.TypeFor[acp.McpServerStdio]()},
		{"http", reflect.TypeFor[acp.McpServerHTTP]()},
		{"sse", reflect.TypeFor[acp.McpServerSSE]()},
	}},
	reflect.TypeFor[acp.RequestPermissionOutcome](): {key: "outcome", variants: []variant{
		{"cancelled", nil},
		{"selected", reflect.TypeFor[acp.SelectedPermissionOutcome]()},
	}},
	reflect.TypeFor[acp.SessionUpdate](): {key: "sessionUpdate", variants: []variant{
		{acp.UpdateUserMessageChunk, reflect.TypeFor[acp.ContentChunk]()},
		{acp.UpdateAgentMessageChunk, reflect.TypeFor[acp.ContentChunk]()},
		{acp.UpdateAgentThoughtChunk, reflect.TypeFor[acp.ContentChunk]()},
		{acp.UpdateToolCall, reflect.TypeFor[acp.ToolCall]()},
		{acp.UpdateToolCallUpdate, reflect.TypeFor[acp.ToolCallUpdate]()},
		{acp.UpdatePlan, reflect.TypeFor[acp.Plan]()},
		{acp.UpdateAvailableCommandsUpdate, reflect.TypeFor[acp.AvailableCommandsUpdate]()},
		{acp.UpdateCurrentModeUpdate, reflect.TypeFor[acp.CurrentModeUpdate]()},
		{acp.UpdateConfigOptionUpdate, reflect.TypeFor[acp.ConfigOptionUpdate]()},
		{acp.UpdateSessionInfoUpdate, reflect.TypeFor[acp.SessionInfoUpdate]()},
	}},
}

var (
	acpPkgPath        = reflect.TypeFor[acp.SessionID]().PkgPath()
	selectOptionsType = reflect.TypeFor[acp.SessionConfigSelectOptions]()
)

// Generator accumulates definitions across reflections. It is not safe for
// concurrent use; build one per document.
type Generator struct {
	log   *slog.Logger
	refl  *jsonschema.Reflector
	defs  jsonschema.Definitions
	types map[string]reflect.Type
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger used to report progress.
func WithLogger(log *slog.Logger) Option {
	return func(g *Generator) {
		g.log = log
	}
}

// New returns a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{
		log:   slog.Default(),
		defs:  jsonschema.Definitions{},
		types: map[string]reflect.Type{},
	}
	for _, opt := range opts {
		opt(g)
	}
	g.refl = &jsonschema.Reflector{
		Anonymous: true,
		// Receivers ignore members they do not know.
		AllowAdditionalProperties: true,
		Mapper:                    g.mapType,
		Namer:                     g.recordType,
	}
	return g
}

// Generate returns a document whose $defs hold every payload of every
// registered method. Params and result definitions carry x-method, x-side
// and x-payload so tooling can find them.
func (g *Generator) Generate() (*jsonschema.Schema, error) {
	for _, reg := range []*acp.Registry{acp.AgentMethods, acp.ClientMethods, acp.ProtocolMethods} {
		for _, m := range reg.Methods() {
			if err := g.addPayload(m, "params", m.Params); err != nil {
				return nil, err
			}
			if m.Kind == acp.KindRequest {
				if err := g.addPayload(m, "result", m.Result); err != nil {
					return nil, err
				}
			}
			g.log.Debug("schemagen.method", slog.String("method", m.Name), slog.String("side", string(m.Side)))
		}
	}

	if err := g.flattenConfigOption(); err != nil {
		return nil, err
	}
	for name, def := range g.defs {
		if t, ok := g.types[name]; ok {
			fixFields(def, t)
		}
	}

	g.log.Info("schemagen.generate.ok", slog.Int("defs", len(g.defs)))
	return &jsonschema.Schema{
		Version:     jsonschema.Version,
		ID:          jsonschema.ID(BaseID),
		Title:       "Agent Client Protocol",
		Definitions: g.defs,
	}, nil
}

func (g *Generator) addPayload(m acp.MethodInfo, role string, v any) error {
	t := reflect.TypeOf(v)
	if t == nil {
		return fmt.Errorf("method %s has no %s type", m.Name, role)
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return fmt.Errorf("method %s %s must be a struct, got %s", m.Name, role, t)
	}
	g.ref(t)
	def, ok := g.defs[t.Name()]
	if !ok {
		return fmt.Errorf("method %s %s: no definition for %s", m.Name, role, t.Name())
	}
	if def.Extras == nil {
		def.Extras = map[string]any{}
	}
	def.Extras[KeywordMethod] = m.Name
	def.Extras[KeywordSide] = string(m.Side)
	def.Extras[KeywordRole] = role
	return nil
}

// ref reflects t, merges any definitions it produced and returns the schema
// that refers to it.
func (g *Generator) ref(t reflect.Type) *jsonschema.Schema {
	s := g.refl.ReflectFromType(t)
	for name, def := range s.Definitions {
		if _, ok := g.defs[name]; !ok {
			g.defs[name] = def
		}
	}
	out := *s
	out.Version = ""
	out.ID = ""
	out.Definitions = nil
	return &out
}

func (g *Generator) recordType(t reflect.Type) string {
	if t.Kind() == reflect.Struct && t.PkgPath() == acpPkgPath {
		g.types[t.Name()] = t
	}
	return ""
}

// mapType supplies schemas for types whose JSON shape is hand-written.
func (g *Generator) mapType(t reflect.Type) *jsonschema.Schema {
	if t.PkgPath() != acpPkgPath {
		return nil
	}
	if strings.HasPrefix(t.Name(), "MaybeUndefined[") {
		return &jsonschema.Schema{AnyOf: []*jsonschema.Schema{g.ref(t.Field(1).Type), {Type: "null"}}}
	}
	if t == selectOptionsType {
		return g.define(t.Name(), func() *jsonschema.Schema {
			return &jsonschema.Schema{AnyOf: []*jsonschema.Schema{
				{Type: "array", Items: g.ref(reflect.TypeFor[acp.SessionConfigSelectOption]())},
				{Type: "array", Items: g.ref(reflect.TypeFor[acp.SessionConfigSelectGroup]())},
			}}
		})
	}
	u, ok := unions[t]
	if !ok {
		return nil
	}
	return g.define(t.Name(), func() *jsonschema.Schema {
		s := &jsonschema.Schema{}
		for _, v := range u.variants {
			s.OneOf = append(s.OneOf, g.variantSchema(u.key, v))
		}
		return s
	})
}

// define stores the result of build under name once and returns a reference.
func (g *Generator) define(name string, build func() *jsonschema.Schema) *jsonschema.Schema {
	if _, ok := g.defs[name]; !ok {
		// Reserve the name first so self-referencing types terminate.
		g.defs[name] = &jsonschema.Schema{}
		*g.defs[name] = *build()
	}
	return &jsonschema.Schema{Ref: defsPrefix + name}
}

func (g *Generator) variantSchema(key string, v variant) *jsonschema.Schema {
	if v.tag == "" {
		return g.ref(v.typ)
	}
	props := orderedmap.New[string, *jsonschema.Schema]()
	props.Set(key, &jsonschema.Schema{Type: "string", Const: v.tag})
	s := &jsonschema.Schema{Type: "object", Properties: props, Required: []string{key}}
	if v.typ != nil {
		s.AllOf = []*jsonschema.Schema{g.ref(v.typ)}
	}
	return s
}

// flattenConfigOption folds the select kind into SessionConfigOption, which
// carries it inline next to a "type" discriminator.
func (g *Generator) flattenConfigOption() error {
	opt, ok := g.defs["SessionConfigOption"]
	if !ok {
		return fmt.Errorf("no definition for SessionConfigOption")
	}
	g.ref(reflect.TypeFor[acp.SessionConfigSelect]())
	sel, ok := g.defs["SessionConfigSelect"]
	if !ok {
		return fmt.Errorf("no definition for SessionConfigSelect")
	}
	delete(g.defs, "SessionConfigSelect")

	if opt.Properties == nil {
		opt.Properties = orderedmap.New[string, *jsonschema.Schema]()
	}
	opt.Properties.Set("type", &jsonschema.Schema{Type: "string", Const: "select"})
	for pair := sel.Properties.Oldest(); pair != nil; pair = pair.Next() {
		opt.Properties.Set(pair.Key, pair.Value)
	}
	opt.Required = append(opt.Required, "type")
	opt.Required = append(opt.Required, sel.Required...)
	return nil
}

// fixFields corrects the reflector's view of optionality: omitzero members
// may be absent, and pointer members without omitempty are sent as null.
func fixFields(def *jsonschema.Schema, t reflect.Type) {
	if def.Properties == nil {
		return
	}
	for _, f := range reflect.VisibleFields(t) {
		if f.Anonymous || !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		prop, ok := def.Properties.Get(name)
		if !ok {
			continue
		}
		tags := strings.Split(opts, ",")
		switch {
		case slices.Contains(tags, "omitzero"):
			def.Required = slices.DeleteFunc(def.Required, func(r string) bool { return r == name })
		case f.Type.Kind() == reflect.Pointer && !slices.Contains(tags, "omitempty"):
			def.Properties.Set(name, &jsonschema.Schema{AnyOf: []*jsonschema.Schema{prop, {Type: "null"}}})
		}
	}
}

// Meta lists the method names of each side, keyed by a snake_case label.
type Meta struct {
	AgentMethods    map[string]string   `json:"agentMethods"`
	ClientMethods   map[string]string   `json:"clientMethods"`
	ProtocolMethods map[string]string   `json:"protocolMethods"`
	Version         acp.ProtocolVersion `json:"version"`
}

// BuildMeta returns the method catalog that accompanies the schema.
func BuildMeta() Meta {
	return Meta{
		AgentMethods:    methodLabels(acp.AgentMethods),
		ClientMethods:   methodLabels(acp.ClientMethods),
		ProtocolMethods: methodLabels(acp.ProtocolMethods),
		Version:         acp.LatestProtocolVersion,
	}
}

func methodLabels(r *acp.Registry) map[string]string {
	out := make(map[string]string)
	for _, m := range r.Methods() {
		label := strings.NewReplacer("/", "_", "$", "").Replace(m.Name)
		out[label] = m.Name
	}
	return out
}

// Marshal encodes v indented, as written to schema files.
func Marshal(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
