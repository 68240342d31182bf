package doclib

import (
	"github.com/getkin/kin-openapi/openapi3"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type Openapi struct {
	OpenAPI    string                               `json:"openapi"`
	Info       Info                                 `json:"info"`
	Servers    []Server                             `json:"servers"`
	Paths      *orderedmap.OrderedMap[string, Path] `json:"paths"`
	Components Component                            `json:"components"`
	Tags       []Tag                                `json:"tags,omitempty"`
}

type Info struct {
	Title          string  `json:"title"`
	TermsOfService string  `json:"termsOfService,omitempty"`
	Version        string  `json:"version"`
	Description    string  `json:"description,omitempty"`
	Contact        Contact `json:"contact"`
	License        License `json:"license"`
}

type Contact struct {
	Name  string `json:"name"`
	URL   string `json:"url"`
	Email string `json:"email,omitempty"`
}

type License struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type Server struct {
	URL         string         `json:"url"`
	Description string         `json:"description"`
	Variables   map[string]any `json:"variables"`
}

type Tag struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Security struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	In          string `json:"in"`
	Description string `json:"description,omitempty"`
}

type Component struct {
	Schemas       map[string]any      `json:"schemas"`
	Security      map[string]Security `json:"securitySchemes"`
	RequestBodies map[string]ReqBody  `json:"requestBodies"`
}

type ReqBody struct {
	Description string             `json:"description,omitempty"`
	Required    bool               `json:"required"`
	Content     map[string]Content `json:"content"`
}

type Content struct {
	Schema any `json:"schema"`
}

type Schema struct {
	Ref string `json:"$ref"`
}

type SchemaResp struct {
	Schema Schema `json:"schema"`
}

type Response struct {
	Description string                `json:"description"`
	Content     map[string]SchemaResp `json:"content,omitempty"`
}

type Parameter struct {
	In          string              `json:"in"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Required    bool                `json:"required"`
	Schema      *openapi3.SchemaRef `json:"schema"`
}

type Operation struct {
	Tags        []string              `json:"tags"`
	Summary     string                `json:"summary"`
	Description string                `json:"description"`
	ID          string                `json:"operationId"`
	Parameters  []Parameter           `json:"parameters"`
	RequestBody *Schema               `json:"requestBody,omitempty"`
	Responses   map[string]Response   `json:"responses"`
	Security    []map[string][]string `json:"security"`
}

type Path struct {
	Get    *Operation `json:"get,omitempty"`
	Post   *Operation `json:"post,omitempty"`
	Put    *Operation `json:"put,omitempty"`
	Patch  *Operation `json:"patch,omitempty"`
	Delete *Operation `json:"delete,omitempty"`
	Head   *Operation `json:"head,omitempty"`
}

// Doc describes one route. Pattern, OpId, Method, Tags and AuthType are
// filled in by uapi when the route is registered.
type Doc struct {
	Summary     string
	Description string
	Params      []Parameter
	Req         any
	Resp        any
	RespName    string

	// Success status, 200 if unset
	RespStatus int

	Pattern      string
	OpId         string
	Method       string
	Tags         []string
	AuthType     []string
	AuthOptional bool
}
