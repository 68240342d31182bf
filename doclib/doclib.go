package doclib

import (
	"net/http"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"
)

type SetupData struct {
	URL             string
	ErrorStruct     any
	Info            Info
	Logger          *zap.Logger
	errorStructName string
}

var (
	DocsSetupData *SetupData
	stringType    = openapi3.Types([]string{"string"})
)

func Setup() {
	if DocsSetupData == nil {
		panic("DocsSetupData is nil")
	}

	if DocsSetupData.Logger == nil {
		DocsSetupData.Logger = zap.NewNop()
	}

	var err error

	errorSchema, err = openapi3gen.NewSchemaRefForValue(DocsSetupData.ErrorStruct, nil, SchemaInject(DocsSetupData.ErrorStruct))

	if err != nil {
		panic(err)
	}

	DocsSetupData.errorStructName = schemaName(DocsSetupData.ErrorStruct)

	IdSchema, err = openapi3gen.NewSchemaRefForValue("5f3a4c0e-8d0b-4b8e-9a43-3a7a1f0f6c2d", nil)

	if err != nil {
		panic(err)
	}

	IdSchema.Value.Format = "uuid"

	StringSchema, err = openapi3gen.NewSchemaRefForValue("alice", nil)

	if err != nil {
		panic(err)
	}

	api.Components.Schemas[DocsSetupData.errorStructName] = errorSchema

	api.Info = DocsSetupData.Info
	api.Servers[0].URL = DocsSetupData.URL
	api.Paths = orderedmap.New[string, Path]()
}

var api = Openapi{
	OpenAPI: "3.1.0",
	Servers: []Server{
		{
			Description: "ConnectX API",
			Variables:   map[string]any{},
		},
	},
	Components: Component{
		Schemas:       make(map[string]any),
		Security:      make(map[string]Security),
		RequestBodies: make(map[string]ReqBody),
	},
}

var errorSchema *openapi3.SchemaRef

var IdSchema *openapi3.SchemaRef
var StringSchema *openapi3.SchemaRef

func schemaName(v any) string {
	name := reflect.TypeOf(v).String()
	name = strings.TrimPrefix(name, "[]")
	name = strings.ReplaceAll(name, "types.", "")
	return name
}

func AddTag(name, description string) {
	api.Tags = append(api.Tags, Tag{
		Name:        name,
		Description: description,
	})
}

func AddSecuritySchema(id, header, description string) {
	api.Components.Security[id] = Security{
		Type:        "apiKey",
		Name:        header,
		In:          "header",
		Description: description,
	}
}

func SchemaInject(s any) openapi3gen.Option {
	return openapi3gen.SchemaCustomizer(func(name string, ft reflect.Type, tag reflect.StructTag, schema *openapi3.Schema) error {
		if tag.Get("description") != "" {
			schema.Description = tag.Get("description")
		}

		if tag.Get("validate") != "" {
			for _, val := range strings.Split(tag.Get("validate"), ",") {
				key, arg, _ := strings.Cut(val, "=")
				switch key {
				case "required":
					schema.Nullable = false
				case "min":
					if n, err := strconv.ParseUint(arg, 10, 64); err == nil {
						schema.MinLength = n
					}
				case "max":
					if n, err := strconv.ParseUint(arg, 10, 64); err == nil {
						schema.MaxLength = &n
					}
				case "email":
					schema.Format = "email"
				case "httporhttps", "https":
					schema.Format = "uri"
				}
			}
		}

		switch ft.Name() {
		case "Time":
			schema.Type = &stringType
			schema.Format = "date-time"
		case "UUID":
			schema.Type = &stringType
			schema.Format = "uuid"
		}

		return nil
	})
}

func errorResponse(description string) Response {
	return Response{
		Description: description,
		Content: map[string]SchemaResp{
			"application/json": {
				Schema: Schema{
					Ref: "#/components/schemas/" + DocsSetupData.errorStructName,
				},
			},
		},
	}
}

func Route(doc *Doc) {
	if len(doc.Params) == 0 {
		doc.Params = []Parameter{}
	}

	if len(doc.AuthType) == 0 {
		doc.AuthType = []string{}
	}

	if len(doc.Tags) == 0 {
		panic("no tags set in route: " + doc.Pattern)
	}

	for _, param := range doc.Params {
		if param.In == "" {
			panic("no in set in route: " + doc.Pattern)
		}

		if param.Name == "" {
			panic("no name set in route: " + doc.Pattern)
		}

		if param.Schema == nil {
			panic("no schema set in route: " + doc.Pattern)
		}

		if param.Description == "" {
			panic("no description set in route: " + doc.Pattern)
		}
	}

	if doc.OpId == "" {
		panic("no opId set in route: " + doc.Pattern)
	}

	if doc.Pattern == "" {
		panic("no path set in route: " + doc.OpId)
	}

	if doc.RespStatus == 0 {
		doc.RespStatus = http.StatusOK
	}

	var name string

	if doc.Resp == nil {
		doc.Resp = DocsSetupData.ErrorStruct
	}

	if doc.RespName != "" {
		name = doc.RespName
	} else {
		name = schemaName(doc.Resp)
	}

	if name != DocsSetupData.errorStructName {
		if os.Getenv("DEBUG") == "true" {
			DocsSetupData.Logger.Debug("Adding response schema", zap.String("schema", name))
		}

		if _, ok := api.Components.Schemas[name]; !ok {
			schemaRef, err := openapi3gen.NewSchemaRefForValue(doc.Resp, nil, SchemaInject(doc.Resp))

			if err != nil {
				panic(err)
			}

			api.Components.Schemas[name] = schemaRef
		}
	}

	var reqBodyRef *Schema
	if doc.Req != nil {
		schemaRef, err := openapi3gen.NewSchemaRefForValue(doc.Req, nil, SchemaInject(doc.Req))

		if err != nil {
			panic(err)
		}

		reqSchemaName := schemaName(doc.Req)

		api.Components.RequestBodies[doc.Method+"_"+reqSchemaName] = ReqBody{
			Required: true,
			Content: map[string]Content{
				"application/json": {
					Schema: schemaRef,
				},
			},
		}

		reqBodyRef = &Schema{Ref: "#/components/requestBodies/" + doc.Method + "_" + reqSchemaName}
	}

	responses := map[string]Response{
		strconv.Itoa(doc.RespStatus): {
			Description: http.StatusText(doc.RespStatus),
			Content: map[string]SchemaResp{
				"application/json": {
					Schema: Schema{
						Ref: "#/components/schemas/" + name,
					},
				},
			},
		},
		"400": errorResponse("Bad Request"),
	}

	if len(doc.AuthType) > 0 && !doc.AuthOptional {
		responses["401"] = errorResponse("Unauthorized")
	}

	for _, param := range doc.Params {
		if param.In == "path" {
			responses["404"] = errorResponse("Not Found")
			break
		}
	}

	operationData := &Operation{
		Tags:        doc.Tags,
		Summary:     doc.Summary,
		Description: doc.Description,
		ID:          doc.OpId,
		Parameters:  doc.Params,
		Responses:   responses,
		RequestBody: reqBodyRef,
	}

	operationData.Security = []map[string][]string{}

	for _, auth := range doc.AuthType {
		operationData.Security = append(operationData.Security, map[string][]string{
			auth: {},
		})
	}

	if doc.AuthOptional {
		// Anonymous access is allowed as well
		operationData.Security = append(operationData.Security, map[string][]string{})
	}

	op, _ := api.Paths.Get(doc.Pattern)

	switch strings.ToLower(doc.Method) {
	case "head":
		op.Head = operationData
	case "get":
		op.Get = operationData
	case "post":
		op.Post = operationData
	case "put":
		op.Put = operationData
	case "patch":
		op.Patch = operationData
	case "delete":
		op.Delete = operationData
	default:
		panic("unknown method: " + doc.Method)
	}

	api.Paths.Set(doc.Pattern, op)
}

func GetSchema() Openapi {
	return api
}
