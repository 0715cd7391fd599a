package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"go.uber.org/zap"

	"github.com/jacentio/entrymodel/internal/catalog"
	"github.com/jacentio/entrymodel/model"
	"github.com/jacentio/entrymodel/notify"
)

var errUsage = errors.New("usage: entryctl [flags] <get|create|update|delete|list> [id]")

type options struct {
	models   string
	model    string
	fields   string
	data     string
	index    string
	where    string
	endpoint string
	region   string
	publish  bool
}

// environment holds the process collaborators run depends on.
type environment struct {
	stdout       io.Writer
	logger       *zap.Logger
	newClient    func(ctx context.Context, opts options) (model.Client, error)
	newPublisher func(ctx context.Context, opts options) (notify.EventBridgeAPI, error)
}

func parseFlags(args []string, output io.Writer) (options, []string, error) {
	var opts options
	fs := flag.NewFlagSet("entryctl", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.models, "models", "models.yaml", "path to the catalog file")
	fs.StringVar(&opts.model, "model", "", "model to operate on")
	fs.StringVar(&opts.fields, "fields", "", "fields to return, e.g. id,name,address(city)")
	fs.StringVar(&opts.data, "data", "", "entry attributes as a JSON object (create, update)")
	fs.StringVar(&opts.index, "index", "", "index to query (list)")
	fs.StringVar(&opts.where, "where", "", "index key values as a JSON object (list)")
	fs.StringVar(&opts.endpoint, "endpoint", "", "DynamoDB endpoint override, e.g. http://localhost:8000")
	fs.StringVar(&opts.region, "region", "", "AWS region")
	fs.BoolVar(&opts.publish, "publish", false, "publish events to the catalog's event bus")

	if err := fs.Parse(args); err != nil {
		return opts, nil, err
	}
	if fs.NArg() == 0 {
		return opts, nil, errUsage
	}
	if opts.model == "" {
		return opts, nil, errors.New("-model is required")
	}
	return opts, fs.Args(), nil
}

func run(ctx context.Context, args []string, env *environment) error {
	opts, rest, err := parseFlags(args, io.Discard)
	if err != nil {
		return err
	}

	file, err := catalog.Load(opts.models)
	if err != nil {
		return err
	}

	callback := notify.Logger(env.logger)
	if opts.publish {
		if file.EventBus == "" {
			return errors.New("-publish requires eventBus in the catalog")
		}
		client, err := env.newPublisher(ctx, opts)
		if err != nil {
			return err
		}
		callback = model.Chain(callback, notify.NewEventBridge(client, file.EventBus, env.logger).Callback())
	}

	client, err := env.newClient(ctx, opts)
	if err != nil {
		return err
	}
	registry, err := file.Build(client, callback)
	if err != nil {
		return err
	}
	m, ok := registry.Lookup(opts.model)
	if !ok {
		return fmt.Errorf("model %q is not defined in %s", opts.model, opts.models)
	}
	def, _ := file.Lookup(opts.model)

	result, err := execute(ctx, m, def, opts, rest[0], rest[1:])
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}

	enc := json.NewEncoder(env.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonNumbers(result))
}

func execute(ctx context.Context, m *model.EntryModel, def catalog.Definition, opts options, command string, args []string) (any, error) {
	id := ""
	if len(args) > 0 {
		id = args[0]
	}

	switch command {
	case "get":
		if id == "" {
			return nil, errUsage
		}
		return m.Get(ctx, model.GetInput{ID: id, Fields: opts.fields})

	case "create":
		data, err := decodeObject("-data", opts.data)
		if err != nil {
			return nil, err
		}
		return m.Create(ctx, model.CreateInput{ID: id, Data: data, Fields: opts.fields})

	case "update":
		if id == "" {
			return nil, errUsage
		}
		data, err := decodeObject("-data", opts.data)
		if err != nil {
			return nil, err
		}
		return m.Update(ctx, model.UpdateInput{ID: id, Data: data, Fields: opts.fields})

	case "delete":
		if id == "" {
			return nil, errUsage
		}
		return nil, m.Delete(ctx, model.DeleteInput{ID: id})

	case "list":
		if opts.index != "" && !slices.Contains(def.Indexes, opts.index) {
			return nil, fmt.Errorf("index %q is not declared for model %q (declared: %s)",
				opts.index, def.Name, strings.Join(def.Indexes, ", "))
		}
		where, err := decodeObject("-where", opts.where)
		if err != nil {
			return nil, err
		}
		return m.List(ctx, model.ListInput{IndexName: opts.index, IndexMap: where, Fields: opts.fields})
	}

	return nil, fmt.Errorf("unknown command %q: %w", command, errUsage)
}

// decodeObject parses a flag value as a JSON object. Numbers keep their exact
// text and are stored as DynamoDB numbers.
func decodeObject(flagName, raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("%s must be a JSON object: %w", flagName, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%s must be a single JSON object", flagName)
	}
	for k, v := range obj {
		obj[k] = attributeNumbers(v)
	}
	return obj, nil
}

// attributeNumbers replaces json.Number values with attributevalue.Number.
func attributeNumbers(v any) any {
	switch v := v.(type) {
	case json.Number:
		return attributevalue.Number(v)
	case map[string]any:
		for k, e := range v {
			v[k] = attributeNumbers(e)
		}
	case []any:
		for i, e := range v {
			v[i] = attributeNumbers(e)
		}
	}
	return v
}

// jsonNumbers replaces attributevalue.Number values with json.Number so they
// are printed as JSON numbers rather than strings.
func jsonNumbers(v any) any {
	switch v := v.(type) {
	case attributevalue.Number:
		return json.Number(v)
	case []attributevalue.Number:
		out := make([]json.Number, len(v))
		for i, n := range v {
			out[i] = json.Number(n)
		}
		return out
	case model.Entry:
		return jsonNumbers(map[string]any(v))
	case []model.Entry:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = jsonNumbers(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = jsonNumbers(e)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = jsonNumbers(e)
		}
		return out
	}
	return v
}
