package entrypoints

import (
	"strings"

	"github.com/voyantlabs/codegraph/internal/store"
)

// symbolContext is everything a pattern can inspect about one symbol: the
// symbol itself and the surrounding file text. Decorators and attributes sit
// outside the definition node in several grammars, so patterns also look at
// the lines immediately above the symbol.
type symbolContext struct {
	Symbol  *store.Symbol
	File    *store.File
	lines   []string
	snippet string
}

func newSymbolContext(sym *store.Symbol, f *store.File, lines []string) *symbolContext {
	return &symbolContext{Symbol: sym, File: f, lines: lines, snippet: sym.SourceCode}
}

// Preceding returns the decorator, attribute and comment lines immediately
// above the symbol, joined. Collection stops at the first blank or ordinary
// code line so one symbol's decorators never bleed into the next.
func (c *symbolContext) Preceding(n int) string {
	end := c.Symbol.StartLine - 1 // lines slice is 0-based
	if end > len(c.lines) {
		end = len(c.lines)
	}
	start := end
	for start > 0 && end-start < n {
		trimmed := strings.TrimSpace(c.lines[start-1])
		if !strings.HasPrefix(trimmed, "@") && !strings.HasPrefix(trimmed, "#[") &&
			!strings.HasPrefix(trimmed, "//") && !strings.HasPrefix(trimmed, "#") &&
			!strings.HasPrefix(trimmed, "*") && !strings.HasPrefix(trimmed, "/*") {
			break
		}
		start--
	}
	if start >= end {
		return ""
	}
	return strings.Join(c.lines[start:end], "\n")
}

func (c *symbolContext) sourceHasAny(fragments ...string) bool {
	for _, frag := range fragments {
		if strings.Contains(c.snippet, frag) {
			return true
		}
	}
	return false
}

func (c *symbolContext) precedingHasAny(fragments ...string) bool {
	above := c.Preceding(5)
	for _, frag := range fragments {
		if strings.Contains(above, frag) {
			return true
		}
	}
	return false
}

// pattern recognizes one way a framework marks an entry point.
type pattern struct {
	Framework  string
	Name       string
	Type       string
	Confidence float64
	Match      func(c *symbolContext) bool
}

func isCallable(sym *store.Symbol) bool {
	return sym.Kind == store.KindFunction || sym.Kind == store.KindMethod
}

// patterns is the full detection table. Only patterns whose framework was
// detected for the file run against its symbols.
var patterns = []pattern{
	{FrameworkFlask, "flask_route_decorator", store.EntryPointHTTP, 0.9, func(c *symbolContext) bool {
		return isCallable(c.Symbol) && c.precedingHasAny("@app.route(", "@bp.route(", ".route(")
	}},
	{FrameworkFastAPI, "fastapi_route_decorator", store.EntryPointHTTP, 0.9, func(c *symbolContext) bool {
		return isCallable(c.Symbol) && c.precedingHasAny(
			"@app.get(", "@app.post(", "@app.put(", "@app.delete(", "@app.patch(",
			"@router.get(", "@router.post(", "@router.put(", "@router.delete(", "@router.patch(")
	}},
	{FrameworkDjango, "django_view_module", store.EntryPointHTTP, 0.6, func(c *symbolContext) bool {
		return isCallable(c.Symbol) && strings.HasSuffix(c.File.RelPath, "views.py")
	}},
	{FrameworkCelery, "celery_task_decorator", store.EntryPointEvent, 0.9, func(c *symbolContext) bool {
		return isCallable(c.Symbol) && c.precedingHasAny("@celery.task", "@shared_task", "@app.task", "@task")
	}},
	{FrameworkKafka, "kafka_consumer_loop", store.EntryPointEvent, 0.7, func(c *symbolContext) bool {
		return isCallable(c.Symbol) && c.sourceHasAny("KafkaConsumer(", "Consumer(", ".subscribe(")
	}},
	{FrameworkLambda, "lambda_handler_signature", store.EntryPointEvent, 0.8, func(c *symbolContext) bool {
		if !isCallable(c.Symbol) {
			return false
		}
		name := c.Symbol.Name
		if name == "lambda_handler" {
			return true
		}
		return name == "handler" && strings.Contains(c.Symbol.Signature, "event")
	}},

	{FrameworkSpring, "spring_request_mapping", store.EntryPointHTTP, 0.95, func(c *symbolContext) bool {
		return isCallable(c.Symbol) && c.sourceHasAny(
			"@GetMapping", "@PostMapping", "@PutMapping", "@DeleteMapping",
			"@PatchMapping", "@RequestMapping")
	}},
	{FrameworkSpring, "spring_kafka_listener", store.EntryPointEvent, 0.95, func(c *symbolContext) bool {
		return isCallable(c.Symbol) && c.sourceHasAny("@KafkaListener")
	}},
	{FrameworkSpring, "spring_scheduled", store.EntryPointScheduler, 0.95, func(c *symbolContext) bool {
		return isCallable(c.Symbol) && c.sourceHasAny("@Scheduled")
	}},
	{FrameworkSpring, "spring_event_listener", store.EntryPointEvent, 0.8, func(c *symbolContext) bool {
		return isCallable(c.Symbol) && c.sourceHasAny("@EventListener")
	}},
	{FrameworkRabbit, "rabbit_listener", store.EntryPointEvent, 0.9, func(c *symbolContext) bool {
		return isCallable(c.Symbol) && c.sourceHasAny("@RabbitListener")
	}},
	{FrameworkJAXRS, "jaxrs_resource_method", store.EntryPointHTTP, 0.9, func(c *symbolContext) bool {
		return isCallable(c.Symbol) && c.sourceHasAny("@GET", "@POST", "@PUT", "@DELETE", "@PATCH") &&
			(c.sourceHasAny("@Path") || c.precedingHasAny("@Path"))
	}},
	{FrameworkGRPC, "grpc_service_impl", store.EntryPointHTTP, 0.8, func(c *symbolContext) bool {
		return c.Symbol.Kind == store.KindClass && c.sourceHasAny("ImplBase", "Servicer")
	}},
	{FrameworkCamel, "camel_route_builder", store.EntryPointEvent, 0.7, func(c *symbolContext) bool {
		return isCallable(c.Symbol) && c.sourceHasAny("from(") && c.sourceHasAny(".to(")
	}},

	{FrameworkKtor, "ktor_routing_block", store.EntryPointHTTP, 0.7, func(c *symbolContext) bool {
		return isCallable(c.Symbol) && c.sourceHasAny("routing {", "call.respond")
	}},

	{FrameworkExpress, "express_route_registration", store.EntryPointHTTP, 0.85, func(c *symbolContext) bool {
		return isCallable(c.Symbol) && c.sourceHasAny(
			"app.get(", "app.post(", "app.put(", "app.delete(", "app.patch(",
			"router.get(", "router.post(", "router.put(", "router.delete(", "router.patch(")
	}},
	{FrameworkNextJS, "nextjs_api_route", store.EntryPointHTTP, 0.8, func(c *symbolContext) bool {
		if !isCallable(c.Symbol) {
			return false
		}
		p := strings.ToLower(c.File.RelPath)
		if !strings.Contains(p, "pages/api/") && !strings.Contains(p, "app/api/") {
			return false
		}
		switch c.Symbol.Name {
		case "handler", "default", "GET", "POST", "PUT", "DELETE", "PATCH":
			return true
		}
		return false
	}},

	{FrameworkActix, "actix_route_attribute", store.EntryPointHTTP, 0.9, func(c *symbolContext) bool {
		return isCallable(c.Symbol) && c.precedingHasAny("#[get(", "#[post(", "#[put(", "#[delete(", "#[patch(", "#[route(")
	}},
	{FrameworkRocket, "rocket_route_attribute", store.EntryPointHTTP, 0.9, func(c *symbolContext) bool {
		return isCallable(c.Symbol) && c.precedingHasAny("#[get(", "#[post(", "#[put(", "#[delete(", "#[patch(")
	}},
}

// matchPatterns runs every pattern of the detected frameworks against one
// symbol and returns the raw candidates (one per matching pattern; dedupe
// happens later).
func matchPatterns(c *symbolContext, frameworks []string) []*store.EntryPointCandidate {
	active := map[string]bool{}
	for _, fw := range frameworks {
		active[fw] = true
	}

	var out []*store.EntryPointCandidate
	for _, p := range patterns {
		if !active[p.Framework] || !p.Match(c) {
			continue
		}
		out = append(out, &store.EntryPointCandidate{
			RepoID:           c.Symbol.RepoID,
			SymbolID:         c.Symbol.ID,
			DetectionPattern: p.Name,
			Framework:        p.Framework,
			Type:             p.Type,
			Confidence:       p.Confidence,
			Metadata: map[string]any{
				"file_path": c.File.RelPath,
				"line":      c.Symbol.StartLine,
			},
		})
	}
	return out
}
