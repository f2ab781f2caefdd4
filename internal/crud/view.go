package crud

import (
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"crudview/internal/filter"
	"crudview/internal/form"
	"crudview/internal/model"
	"crudview/internal/repository"
)

// TemplateResolver picks the first existing template out of a list of candidates.
type TemplateResolver interface {
	Resolve(names ...string) (string, error)
}

// Hooks override the default getters and form outcomes of a View. Every hook is
// optional; an unset hook falls back to the matching Default method on Request,
// which a hook may also call to extend the default.
type Hooks[T model.Record] struct {
	Queryset          func(r *Request[T]) (*repository.Queryset[T], error)
	Object            func(r *Request[T]) (T, error)
	FilterSet         func(r *Request[T], qs *repository.Queryset[T]) (*filter.FilterSet[T], error)
	FormFactory       func(r *Request[T]) (form.Factory[T], error)
	PaginateBy        func(r *Request[T]) int
	ContextObjectName func(r *Request[T], isList bool) string
	ContextData       func(r *Request[T], extra fiber.Map) (fiber.Map, error)
	TemplateNames     func(r *Request[T]) ([]string, error)
	SuccessURL        func(r *Request[T]) (string, error)
	FormValid         func(r *Request[T], f *form.Form[T]) error
	FormInvalid       func(r *Request[T], f *form.Form[T]) error
}

// View configures the list, detail, create, update and delete pages of one model.
// A single View serves all five roles; AsView binds it to one of them.
//
// Only Store (or Queryset) is required. The remaining fields default the same way
// for every model: lookups by primary key on an int route parameter, templates named
// after the model, no pagination.
type View[T model.Record] struct {
	Store    repository.Store[T]
	Queryset *repository.Queryset[T]
	// Model overrides the model options taken from Store.
	Model *model.Meta
	// Fields are the model fields shown in lists and details and edited by forms.
	Fields []string

	LookupField    string // default "pk"
	LookupURLKwarg string // default LookupField
	PathConverter  string // Fiber route constraint for the lookup, default "int"
	URLBase        string // default the model name

	FormClass form.Factory[T]
	Uploader  form.Uploader

	TemplateName      string
	ContextObjectName string

	PaginateBy    int
	PageKwarg     string // default "page"
	DisallowEmpty bool

	FilterFields   []string
	FilterOptions  []filter.Option
	FilterSetClass filter.Factory[T]

	Templates TemplateResolver
	Router    *Router
	Logger    zerolog.Logger
	Hooks     Hooks[T]
}

// Meta returns the model options the view works with, or nil when none can be found.
func (v *View[T]) Meta() *model.Meta {
	if v.Model != nil {
		return v.Model
	}
	if s := v.store(); s != nil {
		return s.New().Meta()
	}
	return nil
}

func (v *View[T]) store() repository.Store[T] {
	if v.Store != nil {
		return v.Store
	}
	if v.Queryset != nil {
		return v.Queryset.Store()
	}
	return nil
}

func (v *View[T]) name() string {
	if m := v.Meta(); m != nil {
		return m.ObjectName + " view"
	}
	return "view"
}

func (v *View[T]) LookupFieldName() string {
	if v.LookupField != "" {
		return v.LookupField
	}
	return model.PKAlias
}

func (v *View[T]) LookupURLKwargName() string {
	if v.LookupURLKwarg != "" {
		return v.LookupURLKwarg
	}
	return v.LookupFieldName()
}

func (v *View[T]) URLBaseName() string {
	if v.URLBase != "" {
		return v.URLBase
	}
	if m := v.Meta(); m != nil {
		return m.ModelName()
	}
	return ""
}

func (v *View[T]) pageKwarg() string {
	if v.PageKwarg != "" {
		return v.PageKwarg
	}
	return "page"
}

func (v *View[T]) pathConverter() string {
	if v.PathConverter != "" {
		return v.PathConverter
	}
	return "int"
}

// ModelMeta and DisplayFields let template functions read a view without knowing T.
func (v *View[T]) ModelMeta() *model.Meta { return v.Meta() }

func (v *View[T]) DisplayFields() []string { return v.Fields }

// AsView returns the Fiber handler serving role. Methods the role does not handle
// get 405 with an Allow header; HEAD is answered like GET.
func (v *View[T]) AsView(role Role) fiber.Handler {
	actions := role.Handlers()
	allow := allowHeader(actions)
	return func(c *fiber.Ctx) error {
		method := c.Method()
		switch method {
		case fiber.MethodHead:
			method = fiber.MethodGet
		case fiber.MethodOptions:
			c.Set(fiber.HeaderAllow, allow)
			return c.SendStatus(fiber.StatusOK)
		}
		r := &Request[T]{View: v, Role: role, Ctx: c}
		action, ok := actions[method]
		if !ok {
			c.Set(fiber.HeaderAllow, allow)
			r.Logger().Warn().
				Str("event", "method_not_allowed").
				Str("role", role.String()).
				Msg("")
			return fiber.ErrMethodNotAllowed
		}
		return r.dispatch(action)
	}
}

func allowHeader(actions map[string]Action) string {
	methods := []string{fiber.MethodOptions}
	for m := range actions {
		methods = append(methods, m)
		if m == fiber.MethodGet {
			methods = append(methods, fiber.MethodHead)
		}
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}

// URLPattern is one generated route of a view.
type URLPattern struct {
	Role    Role
	Name    string
	Path    string
	Handler fiber.Handler
}

// URLs returns the five routes of the view, named "<base>-<role>".
func (v *View[T]) URLs() []URLPattern {
	base := v.URLBaseName()
	lookup := ":" + v.LookupURLKwargName()
	if conv := v.pathConverter(); conv != "str" {
		lookup += "<" + conv + ">"
	}
	out := make([]URLPattern, 0, len(Roles))
	for _, role := range Roles {
		out = append(out, URLPattern{
			Role:    role,
			Name:    role.URLName(base),
			Path:    role.URLPattern(base, lookup),
			Handler: v.AsView(role),
		})
	}
	return out
}

// Mount registers the view's routes on rt and uses rt for reversing.
func (v *View[T]) Mount(rt *Router) error {
	if v.URLBaseName() == "" {
		return improperlyConfigured("%s needs Store, Queryset, Model or URLBase to build URLs", v.name())
	}
	v.Router = rt
	for _, p := range v.URLs() {
		rt.Handle(p.Name, p.Path, p.Handler)
	}
	v.Logger.Debug().
		Str("event", "crud_mounted").
		Str("url_base", v.URLBaseName()).
		Int("routes", len(Roles)).
		Msg("")
	return nil
}
