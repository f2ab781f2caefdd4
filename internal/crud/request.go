package crud

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"crudview/internal/filter"
	"crudview/internal/form"
	"crudview/internal/model"
	"crudview/internal/paginator"
	"crudview/internal/repository"
)

// Request is the per-request state of a View bound to a role. Getters consult the
// view's hooks first and fall back to their Default counterparts.
type Request[T model.Record] struct {
	View *View[T]
	Role Role
	Ctx  *fiber.Ctx

	Object     T
	ObjectList []T
	hasList    bool
}

func (r *Request[T]) context() context.Context {
	return r.Ctx.UserContext()
}

// Logger returns the request-scoped logger from the user context, else the view's.
func (r *Request[T]) Logger() *zerolog.Logger {
	if l := zerolog.Ctx(r.context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &r.View.Logger
}

func (r *Request[T]) dispatch(action Action) error {
	switch action {
	case ActionList:
		return r.list()
	case ActionDetail:
		return r.detail()
	case ActionShowForm:
		return r.showForm()
	case ActionProcessForm:
		return r.processForm()
	case ActionConfirmDelete:
		return r.confirmDelete()
	case ActionProcessDeletion:
		return r.processDeletion()
	}
	return improperlyConfigured("%s has no handler %q", r.View.name(), action)
}

// HasObject reports whether a single object has been loaded for this request.
func (r *Request[T]) HasObject() bool {
	return !isNil(r.Object)
}

// QueryParams returns the parsed query string of the request.
func (r *Request[T]) QueryParams() url.Values {
	q, _ := url.ParseQuery(string(r.Ctx.Request().URI().QueryString()))
	return q
}

// Queryset returns the base queryset, used both for listing and for object lookups.
func (r *Request[T]) Queryset() (*repository.Queryset[T], error) {
	if h := r.View.Hooks.Queryset; h != nil {
		return h(r)
	}
	return r.DefaultQueryset()
}

func (r *Request[T]) DefaultQueryset() (*repository.Queryset[T], error) {
	v := r.View
	if v.Queryset != nil {
		return v.Queryset.Clone(), nil
	}
	if v.Store != nil {
		return repository.NewQueryset(v.Store), nil
	}
	return nil, improperlyConfigured("%s must define Queryset or Store, or set the Queryset hook", v.name())
}

// GetObject returns the object named by the lookup route parameter.
func (r *Request[T]) GetObject() (T, error) {
	if h := r.View.Hooks.Object; h != nil {
		return h(r)
	}
	return r.DefaultObject()
}

func (r *Request[T]) DefaultObject() (T, error) {
	var zero T
	qs, err := r.Queryset()
	if err != nil {
		return zero, err
	}
	kwarg := r.View.LookupURLKwargName()
	raw := r.Ctx.Params(kwarg)
	if raw == "" {
		return zero, improperlyConfigured("lookup field %q was not provided in route params to %s", kwarg, r.View.name())
	}
	obj, err := qs.Get(r.context(), repository.Lookup{Field: r.View.LookupFieldName(), Value: raw})
	if errors.Is(err, repository.ErrNotFound) {
		return zero, fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("No %s matches the given query.", r.verboseName()))
	}
	if err != nil {
		return zero, err
	}
	return obj, nil
}

// FilterSet returns the filter set narrowing the list, or nil when the view has none.
func (r *Request[T]) FilterSet(qs *repository.Queryset[T]) (*filter.FilterSet[T], error) {
	if h := r.View.Hooks.FilterSet; h != nil {
		return h(r, qs)
	}
	return r.DefaultFilterSet(qs)
}

func (r *Request[T]) DefaultFilterSet(qs *repository.Queryset[T]) (*filter.FilterSet[T], error) {
	v := r.View
	factory := v.FilterSetClass
	if factory == nil && len(v.FilterFields) > 0 {
		meta := v.Meta()
		if meta == nil {
			return nil, improperlyConfigured("%s has FilterFields but no model", v.name())
		}
		f, err := filter.ForFields[T](meta, v.FilterFields, v.FilterOptions...)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrImproperlyConfigured, err)
		}
		factory = f
	}
	if factory == nil {
		return nil, nil
	}
	return factory(r.QueryParams(), qs), nil
}

// FormFactory returns the factory building this view's forms.
func (r *Request[T]) FormFactory() (form.Factory[T], error) {
	if h := r.View.Hooks.FormFactory; h != nil {
		return h(r)
	}
	return r.DefaultFormFactory()
}

func (r *Request[T]) DefaultFormFactory() (form.Factory[T], error) {
	v := r.View
	if v.FormClass != nil {
		return v.FormClass, nil
	}
	if s := v.store(); s != nil && v.Fields != nil {
		f, err := form.ModelFactory(s, v.Fields, v.Uploader)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrImproperlyConfigured, err)
		}
		return f, nil
	}
	return nil, improperlyConfigured("%s must define FormClass or both Store and Fields, or set the FormFactory hook", v.name())
}

// Form builds a form; data and files are nil for an unbound form.
func (r *Request[T]) Form(data url.Values, files form.Files, instance T) (*form.Form[T], error) {
	factory, err := r.FormFactory()
	if err != nil {
		return nil, err
	}
	return factory(data, files, instance), nil
}

// PaginateBy returns the page size; zero or less disables pagination.
func (r *Request[T]) PaginateBy() int {
	if h := r.View.Hooks.PaginateBy; h != nil {
		return h(r)
	}
	return r.View.PaginateBy
}

func (r *Request[T]) Paginator(qs *repository.Queryset[T], perPage int) (*paginator.Paginator[T], error) {
	return paginator.New[T](r.context(), qs, perPage)
}

// PaginateQueryset returns the requested page. The page number comes from the route
// parameter, else the query string, else 1; "last" selects the final page.
func (r *Request[T]) PaginateQueryset(qs *repository.Queryset[T], perPage int) (*paginator.Page[T], error) {
	p, err := r.Paginator(qs, perPage)
	if err != nil {
		return nil, err
	}
	kwarg := r.View.pageKwarg()
	raw := r.Ctx.Params(kwarg)
	if raw == "" {
		raw = r.Ctx.Query(kwarg)
	}
	if raw == "" {
		raw = "1"
	}
	number, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		if raw != "last" {
			return nil, fiber.NewError(fiber.StatusNotFound, "Page is not 'last', nor can it be converted to an int.")
		}
		number = p.NumPages()
	}
	page, err := p.Page(r.context(), number)
	if errors.Is(err, paginator.ErrInvalidPage) {
		return nil, fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("Invalid page (%d): %s", number, err))
	}
	if err != nil {
		return nil, err
	}
	return page, nil
}

// ContextObjectName is the extra context key for the object or list, e.g. "bookmark"
// or "bookmark_list". Empty means no alias.
func (r *Request[T]) ContextObjectName(isList bool) string {
	if h := r.View.Hooks.ContextObjectName; h != nil {
		return h(r, isList)
	}
	return r.DefaultContextObjectName(isList)
}

func (r *Request[T]) DefaultContextObjectName(isList bool) string {
	if r.View.ContextObjectName != "" {
		return r.View.ContextObjectName
	}
	meta := r.View.Meta()
	if meta == nil {
		return ""
	}
	if isList {
		return meta.ModelName() + "_list"
	}
	return meta.ModelName()
}

// ContextData returns the template context: extra plus the view, model names, the
// create URL and the current object or object list.
func (r *Request[T]) ContextData(extra fiber.Map) (fiber.Map, error) {
	if h := r.View.Hooks.ContextData; h != nil {
		return h(r, extra)
	}
	return r.DefaultContextData(extra)
}

func (r *Request[T]) DefaultContextData(extra fiber.Map) (fiber.Map, error) {
	v := r.View
	meta := v.Meta()
	if meta == nil {
		return nil, improperlyConfigured("%s has no model", v.name())
	}
	data := make(fiber.Map, len(extra)+8)
	for k, val := range extra {
		data[k] = val
	}
	data["view"] = v
	data["object_verbose_name"] = meta.VerboseName
	data["object_verbose_name_plural"] = meta.VerboseNamePlural

	createURL, err := r.reverse(RoleCreate.URLName(v.URLBaseName()))
	if err != nil {
		return nil, err
	}
	data["create_view_url"] = createURL

	if r.HasObject() {
		data["object"] = r.Object
		if name := r.ContextObjectName(false); name != "" {
			data[name] = r.Object
		}
	}
	if r.hasList {
		data["object_list"] = r.ObjectList
		if name := r.ContextObjectName(true); name != "" {
			data[name] = r.ObjectList
		}
	}
	return data, nil
}

// TemplateNames lists candidate templates, most specific first.
func (r *Request[T]) TemplateNames() ([]string, error) {
	if h := r.View.Hooks.TemplateNames; h != nil {
		return h(r)
	}
	return r.DefaultTemplateNames()
}

func (r *Request[T]) DefaultTemplateNames() ([]string, error) {
	v := r.View
	if v.TemplateName != "" {
		return []string{v.TemplateName}, nil
	}
	suffix := r.Role.TemplateNameSuffix()
	if meta := v.Meta(); meta != nil && suffix != "" {
		return []string{
			fmt.Sprintf("%s/%s%s.html", meta.AppLabel, meta.ModelName(), suffix),
			fmt.Sprintf("crudview/object%s.html", suffix),
		}, nil
	}
	return nil, improperlyConfigured("%s must define TemplateName or a model, or set the TemplateNames hook", v.name())
}

// Render resolves the template names and renders the first that exists.
func (r *Request[T]) Render(data fiber.Map) error {
	names, err := r.TemplateNames()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return improperlyConfigured("%s returned no template names", r.View.name())
	}
	resolver := r.View.Templates
	if resolver == nil {
		resolver, _ = r.Ctx.App().Config().Views.(TemplateResolver)
	}
	name := names[0]
	if resolver != nil {
		if name, err = resolver.Resolve(names...); err != nil {
			return err
		}
	}
	return r.Ctx.Render(name, data)
}

// SuccessURL is where a successful form or deletion redirects to.
func (r *Request[T]) SuccessURL() (string, error) {
	if h := r.View.Hooks.SuccessURL; h != nil {
		return h(r)
	}
	return r.DefaultSuccessURL()
}

func (r *Request[T]) DefaultSuccessURL() (string, error) {
	base := r.View.URLBaseName()
	if r.Role == RoleDelete {
		return r.reverse(RoleList.URLName(base))
	}
	if !r.HasObject() {
		return "", improperlyConfigured("%s has no object to redirect to", r.View.name())
	}
	value, err := r.Object.Get(r.View.LookupFieldName())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrImproperlyConfigured, err)
	}
	return r.reverse(RoleDetail.URLName(base), r.View.LookupURLKwargName(), model.FormatValue(value))
}

func (r *Request[T]) reverse(name string, kv ...string) (string, error) {
	if r.View.Router == nil {
		return "", improperlyConfigured("%s is not mounted on a Router", r.View.name())
	}
	return r.View.Router.Reverse(name, kv...)
}

func (r *Request[T]) verboseName() string {
	if meta := r.View.Meta(); meta != nil {
		return meta.VerboseName
	}
	return "object"
}

func (r *Request[T]) formData() (url.Values, form.Files, error) {
	ct := string(r.Ctx.Request().Header.ContentType())
	if strings.HasPrefix(ct, fiber.MIMEMultipartForm) {
		mf, err := r.Ctx.MultipartForm()
		if err != nil {
			return nil, nil, fiber.NewError(fiber.StatusBadRequest, "malformed multipart form")
		}
		return url.Values(mf.Value), form.Files(mf.File), nil
	}
	data, err := url.ParseQuery(string(r.Ctx.Body()))
	if err != nil {
		return nil, nil, fiber.NewError(fiber.StatusBadRequest, "malformed form body")
	}
	return data, form.Files{}, nil
}

// queryWithout returns the query string minus the page parameter, for page links.
func (r *Request[T]) queryWithout(key string) template.URL {
	q := r.QueryParams()
	q.Del(key)
	return template.URL(q.Encode())
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Interface, reflect.Slice:
		return rv.IsNil()
	}
	return false
}
