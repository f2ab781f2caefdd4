package crud

import (
	"fmt"
	"html/template"
	"reflect"
	"strings"

	"crudview/internal/model"
)

// Partials renders the shared page fragments used by the template functions.
type Partials interface {
	Partial(name string, data any) (template.HTML, error)
}

// Listing is the part of a View the list fragment needs.
type Listing interface {
	ModelMeta() *model.Meta
	DisplayFields() []string
	LookupFieldName() string
	LookupURLKwargName() string
	URLBaseName() string
}

// DetailRow is one label/value pair of the detail fragment.
type DetailRow struct {
	Label string
	Value string
}

// TemplateFuncs returns the functions the default templates call:
// object_list, object_detail, action_links and url.
func (rt *Router) TemplateFuncs(p Partials) template.FuncMap {
	return template.FuncMap{
		"url": func(name string, kv ...any) (string, error) {
			params := make([]string, len(kv))
			for i, v := range kv {
				params[i] = model.FormatValue(v)
			}
			return rt.Reverse(name, params...)
		},
		"action_links": rt.ActionLinks,
		"object_detail": func(obj model.Record, fields []string) (template.HTML, error) {
			rows, err := DetailRows(obj, fields)
			if err != nil {
				return "", err
			}
			return p.Partial("detail.html", map[string]any{"object": rows})
		},
		"object_list": func(objects any, view Listing) (template.HTML, error) {
			data, err := rt.listData(objects, view)
			if err != nil {
				return "", err
			}
			return p.Partial("list.html", data)
		},
	}
}

// ActionLinks renders View | Edit | Delete links for obj. The route parameter is
// named after lookupField unless kwarg is given.
func (rt *Router) ActionLinks(obj model.Record, lookupField string, kwarg ...string) (template.HTML, error) {
	key := lookupField
	if len(kwarg) > 0 && kwarg[0] != "" {
		key = kwarg[0]
	}
	return rt.actionLinks(obj, obj.Meta().ModelName(), lookupField, key)
}

func (rt *Router) actionLinks(obj model.Record, base, lookupField, key string) (template.HTML, error) {
	value, err := obj.Get(lookupField)
	if err != nil {
		return "", improperlyConfigured("lookup field %s doesn't exist on object", lookupField)
	}
	actions := []struct {
		role Role
		text string
	}{
		{RoleDetail, "View"},
		{RoleUpdate, "Edit"},
		{RoleDelete, "Delete"},
	}
	links := make([]string, 0, len(actions))
	for _, a := range actions {
		u, err := rt.Reverse(a.role.URLName(base), key, model.FormatValue(value))
		if err != nil {
			return "", err
		}
		links = append(links, fmt.Sprintf("<a href='%s'>%s</a>", template.HTMLEscapeString(u), a.text))
	}
	return template.HTML(strings.Join(links, " | ")), nil
}

// DetailRows pairs the verbose name of each field with its display value.
func DetailRows(obj model.Record, fields []string) ([]DetailRow, error) {
	rows := make([]DetailRow, 0, len(fields))
	for _, name := range fields {
		f, err := obj.Meta().Field(name)
		if err != nil {
			return nil, err
		}
		s, err := model.ValueToString(obj, name)
		if err != nil {
			return nil, err
		}
		rows = append(rows, DetailRow{Label: f.Label(), Value: s})
	}
	return rows, nil
}

func (rt *Router) listData(objects any, view Listing) (map[string]any, error) {
	meta := view.ModelMeta()
	if meta == nil {
		return nil, improperlyConfigured("object_list needs a view with a model")
	}
	fields, err := meta.FieldsFor(view.DisplayFields())
	if err != nil {
		return nil, err
	}
	headers := make([]string, 0, len(fields))
	for _, f := range fields {
		headers = append(headers, f.Label())
	}

	rv := reflect.ValueOf(objects)
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("object_list: expected a slice, got %T", objects)
	}
	rows := make([]map[string]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		obj, ok := rv.Index(i).Interface().(model.Record)
		if !ok {
			return nil, fmt.Errorf("object_list: %T is not a record", rv.Index(i).Interface())
		}
		values := make([]string, 0, len(fields))
		for _, f := range fields {
			s, err := model.ValueToString(obj, f.Name)
			if err != nil {
				return nil, err
			}
			values = append(values, s)
		}
		actions, err := rt.actionLinks(obj, view.URLBaseName(), view.LookupFieldName(), view.LookupURLKwargName())
		if err != nil {
			return nil, err
		}
		rows = append(rows, map[string]any{
			"object":  obj,
			"fields":  values,
			"actions": actions,
		})
	}
	return map[string]any{"headers": headers, "object_list": rows}, nil
}
