package crud

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"crudview/internal/form"
	"crudview/internal/model"
	"crudview/internal/repository"
)

func (r *Request[T]) list() error {
	qs, err := r.Queryset()
	if err != nil {
		return err
	}
	fs, err := r.FilterSet(qs)
	if err != nil {
		return err
	}
	if fs != nil {
		qs = fs.Qs()
	}

	if r.View.DisallowEmpty {
		ok, err := qs.Exists(r.context())
		if err != nil {
			return err
		}
		if !ok {
			return fiber.ErrNotFound
		}
	}

	extra := fiber.Map{}
	if fs != nil {
		extra["filterset"] = fs
	}
	if perPage := r.PaginateBy(); perPage > 0 {
		page, err := r.PaginateQueryset(qs, perPage)
		if err != nil {
			return err
		}
		r.ObjectList = page.ObjectList
		extra["page_obj"] = page
		extra["is_paginated"] = page.HasOtherPages()
		extra["paginator"] = page.Paginator
		extra["query_params"] = r.queryWithout(r.View.pageKwarg())
	} else {
		list, err := qs.All(r.context())
		if err != nil {
			return err
		}
		r.ObjectList = list
		extra["page_obj"] = nil
		extra["is_paginated"] = false
		extra["paginator"] = nil
	}
	if r.ObjectList == nil {
		r.ObjectList = []T{}
	}
	r.hasList = true

	data, err := r.ContextData(extra)
	if err != nil {
		return err
	}
	return r.Render(data)
}

func (r *Request[T]) detail() error {
	obj, err := r.GetObject()
	if err != nil {
		return err
	}
	r.Object = obj
	data, err := r.ContextData(nil)
	if err != nil {
		return err
	}
	return r.Render(data)
}

func (r *Request[T]) showForm() error {
	if r.Role == RoleUpdate {
		obj, err := r.GetObject()
		if err != nil {
			return err
		}
		r.Object = obj
	}
	f, err := r.Form(nil, nil, r.Object)
	if err != nil {
		return err
	}
	data, err := r.ContextData(fiber.Map{"form": f})
	if err != nil {
		return err
	}
	return r.Render(data)
}

func (r *Request[T]) processForm() error {
	if r.Role == RoleUpdate {
		obj, err := r.GetObject()
		if err != nil {
			return err
		}
		r.Object = obj
	}
	values, files, err := r.formData()
	if err != nil {
		return err
	}
	f, err := r.Form(values, files, r.Object)
	if err != nil {
		return err
	}
	if f.IsValid() {
		return r.FormValid(f)
	}
	return r.FormInvalid(f)
}

// FormValid saves the form and redirects to the success URL. A uniqueness conflict
// detected on save is shown on the form instead.
func (r *Request[T]) FormValid(f *form.Form[T]) error {
	if h := r.View.Hooks.FormValid; h != nil {
		return h(r, f)
	}
	return r.DefaultFormValid(f)
}

func (r *Request[T]) DefaultFormValid(f *form.Form[T]) error {
	obj, err := f.Save(r.context())
	if errors.Is(err, repository.ErrConflict) {
		return r.FormInvalid(f)
	}
	if err != nil {
		return err
	}
	r.Object = obj
	r.Logger().Info().
		Str("event", "object_saved").
		Str("model", obj.Meta().ModelName()).
		Str("pk", model.FormatValue(model.PK(obj))).
		Str("role", r.Role.String()).
		Msg("")
	u, err := r.SuccessURL()
	if err != nil {
		return err
	}
	return r.Ctx.Redirect(u, fiber.StatusFound)
}

// FormInvalid renders the form again with its errors.
func (r *Request[T]) FormInvalid(f *form.Form[T]) error {
	if h := r.View.Hooks.FormInvalid; h != nil {
		return h(r, f)
	}
	return r.DefaultFormInvalid(f)
}

func (r *Request[T]) DefaultFormInvalid(f *form.Form[T]) error {
	data, err := r.ContextData(fiber.Map{"form": f})
	if err != nil {
		return err
	}
	return r.Render(data)
}

func (r *Request[T]) confirmDelete() error {
	obj, err := r.GetObject()
	if err != nil {
		return err
	}
	r.Object = obj
	data, err := r.ContextData(nil)
	if err != nil {
		return err
	}
	return r.Render(data)
}

func (r *Request[T]) processDeletion() error {
	obj, err := r.GetObject()
	if err != nil {
		return err
	}
	r.Object = obj
	store := r.View.store()
	if store == nil {
		return improperlyConfigured("%s has no Store to delete from", r.View.name())
	}
	if err := store.Delete(r.context(), obj); err != nil {
		return err
	}
	r.Logger().Info().
		Str("event", "object_deleted").
		Str("model", obj.Meta().ModelName()).
		Str("pk", model.FormatValue(model.PK(obj))).
		Msg("")
	u, err := r.SuccessURL()
	if err != nil {
		return err
	}
	return r.Ctx.Redirect(u, fiber.StatusFound)
}
