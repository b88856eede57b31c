package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/great-cookie/internal/domain/cookie"
)

// ListCookies serves the menu. Supports ?search= and ?limit=.
func (h *Handler) ListCookies(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cookies, err := h.cookies.List(r.Context(), cookie.Filter{
		Search: r.URL.Query().Get("search"),
		Limit:  limit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for i := range cookies {
			h.encodeCookie(e, &cookies[i])
		}
		e.ArrEnd()
	})
}

// CreateCookie adds a menu item.
func (h *Handler) CreateCookie(w http.ResponseWriter, r *http.Request) {
	var (
		in    cookieBody
		price OptDecimal
	)
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		if key == "price" {
			return price.Decode(d)
		}
		return in.decodeField(d, key)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !price.Set {
		writeError(w, r, &cookie.ValidationError{Field: "price", Reason: "required"})
		return
	}

	c, err := h.cookies.Create(r.Context(), cookie.Draft{
		Name:        in.Name.Value,
		Description: in.Description.Value,
		Ingredients: in.Ingredients.Value,
		Category:    cookie.Category(in.Category.Value),
		Price:       price.Value,
		Weight:      in.Weight.Value,
		Image:       in.Image.Value,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { h.encodeCookie(e, c) })
}

// UpdateCookie changes the fields present in the body.
func (h *Handler) UpdateCookie(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var (
		in    cookieBody
		price OptDecimal
	)
	err = decodeBody(r, func(d *jx.Decoder, key string) error {
		if key == "price" {
			return price.Decode(d)
		}
		return in.decodeField(d, key)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	p := cookie.Patch{
		Name:        in.Name.Ptr(),
		Description: in.Description.Ptr(),
		Ingredients: in.Ingredients.Ptr(),
		Price:       price.Ptr(),
		Weight:      in.Weight.Ptr(),
		Image:       in.Image.Ptr(),
	}
	if v, ok := in.Category.Get(); ok {
		c := cookie.Category(v)
		p.Category = &c
	}

	c, err := h.cookies.Update(r.Context(), id, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeCookie(e, c) })
}

// DeleteCookie removes a menu item.
func (h *Handler) DeleteCookie(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.cookies.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type cookieBody struct {
	Name        OptString
	Description OptString
	Ingredients OptString
	Category    OptString
	Weight      OptString
	Image       OptString
}

func (b *cookieBody) decodeField(d *jx.Decoder, key string) error {
	switch key {
	case "name":
		return b.Name.Decode(d)
	case "description":
		return b.Description.Decode(d)
	case "ingredients":
		return b.Ingredients.Decode(d)
	case "category":
		return b.Category.Decode(d)
	case "weight":
		return b.Weight.Decode(d)
	case "image":
		return b.Image.Decode(d)
	default:
		return d.Skip()
	}
}

func (h *Handler) encodeCookie(e *jx.Encoder, c *cookie.Cookie) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(c.ID)
	e.FieldStart("name")
	e.Str(c.Name)
	e.FieldStart("description")
	e.Str(c.Description)
	e.FieldStart("ingredients")
	e.Str(c.Ingredients)
	e.FieldStart("category")
	e.Str(string(c.Category))
	e.FieldStart("price")
	encodeMoney(e, c.Price)
	e.FieldStart("weight")
	e.Str(c.Weight)
	e.FieldStart("image")
	e.Str(h.imageURL(c.Image))
	e.FieldStart("created_at")
	encodeTime(e, c.CreatedAt)
	e.ObjEnd()
}
