package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/great-cookie/internal/domain/review"
)

// SubmitReview stores a review pending moderation.
func (h *Handler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	var (
		name, comment OptString
		rating        OptInt
	)
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "customer_name":
			return name.Decode(d)
		case "rating":
			return rating.Decode(d)
		case "comment":
			return comment.Decode(d)
		default:
			return d.Skip()
		}
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !rating.Set {
		writeError(w, r, &review.ValidationError{Field: "rating", Reason: "required"})
		return
	}

	rv, err := h.reviews.Submit(r.Context(), review.Submission{
		CustomerName: name.Value,
		Rating:       rating.Value,
		Comment:      comment.Value,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeReview(e, rv) })
}

// ListApprovedReviews serves published reviews, newest first.
func (h *Handler) ListApprovedReviews(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	reviews, err := h.reviews.ListApproved(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeReviews(w, reviews)
}

// ListReviews serves every review for moderation.
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.ListAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeReviews(w, reviews)
}

// ApproveReview publishes a review.
func (h *Handler) ApproveReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rv, err := h.reviews.Approve(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeReview(e, rv) })
}

// DeleteReview removes a review.
func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.reviews.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeReviews(w http.ResponseWriter, reviews []review.Review) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for i := range reviews {
			encodeReview(e, &reviews[i])
		}
		e.ArrEnd()
	})
}

func encodeReview(e *jx.Encoder, rv *review.Review) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(rv.ID)
	e.FieldStart("customer_name")
	e.Str(rv.CustomerName)
	e.FieldStart("rating")
	e.Int(rv.Rating)
	e.FieldStart("comment")
	e.Str(rv.Comment)
	e.FieldStart("approved")
	e.Bool(rv.Approved)
	e.FieldStart("created_at")
	encodeTime(e, rv.CreatedAt)
	e.ObjEnd()
}
