package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/lintang-b-s/roadfacade/pkg/datastructure"
	"github.com/lintang-b-s/roadfacade/pkg/server"
	"github.com/lintang-b-s/roadfacade/pkg/server/rest/service"
)

type SnappingService interface {
	Info(ctx context.Context) (service.DatasetInfo, error)
	Nearest(ctx context.Context, lat, lon float64, k int, bearing *service.Bearing) ([]service.Snap, error)
	NearestInRange(ctx context.Context, lat, lon, radius float64, bearing *service.Bearing) ([]service.Snap, error)
	NearestBigComponent(ctx context.Context, lat, lon float64, bearing *service.Bearing) (service.SnapPair, error)
	EdgeGeometry(ctx context.Context, e datastructure.EdgeID, simplify float64) (service.EdgeGeometry, error)
}

type SnappingHandler struct {
	svc      SnappingService
	validate *validator.Validate
	trans    ut.Translator
}

func SnappingRouter(r *chi.Mux, svc SnappingService) {
	validate := validator.New()
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(validate, trans)

	handler := &SnappingHandler{svc: svc, validate: validate, trans: trans}

	r.Group(func(r chi.Router) {
		r.Route("/api", func(r chi.Router) {
			r.Get("/facade", handler.Info)
			r.Post("/nearest", handler.Nearest)
			r.Post("/nearest-range", handler.NearestInRange)
			r.Post("/nearest-big-component", handler.NearestBigComponent)
			r.Get("/edges/{id}/geometry", handler.EdgeGeometry)
		})
	})
}

type BearingRequest struct {
	Value float64 `json:"value" validate:"gte=0,lt=360"`
	Range float64 `json:"range" validate:"gte=0,lte=360"`
}

type SnapRequest struct {
	Lat     *float64        `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon     *float64        `json:"lon" validate:"required,gte=-180,lte=180"`
	Bearing *BearingRequest `json:"bearing,omitempty" validate:"omitempty"`
}

func (s *SnapRequest) bearing() *service.Bearing {
	if s.Bearing == nil {
		return nil
	}
	return &service.Bearing{Value: s.Bearing.Value, Range: s.Bearing.Range}
}

func (s *SnapRequest) Bind(r *http.Request) error {
	return nil
}

type NearestRequest struct {
	SnapRequest
	K int `json:"k" validate:"required,gt=0,lte=100"`
}

type NearestInRangeRequest struct {
	SnapRequest
	Radius float64 `json:"radius" validate:"required,gt=0,lte=100000"`
}

type SnapsResponse struct {
	Snaps []service.Snap `json:"snaps"`
}

// bindAndValidate decodes the body into data and renders the error response itself.
func (h *SnappingHandler) bindAndValidate(w http.ResponseWriter, r *http.Request, data render.Binder) bool {
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return false
	}
	if err := h.validate.Struct(data); err != nil {
		render.Render(w, r, ErrValidation(err, translateError(err, h.trans)))
		return false
	}
	return true
}

func (h *SnappingHandler) Info(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.Info(r.Context())
	if err != nil {
		render.Render(w, r, ErrService(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, info)
}

func (h *SnappingHandler) Nearest(w http.ResponseWriter, r *http.Request) {
	data := &NearestRequest{}
	if !h.bindAndValidate(w, r, data) {
		return
	}

	snaps, err := h.svc.Nearest(r.Context(), *data.Lat, *data.Lon, data.K, data.bearing())
	if err != nil {
		render.Render(w, r, ErrService(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, &SnapsResponse{Snaps: snaps})
}

func (h *SnappingHandler) NearestInRange(w http.ResponseWriter, r *http.Request) {
	data := &NearestInRangeRequest{}
	if !h.bindAndValidate(w, r, data) {
		return
	}

	snaps, err := h.svc.NearestInRange(r.Context(), *data.Lat, *data.Lon, data.Radius, data.bearing())
	if err != nil {
		render.Render(w, r, ErrService(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, &SnapsResponse{Snaps: snaps})
}

func (h *SnappingHandler) NearestBigComponent(w http.ResponseWriter, r *http.Request) {
	data := &SnapRequest{}
	if !h.bindAndValidate(w, r, data) {
		return
	}

	pair, err := h.svc.NearestBigComponent(r.Context(), *data.Lat, *data.Lon, data.bearing())
	if err != nil {
		render.Render(w, r, ErrService(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, pair)
}

func (h *SnappingHandler) EdgeGeometry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(fmt.Errorf("invalid edge id %q", chi.URLParam(r, "id"))))
		return
	}

	simplify := 0.0
	if raw := r.URL.Query().Get("simplify"); raw != "" {
		simplify, err = strconv.ParseFloat(raw, 64)
		if err != nil || simplify < 0 {
			render.Render(w, r, ErrInvalidRequest(fmt.Errorf("invalid simplify tolerance %q", raw)))
			return
		}
	}

	geometry, err := h.svc.EdgeGeometry(r.Context(), datastructure.EdgeID(id), simplify)
	if err != nil {
		render.Render(w, r, ErrService(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, geometry)
}

// ErrResponse model info
type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText    string   `json:"status"`          // user-level status message
	AppCode       int64    `json:"code,omitempty"`  // application-specific error code
	ErrorText     string   `json:"error,omitempty"` // application-level error message, for debugging
	ErrValidation []string `json:"validation,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

func translateError(err error, trans ut.Translator) (errs []error) {
	var validatorErrs validator.ValidationErrors
	if !errors.As(err, &validatorErrs) {
		return []error{err}
	}
	for _, e := range validatorErrs {
		errs = append(errs, errors.New(e.Translate(trans)))
	}
	return errs
}

func ErrValidation(err error, errV []error) render.Renderer {
	vv := []string{}
	for _, v := range errV {
		vv = append(vv, v.Error())
	}
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
		ErrValidation:  vv,
	}
}

// ErrService renders a service error with the status its code maps to.
// Internal errors hide their message.
func ErrService(err error) render.Renderer {
	status := server.StatusCode(err)
	resp := &ErrResponse{
		Err:            err,
		HTTPStatusCode: status,
		StatusText:     http.StatusText(status),
		AppCode:        int64(server.CodeOf(err)),
		ErrorText:      err.Error(),
	}
	if status == http.StatusInternalServerError {
		resp.ErrorText = "internal server error"
	}
	return resp
}
