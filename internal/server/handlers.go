package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/matzehuels/cartogram/pkg/buildinfo"
	cerrors "github.com/matzehuels/cartogram/pkg/errors"
	pkgio "github.com/matzehuels/cartogram/pkg/io"
	"github.com/matzehuels/cartogram/pkg/pipeline"
)

// Response headers of POST /v1/cartograms.
const (
	HeaderRunID        = "X-Run-ID"
	HeaderIterations   = "X-Cartogram-Iterations"
	HeaderAverageError = "X-Cartogram-Average-Error"
	HeaderStatus       = "X-Cartogram-Status"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		buildinfo.Info
	}{"ok", buildinfo.Get()})
}

func (s *Server) handleCartogram(w http.ResponseWriter, r *http.Request) {
	opts, err := s.requestOptions(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	c, err := pkgio.ReadGeoJSON(r.Body, opts.Attribute)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.runner.Execute(r.Context(), c, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	format := opts.Formats[0]
	h := w.Header()
	h.Set("Content-Type", pipeline.ContentTypes[format])
	h.Set(HeaderRunID, res.RunID)
	h.Set(HeaderIterations, strconv.Itoa(res.Iterations))
	h.Set(HeaderAverageError, strconv.FormatFloat(res.AverageError, 'g', -1, 64))
	h.Set(HeaderStatus, res.Status.String())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}

// requestOptions overlays query parameters on the configured defaults.
func (s *Server) requestOptions(q url.Values) (pipeline.Options, error) {
	opts := s.cfg.Defaults
	opts.Logger = s.logger
	opts.Observer = nil
	opts.Refresh = false

	opts.Attribute = q.Get("attribute")
	if err := cerrors.ValidateAttributeName(opts.Attribute); err != nil {
		return opts, err
	}

	format := q.Get("format")
	if format == "" {
		format = pipeline.FormatGeoJSON
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		return opts, err
	}
	opts.Formats = []string{format}

	if v := q.Get("palette"); v != "" {
		opts.Palette = v
	}

	ints := map[string]*int{"max_iterations": &opts.MaxIterations}
	for name, dst := range ints {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return opts, cerrors.New(cerrors.ErrCodeInvalidInput, "%s: %q is not an integer", name, v)
			}
			*dst = n
		}
	}

	floats := map[string]*float64{
		"max_average_error": &opts.MaxAverageError,
		"width":             &opts.Width,
		"height":            &opts.Height,
	}
	for name, dst := range floats {
		if v := q.Get(name); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return opts, cerrors.New(cerrors.ErrCodeInvalidInput, "%s: %q is not a number", name, v)
			}
			*dst = f
		}
	}

	if opts.Width < 0 || opts.Height < 0 {
		return opts, cerrors.New(cerrors.ErrCodeInvalidInput, "width and height must not be negative")
	}
	return opts, opts.Validate()
}

type errorBody struct {
	Code    cerrors.Code `json:"code"`
	Message string       `json:"message"`
}

// writeError maps err to a status code: 400 for INVALID_* errors, 413 for
// an oversized body and 500 for everything else.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := cerrors.HTTPStatus(err)
	body := errorBody{Code: cerrors.GetCode(err), Message: cerrors.UserMessage(err)}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		status = http.StatusRequestEntityTooLarge
		body = errorBody{Code: cerrors.ErrCodeInvalidInput,
			Message: "request body exceeds " + strconv.FormatInt(tooLarge.Limit, 10) + " bytes"}
	case status == http.StatusInternalServerError:
		if body.Code == "" {
			body.Code = cerrors.ErrCodeInternal
		}
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}

	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
