package handler

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
	"github.com/shopspring/decimal"

	"github.com/pesio-ai/be-dealer-workflow/internal/errors"
	"github.com/pesio-ai/be-dealer-workflow/internal/service"
)

// maxUploadBody bounds a multipart request carrying up to six images.
const maxUploadBody = 6*service.MaxImageSize + 1<<20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to its HTTP status. Internal errors are logged and
// replaced with a static message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.CodeOf(err)
	if code == errors.ErrCodeInternal {
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
	}
	writeJSON(w, code.HTTPStatus(), map[string]string{"error": errors.PublicMessage(err)})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.InvalidInput("body", "invalid request body")
	}
	return nil
}

func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.InvalidInput(name, "invalid id")
	}
	return id, nil
}

// form is a request body read as flat string fields plus optional files. It
// accepts multipart, urlencoded and JSON bodies alike.
type form struct {
	r      *http.Request
	values map[string]string
	files  bool
}

func readForm(w http.ResponseWriter, r *http.Request) (*form, error) {
	f := &form{r: r, values: make(map[string]string)}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
		if err := r.ParseMultipartForm(maxUploadBody); err != nil {
			return nil, errors.InvalidInput("body", "invalid multipart body")
		}
		for k, v := range r.MultipartForm.Value {
			if len(v) > 0 {
				f.values[k] = v[0]
			}
		}
		f.files = true
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, errors.InvalidInput("body", "invalid form body")
		}
		for k := range r.PostForm {
			f.values[k] = r.PostForm.Get(k)
		}
	default:
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			if err == io.EOF {
				return f, nil
			}
			return nil, errors.InvalidInput("body", "invalid request body")
		}
		for k, v := range raw {
			var s string
			switch {
			case string(v) == "null":
				continue
			case json.Unmarshal(v, &s) == nil:
				f.values[k] = s
			default:
				f.values[k] = string(v)
			}
		}
	}
	return f, nil
}

// str returns the trimmed field, or nil when it is absent or blank.
func (f *form) str(name string) *string {
	v := strings.TrimSpace(f.values[name])
	if v == "" {
		return nil
	}
	return &v
}

func (f *form) decimal(name string) (decimal.NullDecimal, error) {
	v := f.str(name)
	if v == nil {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(*v)
	if err != nil {
		return decimal.NullDecimal{}, errors.InvalidInput(name, "must be a number")
	}
	return decimal.NewNullDecimal(d), nil
}

func (f *form) date(name string) (*time.Time, error) {
	v := f.str(name)
	if v == nil {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, *v); err == nil {
			return &t, nil
		}
	}
	return nil, errors.InvalidInput(name, "must be a date (YYYY-MM-DD)")
}

func (f *form) flag(name string) bool {
	v, _ := strconv.ParseBool(strings.TrimSpace(f.values[name]))
	return v
}

// file returns the uploaded file's bytes, or nil when none was sent.
func (f *form) file(name string) ([]byte, error) {
	if !f.files {
		return nil, nil
	}
	file, _, err := f.r.FormFile(name)
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, errors.InvalidInput(name, "invalid file")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, service.MaxImageSize+1))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to read upload")
	}
	return data, nil
}
