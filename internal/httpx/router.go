package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AngelCh415/adreport/internal/config"
	"github.com/AngelCh415/adreport/internal/ingest"
	"github.com/AngelCh415/adreport/internal/metrics"
	"github.com/AngelCh415/adreport/internal/models"
	"github.com/AngelCh415/adreport/internal/pipeline"
	"github.com/AngelCh415/adreport/internal/schema"
	"github.com/AngelCh415/adreport/internal/utils"
)

type handler struct {
	log *slog.Logger
	pl  *pipeline.Pipeline
	f   *ingest.Fetcher
	cfg config.Config
}

func NewRouter(log *slog.Logger, pl *pipeline.Pipeline, f *ingest.Fetcher, g prometheus.Gatherer, cfg config.Config) http.Handler {
	h := &handler{log: log, pl: pl, f: f, cfg: cfg}

	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(log))
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ready")) })
	if g != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	}

	mux.Get("/thresholds", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, h.pl.Thresholds())
	})
	mux.Post("/analyze", h.analyze)
	mux.Post("/analyze/url", h.analyzeURL)

	return mux
}

type analyzeBody struct {
	Columns []string           `json:"columns"`
	Rows    []models.RawRecord `json:"rows"`
	Params  *models.Params     `json:"params"`
}

// analyze acepta multipart (file + campos de formulario) o JSON con filas ya decodificadas.
func (h *handler) analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)

	var (
		tbl    models.Table
		params models.Params
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		// params parciales se mezclan sobre los defaults de config
		params = h.defaults()
		body := analyzeBody{Params: &params}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
		tbl = models.Table{Columns: body.Columns, Rows: body.Rows}
		if len(tbl.Columns) == 0 {
			tbl.Columns = columnsOf(body.Rows)
		}
	} else {
		if err := r.ParseMultipartForm(h.cfg.MaxUploadBytes); err != nil {
			writeError(w, http.StatusBadRequest, "expected multipart form with a file field")
			return
		}
		file, fh, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "file field required")
			return
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if tbl, err = ingest.Decode(fh.Filename, data); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if params, err = h.formParams(r.FormValue); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	h.run(w, r, tbl, params)
}

func (h *handler) analyzeURL(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	src := q.Get("url")
	if src == "" {
		writeError(w, http.StatusBadRequest, "url required")
		return
	}
	params, err := h.formParams(q.Get)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	name, data, err := h.f.Fetch(r.Context(), src)
	if err != nil {
		h.log.Warn("report fetch failed", slog.String("url", src), slog.String("err", err.Error()), slog.String("rid", utils.RID(r.Context())))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	tbl, err := ingest.Decode(name, data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.run(w, r, tbl, params)
}

func (h *handler) run(w http.ResponseWriter, r *http.Request, tbl models.Table, params models.Params) {
	res, err := h.pl.Run(r.Context(), tbl, params)
	if err != nil {
		var se *schema.SchemaError
		switch {
		case errors.As(err, &se):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": se.Error(), "missing_fields": se.Missing})
		case errors.Is(err, pipeline.ErrInvalidParams):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.log.Error("analysis failed", slog.String("err", err.Error()), slog.String("rid", utils.RID(r.Context())))
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}
	res.GroupRows = metrics.View(res.GroupRows, r.URL.Query())
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) defaults() models.Params {
	return models.Params{UnitPrice: h.cfg.DefaultUnitPrice, UnitCost: h.cfg.DefaultUnitCost}
}

func (h *handler) formParams(get func(string) string) (models.Params, error) {
	p := h.defaults()
	for _, f := range []struct {
		name string
		dst  *float64
	}{{"unit_price", &p.UnitPrice}, {"unit_cost", &p.UnitCost}, {"discount", &p.Discount}} {
		v := strings.ReplaceAll(strings.TrimSpace(get(f.name)), ",", "")
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return p, fmt.Errorf("%s: not a number", f.name)
		}
		*f.dst = n
	}
	p.GroupBy = strings.TrimSpace(get("group_by"))
	return p, nil
}

// columnsOf: sin orden explícito se usa orden alfabético para que la resolución sea determinista.
func columnsOf(rows []models.RawRecord) []string {
	seen := map[string]struct{}{}
	var cols []string
	for _, r := range rows {
		for k := range r {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeJSON encodes before writing the header so an encoding failure turns
// into a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", " ")
	if err := enc.Encode(v); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "{\"error\": %q}\n", "encode response: "+err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
