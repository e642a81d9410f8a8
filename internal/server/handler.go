package server

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"optionlab/internal/config"
	"optionlab/internal/pricing"
)

//go:embed templates/index.html.tmpl
var templateFS embed.FS

var indexTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html.tmpl"))

// PriceHandler serves the pricing form and the JSON pricing API. It owns no
// state beyond the form defaults; every request builds fresh specs and runs
// a single pricing call.
type PriceHandler struct {
	defaults config.FormDefaults
	logger   *slog.Logger
}

func NewPriceHandler(defaults config.FormDefaults, logger *slog.Logger) *PriceHandler {
	return &PriceHandler{defaults: defaults, logger: logger}
}

// pageData is the template payload: raw form values to re-fill the inputs,
// plus either a priced result or an error line.
type pageData struct {
	Values map[string]string
	Result *formResult
	Error  string
}

type formResult struct {
	Price       decimal.Decimal
	StdError    decimal.Decimal
	Spot        float64
	Strike      float64
	Maturity    float64
	Rate        float64
	Volatility  float64
	Simulations int
	Steps       int
	Kind        string
	Seed        string
}

func (h *PriceHandler) defaultValues() map[string]string {
	d := h.defaults
	return map[string]string{
		"spot":        strconv.FormatFloat(d.Spot, 'g', -1, 64),
		"strike":      strconv.FormatFloat(d.Strike, 'g', -1, 64),
		"maturity":    strconv.FormatFloat(d.Maturity, 'g', -1, 64),
		"rate":        strconv.FormatFloat(d.Rate, 'g', -1, 64),
		"volatility":  strconv.FormatFloat(d.Volatility, 'g', -1, 64),
		"simulations": strconv.Itoa(d.Simulations),
		"steps":       strconv.Itoa(d.Steps),
		"option_type": d.OptionKind,
		"seed":        "",
	}
}

// Index renders the pricing form pre-filled with the configured defaults.
func (h *PriceHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, pageData{Values: h.defaultValues()})
}

// PriceForm handles the form submission: parse the fields, price the
// european option by Monte Carlo, and re-render the page with either the
// result or the error and a 400.
func (h *PriceHandler) PriceForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, http.StatusBadRequest, pageData{Values: h.defaultValues(), Error: "malformed form submission"})
		return
	}
	values := formValues(r.PostForm)

	kind, err := pricing.ParseOptionKind(strings.ToLower(strings.TrimSpace(r.PostForm.Get("option_type"))))
	if err != nil {
		h.render(w, http.StatusBadRequest, pageData{Values: values, Error: err.Error()})
		return
	}
	strike, err := parseFloatField(r.PostForm, "strike", "Strike")
	if err != nil {
		h.render(w, http.StatusBadRequest, pageData{Values: values, Error: err.Error()})
		return
	}
	spec, err := h.buildSpec(r.PostForm)
	if err != nil {
		h.render(w, http.StatusBadRequest, pageData{Values: values, Error: err.Error()})
		return
	}
	payoff, err := terminalPayoff(strike, kind)
	if err != nil {
		h.render(w, http.StatusBadRequest, pageData{Values: values, Error: err.Error()})
		return
	}
	res, err := pricing.PriceMonteCarloStats(spec, payoff)
	if err != nil {
		h.logger.Error("monte carlo pricing failed", slog.String("error", err.Error()))
		h.render(w, http.StatusBadRequest, pageData{Values: values, Error: err.Error()})
		return
	}

	seed := ""
	if spec.Seed != nil {
		seed = strconv.FormatUint(*spec.Seed, 10)
	}
	h.render(w, http.StatusOK, pageData{
		Values: values,
		Result: &formResult{
			Price:       decimal.NewFromFloat(res.Price),
			StdError:    decimal.NewFromFloat(res.StdError),
			Spot:        spec.Spot,
			Strike:      strike,
			Maturity:    spec.Maturity,
			Rate:        spec.Rate,
			Volatility:  spec.Volatility,
			Simulations: spec.Simulations,
			Steps:       spec.Steps,
			Kind:        string(kind),
			Seed:        seed,
		},
	})
}

func (h *PriceHandler) render(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := indexTmpl.Execute(w, data); err != nil {
		h.logger.Error("template render failed", slog.String("error", err.Error()))
	}
}

// buildSpec parses the Monte Carlo fields out of the form with
// field-identifying error messages.
func (h *PriceHandler) buildSpec(form url.Values) (pricing.MonteCarloSpec, error) {
	spot, err := parseFloatField(form, "spot", "Spot")
	if err != nil {
		return pricing.MonteCarloSpec{}, err
	}
	maturity, err := parseFloatField(form, "maturity", "Maturity")
	if err != nil {
		return pricing.MonteCarloSpec{}, err
	}
	rate, err := parseFloatField(form, "rate", "Rate")
	if err != nil {
		return pricing.MonteCarloSpec{}, err
	}
	volatility, err := parseFloatField(form, "volatility", "Volatility")
	if err != nil {
		return pricing.MonteCarloSpec{}, err
	}
	simulations, err := parseIntField(form, "simulations", "Simulations")
	if err != nil {
		return pricing.MonteCarloSpec{}, err
	}
	steps, err := parseIntField(form, "steps", "Steps")
	if err != nil {
		return pricing.MonteCarloSpec{}, err
	}

	var seed *uint64
	if raw := strings.TrimSpace(form.Get("seed")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return pricing.MonteCarloSpec{}, fmt.Errorf("Seed must be a non-negative integer")
		}
		seed = &parsed
	}

	return pricing.NewMonteCarloSpec(spot, maturity, rate, volatility, simulations, steps, seed)
}

// --- JSON API ---

type monteCarloRequest struct {
	Spot        float64 `json:"spot"`
	Strike      float64 `json:"strike"`
	Maturity    float64 `json:"maturity"`
	Rate        float64 `json:"rate"`
	Volatility  float64 `json:"volatility"`
	Simulations int     `json:"simulations"`
	Steps       int     `json:"steps"`
	OptionKind  string  `json:"option_kind"`
	Seed        *uint64 `json:"seed,omitempty"`
}

type binomialRequest struct {
	Spot       float64 `json:"spot"`
	Strike     float64 `json:"strike"`
	Maturity   float64 `json:"maturity"`
	Rate       float64 `json:"rate"`
	Volatility float64 `json:"volatility"`
	Steps      int     `json:"steps"`
	OptionKind string  `json:"option_kind"`
	Exercise   string  `json:"exercise"`
}

type priceResponse struct {
	Engine   string           `json:"engine"`
	Price    decimal.Decimal  `json:"price"`
	StdError *decimal.Decimal `json:"std_error,omitempty"`
}

// PriceMonteCarloJSON prices a european option by Monte Carlo from a JSON
// body, reporting the standard error alongside the price.
func (h *PriceHandler) PriceMonteCarloJSON(w http.ResponseWriter, r *http.Request) {
	var req monteCarloRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body: "+err.Error())
		return
	}

	kind, err := pricing.ParseOptionKind(strings.ToLower(req.OptionKind))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	spec, err := pricing.NewMonteCarloSpec(req.Spot, req.Maturity, req.Rate, req.Volatility, req.Simulations, req.Steps, req.Seed)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	payoff, err := terminalPayoff(req.Strike, kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := pricing.PriceMonteCarloStats(spec, payoff)
	if err != nil {
		h.logger.Error("monte carlo pricing failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	stderr := decimal.NewFromFloat(res.StdError)
	writeJSON(w, http.StatusOK, priceResponse{
		Engine:   "montecarlo",
		Price:    decimal.NewFromFloat(res.Price),
		StdError: &stderr,
	})
}

// PriceBinomialJSON prices an option on the CRR lattice from a JSON body.
// Both exercise styles are accepted; an empty style means european.
func (h *PriceHandler) PriceBinomialJSON(w http.ResponseWriter, r *http.Request) {
	var req binomialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body: "+err.Error())
		return
	}

	kind, err := pricing.ParseOptionKind(strings.ToLower(req.OptionKind))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Exercise == "" {
		req.Exercise = string(pricing.European)
	}
	exercise, err := pricing.ParseExerciseStyle(strings.ToLower(req.Exercise))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	spec, err := pricing.NewOptionSpec(req.Spot, req.Strike, req.Maturity, req.Rate, req.Volatility, req.Steps, kind, exercise)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	price, err := pricing.PriceBinomialTree(spec)
	if err != nil {
		// An arbitrage violation is an input problem, not a server fault.
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, priceResponse{
		Engine: "binomial",
		Price:  decimal.NewFromFloat(price),
	})
}

func terminalPayoff(strike float64, kind pricing.OptionKind) (pricing.PathPayoff, error) {
	if kind == pricing.Put {
		return pricing.TerminalPutPayoff(strike)
	}
	return pricing.TerminalCallPayoff(strike)
}

func formValues(form url.Values) map[string]string {
	values := make(map[string]string, len(form))
	for key := range form {
		values[key] = form.Get(key)
	}
	return values
}

func parseFloatField(form url.Values, key, name string) (float64, error) {
	raw := strings.TrimSpace(form.Get(key))
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	return f, nil
}

func parseIntField(form url.Values, key, name string) (int, error) {
	raw := strings.TrimSpace(form.Get(key))
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return int(f), nil
}

// writeJSON marshals v and writes it with the given status. Marshal failure
// falls back to a plain 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
