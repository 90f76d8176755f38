// Package admin exposes the proxy decider over HTTP for inspection and
// runtime pattern updates.
package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/km-arc/go-autoproxy/framework/aop/autoproxy"
	gohttp "github.com/km-arc/go-autoproxy/framework/http"
	"github.com/km-arc/go-autoproxy/framework/http/validation"
	"github.com/km-arc/go-autoproxy/framework/routing"
)

const maxPatternLength = 256

// PatternDecider is the part of NamePatternProxyDecider the controller needs.
type PatternDecider interface {
	Patterns() autoproxy.PatternList
	SetObjectNames(names ...string)
	Explain(c autoproxy.Candidate) (autoproxy.Explanation, error)
	IsMatch(name, pattern string) bool
}

var _ PatternDecider = (*autoproxy.NamePatternProxyDecider)(nil)

// Controller serves the /autoproxy admin endpoints.
type Controller struct {
	decider PatternDecider
	logger  zerolog.Logger
}

// NewController returns a Controller backed by decider.
func NewController(decider PatternDecider, logger zerolog.Logger) *Controller {
	return &Controller{decider: decider, logger: logger}
}

// Routes registers the endpoints under /autoproxy.
//
//	GET /autoproxy/patterns
//	PUT /autoproxy/patterns
//	GET /autoproxy/decide?name=X&factory=true
//	GET /autoproxy/match?pattern=P&text=T
func (c *Controller) Routes(r *routing.Router) {
	r.Prefix("/autoproxy", func(api *routing.Router) {
		api.Get("/patterns", c.ListPatterns)
		api.Put("/patterns", c.ReplacePatterns)
		api.Get("/decide", c.Decide)
		api.Get("/match", c.Match)
	})
}

type patternsBody struct {
	ObjectNames []string `json:"objectNames"`
}

// ListPatterns returns the current pattern snapshot.
func (c *Controller) ListPatterns(w http.ResponseWriter, r *http.Request) {
	gohttp.NewResponse(w).Success(patternsBody{ObjectNames: nonNil(c.decider.Patterns().Patterns())})
}

// ReplacePatterns publishes a new pattern list.
func (c *Controller) ReplacePatterns(w http.ResponseWriter, r *http.Request) {
	req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)

	var body patternsBody
	if err := req.Bind(&body); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, gohttp.ErrUnsupportedMedia) {
			status = http.StatusUnsupportedMediaType
		}
		res.Error(status, err.Error())
		return
	}

	data := make(map[string]string, len(body.ObjectNames))
	rules := make(validation.Rules, len(body.ObjectNames)+1)
	if body.ObjectNames == nil {
		rules["objectNames"] = "required"
	}
	for i, name := range body.ObjectNames {
		field := "objectNames." + strconv.Itoa(i)
		data[field] = name
		rules[field] = "max:" + strconv.Itoa(maxPatternLength) + "|wildcard"
	}
	if v := validation.Make(data, rules); v.Fails() {
		res.ValidationError(v.Errors())
		return
	}

	c.decider.SetObjectNames(body.ObjectNames...)
	current := c.decider.Patterns()
	c.logger.Info().Strs("objectNames", current.Patterns()).Msg("object name patterns replaced")
	res.Success(patternsBody{ObjectNames: nonNil(current.Patterns())})
}

type decideResult struct {
	Name     string `json:"name"`
	Factory  bool   `json:"factory"`
	Decision string `json:"decision"`
	Pattern  string `json:"pattern"`
}

// Decide reports the decision for a hypothetical component. factory=true
// asks about a factory object; the name is used exactly as given, so the
// factory itself is addressed as "&name".
func (c *Controller) Decide(w http.ResponseWriter, r *http.Request) {
	req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)

	v := validation.Make(req.All(), validation.Rules{
		"name":    "required|max:" + strconv.Itoa(maxPatternLength),
		"factory": "sometimes|boolean",
	})
	if v.Fails() {
		res.ValidationError(v.Errors())
		return
	}

	name := req.Query("name")
	factory := req.QueryBool("factory", false)

	e, err := c.decider.Explain(autoproxy.Candidate{Type: autoproxy.StandInType(factory), Name: name})
	if err != nil {
		if errors.Is(err, autoproxy.ErrInvalidArgument) {
			res.Error(http.StatusUnprocessableEntity, err.Error())
			return
		}
		c.logger.Error().Err(err).Str("name", name).Msg("decide failed")
		res.ServerError()
		return
	}

	res.Success(decideResult{
		Name:     name,
		Factory:  factory,
		Decision: e.Decision.String(),
		Pattern:  e.Pattern,
	})
}

// Match evaluates one pattern against one text under the decider's matcher.
func (c *Controller) Match(w http.ResponseWriter, r *http.Request) {
	req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)

	limit := "max:" + strconv.Itoa(maxPatternLength)
	v := validation.Make(req.All(), validation.Rules{"pattern": limit, "text": limit})
	if v.Fails() {
		res.ValidationError(v.Errors())
		return
	}

	res.Success(map[string]bool{"match": c.decider.IsMatch(req.Query("text"), req.Query("pattern"))})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
