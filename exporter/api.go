package exporter

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	JSON_PRETTY_INDENT string = "    "
)

type rootResponse struct {
	ApiRoutes []*echo.Route `json:"routes"`
}

type tableSummary struct {
	Family string `json:"family"`
	Name   string `json:"name"`
	Handle uint64 `json:"handle"`
	Chains int    `json:"chains"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (e *Exporter) newAPI() *echo.Echo {
	server := echo.New()

	server.GET("/", handleRoot)
	server.GET("/tables", e.handleTables)
	server.GET("/tables/:family/:table/chains", e.handleChains)
	server.GET("/tables/:family/:table/chains/:chain/rules", e.handleRules)

	// Prevent the banner from showing up in the log
	server.HideBanner = true
	server.HidePort = true

	return server
}

func handleRoot(c echo.Context) error {
	return c.JSONPretty(http.StatusOK, &rootResponse{
		ApiRoutes: c.Echo().Routes(),
	}, JSON_PRETTY_INDENT)
}

func notFound(c echo.Context, what string) error {
	return c.JSONPretty(http.StatusNotFound, &errorResponse{Error: what + " not found"}, JSON_PRETTY_INDENT)
}

func (e *Exporter) handleTables(c echo.Context) error {
	snap := e.Snapshot()

	tables := make([]tableSummary, 0, len(snap.Tables))
	for _, t := range snap.Tables {
		tables = append(tables, tableSummary{Family: t.Family, Name: t.Name, Handle: t.Handle, Chains: len(t.Chains)})
	}
	return c.JSONPretty(http.StatusOK, tables, JSON_PRETTY_INDENT)
}

func (e *Exporter) handleChains(c echo.Context) error {
	t, ok := e.Snapshot().table(c.Param("family"), c.Param("table"))
	if !ok {
		return notFound(c, "table")
	}

	// Rules have an endpoint of their own.
	chains := make([]Chain, 0, len(t.Chains))
	for _, ch := range t.Chains {
		ch.Rules = nil
		chains = append(chains, ch)
	}
	return c.JSONPretty(http.StatusOK, chains, JSON_PRETTY_INDENT)
}

func (e *Exporter) handleRules(c echo.Context) error {
	t, ok := e.Snapshot().table(c.Param("family"), c.Param("table"))
	if !ok {
		return notFound(c, "table")
	}
	ch, ok := t.chain(c.Param("chain"))
	if !ok {
		return notFound(c, "chain")
	}
	return c.JSONPretty(http.StatusOK, ch.Rules, JSON_PRETTY_INDENT)
}
