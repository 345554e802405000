package exporter

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Rule metric labels (note these are **always** strings):
//
//	family: the table's family as nft(8) prints it
//	handle: the rule's handle within its chain
//	comment: the rule's comment, if any
var ruleLabels = []string{"family", "table", "chain", "handle", "comment"}

type metrics struct {
	RuleBytes   *prometheus.GaugeVec
	RulePackets *prometheus.GaugeVec

	Rules *prometheus.GaugeVec

	ScrapeErrors prometheus.Counter
	LastScrape   prometheus.Gauge
}

func newMetrics() *metrics {
	return &metrics{
		RuleBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "nftnl_rule_bytes",
			Help: "Bytes matched by the rule's counter [B]",
		}, ruleLabels),
		RulePackets: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "nftnl_rule_packets",
			Help: "Packets matched by the rule's counter",
		}, ruleLabels),

		Rules: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "nftnl_chain_rules",
			Help: "Rules within the chain",
		}, []string{"family", "table", "chain"}),

		ScrapeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nftnl_scrape_errors_total",
			Help: "Scrapes of the ruleset that failed",
		}),
		LastScrape: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nftnl_last_scrape_timestamp_seconds",
			Help: "Time of the last successful scrape",
		}),
	}
}

// Reflection saves registering every collector by hand.
func (m *metrics) register(reg prometheus.Registerer) error {
	v := reflect.ValueOf(*m)

	for i := 0; i < v.NumField(); i++ {
		c, ok := v.Field(i).Interface().(prometheus.Collector)
		if !ok {
			return fmt.Errorf("error casting the interface for index %d", i)
		}
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("error registering index %d: %w", i, err)
		}
	}

	return nil
}

// update replaces every rule series with the contents of snap so that
// deleted rules don't linger.
func (m *metrics) update(snap *Snapshot) {
	m.RuleBytes.Reset()
	m.RulePackets.Reset()
	m.Rules.Reset()

	for _, t := range snap.Tables {
		for _, c := range t.Chains {
			m.Rules.WithLabelValues(t.Family, t.Name, c.Name).Set(float64(len(c.Rules)))

			for _, r := range c.Rules {
				if r.Bytes == nil {
					continue
				}
				labels := prometheus.Labels{
					"family":  t.Family,
					"table":   t.Name,
					"chain":   c.Name,
					"handle":  strconv.FormatUint(r.Handle, 10),
					"comment": r.Comment,
				}
				m.RuleBytes.With(labels).Set(float64(*r.Bytes))
				m.RulePackets.With(labels).Set(float64(*r.Packets))
			}
		}
	}

	m.LastScrape.Set(float64(snap.Taken.Unix()))
}
