package main

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/scitags/nftnl/exporter"
	"github.com/scitags/nftnl/nlsock"
	"github.com/scitags/nftnl/query"
)

func TestReadConf(t *testing.T) {
	partialExporter := exporter.DefaultConfig
	partialExporter.Tables = []string{"nat"}

	tests := map[string]*Config{
		"full.yaml": {
			Socket: &nlsock.Config{SocketBufferSize: 1 << 20, ExtendedAck: false, StrictCheck: true},
			Query:  &query.Config{DumpRetries: 5, BufferSize: 65536},
			Exporter: &exporter.Config{
				Log:            false,
				BindAddress:    "0.0.0.0",
				MetricsPort:    9100,
				ApiPort:        9101,
				Families:       []string{"inet"},
				Tables:         []string{"filter"},
				RefreshSeconds: 30,
			},
		},
		"defaults.yaml": {
			Socket:   &nlsock.DefaultConfig,
			Query:    &query.DefaultConfig,
			Exporter: &exporter.DefaultConfig,
		},
		"partial.yaml": {
			Query:    &query.Config{DumpRetries: 1, BufferSize: query.DefaultConfig.BufferSize},
			Exporter: &partialExporter,
		},
	}

	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ReadConf(filepath.Join("testdata", name))
			if err != nil {
				t.Fatalf("error parsing %q: %v", name, err)
			}
			t.Logf("%s:\n%s", name, got)

			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("configuration mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReadConfMissing(t *testing.T) {
	if _, err := ReadConf(filepath.Join("testdata", "missing.yaml")); err == nil {
		t.Errorf("read a configuration that doesn't exist")
	}
}

func TestLoadConfDefaults(t *testing.T) {
	confPath = ""
	conf, err := loadConf()
	if err != nil {
		t.Fatalf("error loading the defaults: %v", err)
	}
	if diff := cmp.Diff(&Config{Socket: &nlsock.DefaultConfig, Exporter: &exporter.DefaultConfig}, conf); diff != "" {
		t.Errorf("configuration mismatch (-want +got):\n%s", diff)
	}
}
