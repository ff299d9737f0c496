package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/git-pkgs/pinlicenses"
	"github.com/git-pkgs/pinlicenses/config"
)

type packageRecord struct {
	Name       string `json:"name" yaml:"name"`
	Identity   string `json:"identity" yaml:"identity"`
	Location   string `json:"location" yaml:"location"`
	Version    string `json:"version,omitempty" yaml:"version,omitempty"`
	Branch     string `json:"branch,omitempty" yaml:"branch,omitempty"`
	Revision   string `json:"revision,omitempty" yaml:"revision,omitempty"`
	PURL       string `json:"purl,omitempty" yaml:"purl,omitempty"`
	LicenseURL string `json:"license_url,omitempty" yaml:"license_url,omitempty"`
}

func toRecords(packages []pinlicenses.Package) []packageRecord {
	records := make([]packageRecord, 0, len(packages))
	for _, p := range packages {
		records = append(records, packageRecord{
			Name:       p.Name,
			Identity:   p.Identity,
			Location:   p.Location,
			Version:    p.Version,
			Branch:     p.Branch,
			Revision:   p.Revision,
			PURL:       p.PURL,
			LicenseURL: p.LicenseURL,
		})
	}
	return records
}

func render(w io.Writer, format string, packages []pinlicenses.Package) error {
	switch format {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(toRecords(packages))
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		defer func() { _ = enc.Close() }()
		return enc.Encode(toRecords(packages))
	case config.FormatTable:
		renderTable(w, packages)
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func renderTable(w io.Writer, packages []pinlicenses.Package) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Name", "Ref", "License"})

	for _, p := range packages {
		ref := p.Version
		if p.Branch != "" {
			ref = p.Branch
		}
		license := p.LicenseURL
		if license == "" {
			license = "-"
		}
		t.AppendRow(table.Row{p.Name, ref, license})
	}

	t.Render()
}

func printSummary(w io.Writer, packages []pinlicenses.Package) {
	if len(packages) == 0 {
		color.New(color.FgYellow).Fprintln(w, "No packages pinned in manifest")
		return
	}

	missing := 0
	for _, p := range packages {
		if !p.HasLicense() {
			missing++
		}
	}

	if missing == 0 {
		color.New(color.FgGreen).Fprintf(w, "Found licenses for all %d packages\n", len(packages))
		return
	}
	color.New(color.FgYellow).Fprintf(w, "No license found for %d of %d packages\n", missing, len(packages))
}
