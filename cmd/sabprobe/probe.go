package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"rainroute.motoclima.co/internal/ckan"
)

type check struct {
	name string
	run  func(ctx context.Context, c *ckan.Client, out io.Writer) error
}

func checks(resourceID string) []check {
	return []check{
		{"package_list", func(ctx context.Context, c *ckan.Client, out io.Writer) error {
			names, err := c.PackageList(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "   datasets available: %d\n", len(names))
			return nil
		}},
		{"package_search", func(ctx context.Context, c *ckan.Client, out io.Writer) error {
			result, err := c.PackageSearch(ctx, "SAB lluvia", 5)
			if err != nil {
				return err
			}
			if result.Count == 0 {
				return fmt.Errorf("no datasets match %q", "SAB lluvia")
			}
			fmt.Fprintf(out, "   found %d datasets\n", result.Count)
			for i, ds := range result.Results {
				if i == 3 {
					break
				}
				fmt.Fprintf(out, "   %d. %s (%s, %d resources)\n", i+1, ds.Title, ds.ID, len(ds.Resources))
			}
			return nil
		}},
		{"datastore_search", func(ctx context.Context, c *ckan.Client, out io.Writer) error {
			result, err := c.DatastoreSearch(ctx, ckan.DatastoreQuery{ResourceID: resourceID, Limit: 5})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "   total records: %d, fields: %d\n", result.Total, len(result.Fields))
			for i, f := range result.Fields {
				if i == 10 {
					break
				}
				fmt.Fprintf(out, "   - %s: %s\n", f.ID, f.Type)
			}
			return nil
		}},
		{"package_show", func(ctx context.Context, c *ckan.Client, out io.Writer) error {
			search, err := c.PackageSearch(ctx, "SAB Sistema de Alerta", 1)
			if err != nil {
				return err
			}
			if len(search.Results) == 0 {
				return fmt.Errorf("no SAB dataset found")
			}
			ds, err := c.PackageShow(ctx, search.Results[0].ID)
			if err != nil {
				return err
			}
			org := "N/A"
			if ds.Organization != nil {
				org = ds.Organization.Title
			}
			modified := ds.MetadataModified
			if len(modified) > 10 {
				modified = modified[:10]
			}
			fmt.Fprintf(out, "   %s by %s, updated %s, %d resources\n", ds.Title, org, modified, len(ds.Resources))
			return nil
		}},
		{"datastore_search_sql", func(ctx context.Context, c *ckan.Client, out io.Writer) error {
			result, err := c.DatastoreSearchSQL(ctx, fmt.Sprintf(`SELECT * FROM "%s" LIMIT 3`, resourceID))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "   rows returned: %d\n", len(result.Records))
			return nil
		}},
	}
}

// runChecks runs every check in order and prints a summary. It returns the
// number of checks that passed.
func runChecks(ctx context.Context, c *ckan.Client, resourceID string, out io.Writer) (passed, total int) {
	all := checks(resourceID)
	results := make([]bool, len(all))
	for i, chk := range all {
		fmt.Fprintf(out, "%s\nTEST %d: %s\n%s\n", strings.Repeat("=", 60), i+1, chk.name, strings.Repeat("=", 60))
		if err := chk.run(ctx, c, out); err != nil {
			fmt.Fprintf(out, "FAIL %s: %v\n", chk.name, err)
			continue
		}
		results[i] = true
		passed++
		fmt.Fprintf(out, "PASS %s\n", chk.name)
	}

	fmt.Fprintf(out, "\nSUMMARY\n")
	for i, chk := range all {
		status := "FAIL"
		if results[i] {
			status = "PASS"
		}
		fmt.Fprintf(out, "  %s  %s\n", status, chk.name)
	}
	fmt.Fprintf(out, "%d/%d checks passed\n", passed, len(all))
	return passed, len(all)
}
