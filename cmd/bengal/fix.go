package main

import (
	"fmt"
	"time"

	"github.com/bengal-ssg/bengal/internal/contentfix"
)

// FixCmd normalizes frontmatter across the content tree: filling a uid,
// type, title, and date where missing, and refreshing the canonical
// content fingerprint (bumping lastmod when it changes).
type FixCmd struct {
	DryRun bool `help:"Report what would change without writing any files"`
}

func (f *FixCmd) Run(root *CLI) error {
	report, err := contentfix.Fix(root.Content, time.Now(), f.DryRun)
	if err != nil {
		return fmt.Errorf("fix: %w", err)
	}

	for _, r := range report.Files {
		if r.Err != nil {
			fmt.Printf("error  %s: %v\n", r.Path, r.Err)
			continue
		}
		if r.Changed {
			verb := "fixed"
			if report.DryRun {
				verb = "would fix"
			}
			fmt.Printf("%-9s %s\n", verb, r.Path)
		}
	}
	fmt.Printf("%d file(s) changed\n", report.Changed)
	return nil
}
