package main

import (
	"context"
	"fmt"
)

// cleanFiles removes (or only lists, on a dry run) the stored files of deleted resources.
func (cli *commandLine) cleanFiles(dryRun bool) error {
	orphans, err := cli.resSvc.CleanOrphans(context.Background(), dryRun)
	for _, p := range orphans {
		_, _ = fmt.Fprintln(cli.out, p)
	}
	if err != nil {
		return err
	}

	verb := "removed"
	if dryRun {
		verb = "found"
	}
	_, _ = fmt.Fprintf(cli.out, "%d orphaned file(s) %s\n", len(orphans), verb)
	return nil
}
