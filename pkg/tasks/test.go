package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/psmodkit/build-tools/pkg"
)

func (b *BuildContext) buildTestProjects(ctx context.Context) error {
	return pkg.InDir(b.testDir(), func() error {
		return b.run(ctx, "", b.Toolchain.DotnetPath, "build",
			"--configuration", b.Configuration,
		)
	})
}

// runPesterTests invokes Pester with an NUnit report below the output
// directory. The tag filter is handed through opaquely; without one the whole
// suite runs.
func (b *BuildContext) runPesterTests(ctx context.Context) error {
	resultsDir := b.TestResultsDir()
	if !b.DryRun {
		err := os.MkdirAll(resultsDir, os.FileMode(0770))
		if err != nil {
			return eris.Wrapf(err, "failed to create %s", resultsDir)
		}
	}

	reportPath := filepath.Join(resultsDir, "Pester.xml")
	script := fmt.Sprintf(
		"$cfg = New-PesterConfiguration; "+
			"$cfg.Run.Path = '%s'; "+
			"$cfg.Run.Exit = $true; "+
			"$cfg.TestResult.Enabled = $true; "+
			"$cfg.TestResult.OutputFormat = 'NUnitXml'; "+
			"$cfg.TestResult.OutputPath = '%s'; ",
		b.testDir(), reportPath,
	)

	if len(b.TagFilter) > 0 {
		script += fmt.Sprintf("$cfg.Filter.Tag = @('%s'); ", strings.Join(b.TagFilter, "','"))
	}

	script += "Invoke-Pester -Configuration $cfg"

	return b.run(ctx, "", b.pwsh(), "-NoProfile", "-Command", script)
}
